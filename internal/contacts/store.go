// Package contacts defines the persistence contract for outreach contacts and
// an in-memory implementation used by tests and dry runs.
package contacts

import (
	"context"
	"time"

	"github.com/ignite/campus-outreach/internal/domain"
)

// Existence is the answer to a keyed lookup. Unknown means the store could
// not be asked; the caller picks the policy.
type Existence int

const (
	Absent Existence = iota
	Present
	Unknown
)

func (e Existence) String() string {
	switch e {
	case Absent:
		return "absent"
	case Present:
		return "present"
	}
	return "unknown"
}

// Store is the data access contract for contacts.
// Implementations must be safe for concurrent use.
type Store interface {
	// Lookup reports whether id exists. On a transport failure it returns
	// Unknown together with the error.
	Lookup(ctx context.Context, id string) (Existence, error)

	// Get returns one contact. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*domain.Contact, error)

	// Create inserts c. Returns ErrAlreadyExists if the id is taken.
	Create(ctx context.Context, c *domain.Contact) error

	// Update applies ch to the contact. Returns ErrNotFound if the contact
	// doesn't exist and ErrConflict when ch.IfStep no longer matches.
	Update(ctx context.Context, id string, ch Changes) error

	// Scan returns every contact, following pagination to the end.
	Scan(ctx context.Context) ([]domain.Contact, error)
}

// Changes is a partial update. Nil fields are left alone.
type Changes struct {
	SequenceStep      *int
	LastEmailSentAt   *time.Time
	LastEmailSubject  *string
	LastEmailBody     *string
	SequenceCompleted *bool
	Abandoned         *bool
	AbandonedAt       *time.Time

	// FirstEmailSentAt is only written when the stored value is absent.
	FirstEmailSentAt *time.Time

	// IfStep makes the update conditional on the stored sequence step.
	IfStep *int
}

// Empty reports whether ch changes nothing.
func (ch Changes) Empty() bool {
	return ch.SequenceStep == nil && ch.LastEmailSentAt == nil && ch.LastEmailSubject == nil &&
		ch.LastEmailBody == nil && ch.SequenceCompleted == nil && ch.Abandoned == nil &&
		ch.AbandonedAt == nil && ch.FirstEmailSentAt == nil
}

// Apply writes ch onto c. The IfStep condition is not checked here.
func (ch Changes) Apply(c *domain.Contact) {
	if ch.SequenceStep != nil {
		c.SequenceStep = *ch.SequenceStep
	}
	if ch.LastEmailSentAt != nil {
		t := *ch.LastEmailSentAt
		c.LastEmailSentAt = &t
	}
	if ch.FirstEmailSentAt != nil && c.FirstEmailSentAt == nil {
		t := *ch.FirstEmailSentAt
		c.FirstEmailSentAt = &t
	}
	if ch.LastEmailSubject != nil {
		c.LastEmailSubject = *ch.LastEmailSubject
	}
	if ch.LastEmailBody != nil {
		c.LastEmailBody = *ch.LastEmailBody
	}
	if ch.SequenceCompleted != nil {
		c.SequenceCompleted = *ch.SequenceCompleted
	}
	if ch.Abandoned != nil {
		c.Abandoned = *ch.Abandoned
	}
	if ch.AbandonedAt != nil {
		t := *ch.AbandonedAt
		c.AbandonedAt = &t
	}
}

// MarkAbandoned builds the update that flags a contact as abandoned at t.
func MarkAbandoned(t time.Time) Changes {
	yes := true
	return Changes{Abandoned: &yes, AbandonedAt: &t}
}
