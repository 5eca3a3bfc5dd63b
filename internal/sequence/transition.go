package sequence

import (
	"time"

	"github.com/ignite/campus-outreach/internal/domain"
)

// Transition is the state change caused by one successful send.
type Transition struct {
	FromStep  int
	ToStep    int
	SentAt    time.Time
	SetFirst  bool
	Completed bool
	Subject   string
	Body      string
}

// Advance computes the transition for a send of step c.SequenceStep at sentAt.
// The first-send timestamp is only ever set once.
func (p Policy) Advance(c *domain.Contact, sentAt time.Time, subject, body string) Transition {
	next := c.SequenceStep + 1
	return Transition{
		FromStep:  c.SequenceStep,
		ToStep:    next,
		SentAt:    sentAt,
		SetFirst:  c.FirstEmailSentAt == nil,
		Completed: next >= p.MaxSteps,
		Subject:   subject,
		Body:      body,
	}
}

// Apply writes the transition onto an in-memory copy of the contact.
func (t Transition) Apply(c *domain.Contact) {
	sent := t.SentAt
	c.SequenceStep = t.ToStep
	c.LastEmailSentAt = &sent
	if t.SetFirst {
		first := t.SentAt
		c.FirstEmailSentAt = &first
	}
	if t.Completed {
		c.SequenceCompleted = true
	}
	c.LastEmailSubject = t.Subject
	c.LastEmailBody = t.Body
}
