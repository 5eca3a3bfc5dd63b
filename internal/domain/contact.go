package domain

import (
	"strings"
	"time"
)

// Contact is one discovered lead: an event page, the address found on it, and
// the state of the outreach sequence sent to that address.
//
// Records are created once by lead capture and afterwards mutated only by the
// outreach dispatcher. They are never deleted.
type Contact struct {
	ID           string    `json:"id" db:"id"`
	URL          string    `json:"url" db:"url"`
	Title        string    `json:"title" db:"title"`
	ContactEmail string    `json:"contact_email" db:"contact_email"`
	Source       string    `json:"source" db:"source"`
	Category     string    `json:"category,omitempty" db:"category"`
	Segment      string    `json:"segment,omitempty" db:"segment"`
	ScrapedAt    time.Time `json:"scraped_at" db:"scraped_at"`

	SequenceStep      int        `json:"sequence_step" db:"sequence_step"`
	FirstEmailSentAt  *time.Time `json:"first_email_sent_at,omitempty" db:"first_email_sent_at"`
	LastEmailSentAt   *time.Time `json:"last_email_sent_at,omitempty" db:"last_email_sent_at"`
	LastEmailSubject  string     `json:"last_email_subject,omitempty" db:"last_email_subject"`
	LastEmailBody     string     `json:"last_email_body,omitempty" db:"last_email_body"`
	SequenceCompleted bool       `json:"sequence_completed,omitempty" db:"sequence_completed"`

	DoNotContact   bool       `json:"do_not_contact,omitempty" db:"do_not_contact"`
	StopSequence   bool       `json:"stop_sequence,omitempty" db:"stop_sequence"`
	BounceDetected bool       `json:"bounce_detected,omitempty" db:"bounce_detected"`
	Abandoned      bool       `json:"abandoned,omitempty" db:"abandoned"`
	AbandonedAt    *time.Time `json:"abandoned_at,omitempty" db:"abandoned_at"`

	ManuallyReplied   bool       `json:"manually_replied,omitempty" db:"manually_replied"`
	ManuallyRepliedAt *time.Time `json:"manually_replied_at,omitempty" db:"manually_replied_at"`
}

// Email returns the trimmed contact address.
func (c *Contact) Email() string {
	return strings.TrimSpace(c.ContactEmail)
}

// HasEmail reports whether the record carries something that looks like an address.
func (c *Contact) HasEmail() bool {
	return strings.Contains(c.Email(), "@")
}

// Domain returns the lower-cased recipient domain, or "" when there is no address.
func (c *Contact) Domain() string {
	return EmailDomain(c.Email())
}

// Suppressed reports whether any terminal flag is set on the record.
// Suppressed records never receive another message.
func (c *Contact) Suppressed() bool {
	_, flagged := c.Suppression()
	return flagged || c.SequenceCompleted || c.Abandoned
}

// Clone returns a deep copy so callers can hand records across package
// boundaries without sharing timestamp pointers.
func (c *Contact) Clone() *Contact {
	cp := *c
	cp.FirstEmailSentAt = cloneTime(c.FirstEmailSentAt)
	cp.LastEmailSentAt = cloneTime(c.LastEmailSentAt)
	cp.AbandonedAt = cloneTime(c.AbandonedAt)
	cp.ManuallyRepliedAt = cloneTime(c.ManuallyRepliedAt)
	return &cp
}

// EmailDomain returns the part after the last "@", lower-cased.
func EmailDomain(email string) string {
	i := strings.LastIndex(email, "@")
	if i < 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[i+1:]))
}

// CategoryFor derives the analytics category tag from a campaign key
// ("trio_leadership_agent" → "trio_leadership").
func CategoryFor(campaign string) string {
	return strings.ReplaceAll(campaign, "_agent", "")
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
