// Package sequence holds the follow-up state machine: which step a contact is
// on, when the next step becomes due, and what changes after a send.
package sequence

import (
	"time"

	"github.com/ignite/campus-outreach/internal/calendar"
	"github.com/ignite/campus-outreach/internal/domain"
)

// Status classifies a contact for the current run.
type Status int

const (
	Due Status = iota
	NotDue
	Suppressed
	Completed
	Abandoned
	Malformed
)

func (s Status) String() string {
	switch s {
	case Due:
		return "due"
	case NotDue:
		return "not_due"
	case Suppressed:
		return "suppressed"
	case Completed:
		return "completed"
	case Abandoned:
		return "abandoned"
	case Malformed:
		return "malformed"
	}
	return "unknown"
}

// DefaultAbandonAfterDays is the window after the first send beyond which a
// contact is never messaged again.
const DefaultAbandonAfterDays = 30

// Policy is the timing configuration of one sequence.
type Policy struct {
	MaxSteps             int
	InitialFollowupDays  int
	FollowupIntervalDays int
	AbandonAfterDays     int
	Location             *time.Location
}

// Eligibility is the outcome of Evaluate.
type Eligibility struct {
	Status Status
	Step   int
	// Reason is set when Status is Suppressed.
	Reason domain.SuppressionReason
	// DaysSinceFirst and DaysSinceLast are -1 when the timestamp is absent.
	DaysSinceFirst int
	DaysSinceLast  int
}

// Evaluate decides whether c is due on the calendar date of today. Checks
// run in a fixed order: terminal flags, step bound, abandonment window, then
// the follow-up interval for the current step.
func (p Policy) Evaluate(c *domain.Contact, today time.Time) Eligibility {
	e := Eligibility{Step: c.SequenceStep, DaysSinceFirst: -1, DaysSinceLast: -1}

	if reason, ok := c.Suppression(); ok {
		e.Status, e.Reason = Suppressed, reason
		return e
	}
	switch {
	case c.SequenceCompleted:
		e.Status = Completed
		return e
	case c.Abandoned:
		e.Status = Abandoned
		return e
	}

	if c.SequenceStep < 0 {
		e.Status = Malformed
		return e
	}
	if c.SequenceStep >= p.MaxSteps {
		e.Status = Completed
		return e
	}

	if c.FirstEmailSentAt != nil {
		e.DaysSinceFirst = calendar.DaysBetween(*c.FirstEmailSentAt, today, p.Location)
		if e.DaysSinceFirst > p.abandonAfter() {
			e.Status = Abandoned
			return e
		}
	}

	if c.SequenceStep == 0 {
		e.Status = Due
		return e
	}

	if c.LastEmailSentAt == nil {
		e.Status = Malformed
		return e
	}
	e.DaysSinceLast = calendar.DaysBetween(*c.LastEmailSentAt, today, p.Location)

	wait := p.FollowupIntervalDays
	if c.SequenceStep == 1 {
		wait = p.InitialFollowupDays
	}
	if e.DaysSinceLast >= wait {
		e.Status = Due
	} else {
		e.Status = NotDue
	}
	return e
}

func (p Policy) abandonAfter() int {
	if p.AbandonAfterDays <= 0 {
		return DefaultAbandonAfterDays
	}
	return p.AbandonAfterDays
}
