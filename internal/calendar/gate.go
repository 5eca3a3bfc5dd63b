// Package calendar decides whether a given day is a business day on which
// outreach may be sent.
package calendar

import "time"

// Verdict is the outcome of a gate check.
type Verdict int

const (
	Open Verdict = iota
	Weekend
	Holiday
	BeforeGoLive
)

func (v Verdict) String() string {
	switch v {
	case Open:
		return "open"
	case Weekend:
		return "weekend"
	case Holiday:
		return "holiday"
	case BeforeGoLive:
		return "before_go_live"
	}
	return "unknown"
}

// Gate evaluates dates in Location against the weekend, holiday and go-live
// rules. A zero GoLive disables the go-live rule.
type Gate struct {
	GoLive   time.Time
	Location *time.Location
}

// NewGate returns a gate for loc, defaulting to UTC when loc is nil.
func NewGate(goLive time.Time, loc *time.Location) Gate {
	if loc == nil {
		loc = time.UTC
	}
	return Gate{GoLive: goLive, Location: loc}
}

// Today returns the calendar date of now in the gate's location.
func (g Gate) Today(now time.Time) time.Time {
	return Day(now, g.loc())
}

// Check applies weekend, holiday and, when respectGoLive is set, go-live
// rules in that order.
func (g Gate) Check(t time.Time, respectGoLive bool) Verdict {
	day := g.Today(t)
	if IsWeekend(day) {
		return Weekend
	}
	if ok, _ := IsHoliday(day); ok {
		return Holiday
	}
	if respectGoLive && !g.GoLive.IsZero() && day.Before(Day(g.GoLive, g.loc())) {
		return BeforeGoLive
	}
	return Open
}

// IsOutreachDay reports whether t is a weekday that is not a holiday.
func (g Gate) IsOutreachDay(t time.Time) bool {
	return g.Check(t, false) == Open
}

func (g Gate) loc() *time.Location {
	if g.Location == nil {
		return time.UTC
	}
	return g.Location
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Day truncates t to midnight of its calendar date in loc. The result is
// expressed in UTC so that dates from different zones compare by date only.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween is the number of calendar days from a to b, both read in loc.
func DaysBetween(a, b time.Time, loc *time.Location) int {
	return int(Day(b, loc).Sub(Day(a, loc)).Hours() / 24)
}
