package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/ignite/campus-outreach/internal/calendar"
	"github.com/ignite/campus-outreach/internal/domain"
)

// Period selects the reply report window.
type Period string

const (
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

// FastReplyDays is the largest gap between first send and reply that counts
// as a fast reply.
const FastReplyDays = 2

// ParsePeriod maps a configured value to a period. Anything but "monthly"
// is weekly.
func ParsePeriod(s string) Period {
	if strings.EqualFold(strings.TrimSpace(s), string(Monthly)) {
		return Monthly
	}
	return Weekly
}

// Days is the window length.
func (p Period) Days() int {
	if p == Monthly {
		return 30
	}
	return 7
}

// ReplyStats counts manually recorded replies inside a window.
type ReplyStats struct {
	Period   Period
	Start    time.Time
	Today    time.Time
	Total    int
	Fast     int
	BySource map[string]int
	ByStep   map[int]int
}

// BuildReplyStats counts contacts marked as replied whose reply date lies in
// [today-window, today], both ends inclusive, with dates read in loc.
func BuildReplyStats(contacts []domain.Contact, now time.Time, period Period, loc *time.Location) ReplyStats {
	today := calendar.Day(now, loc)
	st := ReplyStats{
		Period:   period,
		Start:    today.AddDate(0, 0, -period.Days()),
		Today:    today,
		BySource: map[string]int{},
		ByStep:   map[int]int{},
	}
	for i := range contacts {
		c := &contacts[i]
		if !c.ManuallyReplied || c.ManuallyRepliedAt == nil {
			continue
		}
		replied := calendar.Day(*c.ManuallyRepliedAt, loc)
		if replied.Before(st.Start) || replied.After(today) {
			continue
		}
		st.Total++

		source := c.Source
		if source == "" {
			source = "unknown"
		}
		st.BySource[source]++
		st.ByStep[c.SequenceStep]++

		if c.FirstEmailSentAt != nil && calendar.DaysBetween(*c.FirstEmailSentAt, *c.ManuallyRepliedAt, loc) <= FastReplyDays {
			st.Fast++
		}
	}
	return st
}

// ReplySubject is the subject line of the reply stats mail.
func ReplySubject(day time.Time) string {
	return "Speaking Outreach Reply Stats – " + day.Format("2006-01-02")
}

// RenderReplyStats formats the report body.
func RenderReplyStats(st ReplyStats, zone string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reply stats report (%s) – %s (%s)\n\n", st.Period, st.Today.Format("2006-01-02"), zone)
	fmt.Fprintf(&b, "Window: last %d days (%s to %s)\n\n", st.Period.Days(),
		st.Start.Format("2006-01-02"), st.Today.Format("2006-01-02"))
	fmt.Fprintf(&b, "Total replies recorded: %d\n", st.Total)
	fmt.Fprintf(&b, "Fast replies (<= %d days from first email): %d\n\n", FastReplyDays, st.Fast)

	if len(st.BySource) > 0 {
		b.WriteString("Replies by agent/source (top 15):\n")
		for _, kv := range Top(st.BySource, topN) {
			fmt.Fprintf(&b, "  %s: %d\n", kv.Key, kv.Count)
		}
		b.WriteString("\n")
	}
	if len(st.ByStep) > 0 {
		b.WriteString("Replies by sequence email number:\n")
		for _, step := range sortedSteps(st.ByStep) {
			label := fmt.Sprintf("Email #%d", step)
			if step <= 0 {
				label = "Email #0 (pre-sequence?)"
			}
			fmt.Fprintf(&b, "  %s: %d\n", label, st.ByStep[step])
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
