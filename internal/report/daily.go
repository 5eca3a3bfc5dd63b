// Package report renders the plain-text summaries mailed after each run.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ignite/campus-outreach/internal/domain"
)

const (
	topN           = 15
	sampleSize     = 10
	sampleTitleLen = 120
)

// Summary aggregates the sends of one daily run.
type Summary struct {
	Date     time.Time
	Total    int
	ByStep   map[int]int // keyed by human step, 1 for the first email
	ByDomain map[string]int
	Details  []domain.SendDetail
}

// NewSummary starts an empty summary for the calendar date day.
func NewSummary(day time.Time) *Summary {
	return &Summary{Date: day, ByStep: map[int]int{}, ByDomain: map[string]int{}}
}

// Add records one successful send.
func (s *Summary) Add(d domain.SendDetail) {
	s.Total++
	s.ByStep[d.Step]++
	s.ByDomain[d.Domain]++
	s.Details = append(s.Details, d)
}

// DailySubject is the subject line of the daily summary mail.
func DailySubject(day time.Time) string {
	return "Daily Speaking Outreach Summary – " + day.Format("2006-01-02")
}

// RenderDaily formats the summary body.
func RenderDaily(s *Summary, zone string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Date: %s (%s)\n\n", s.Date.Format("2006-01-02"), zone)
	fmt.Fprintf(&b, "Total outreach emails sent: %d\n\n", s.Total)

	if len(s.ByStep) > 0 {
		b.WriteString("By sequence step:\n")
		for _, step := range sortedSteps(s.ByStep) {
			fmt.Fprintf(&b, "  Email #%d: %d\n", step, s.ByStep[step])
		}
		b.WriteString("\n")
	}
	if len(s.ByDomain) > 0 {
		b.WriteString("By domain (top 15):\n")
		for _, kv := range Top(s.ByDomain, topN) {
			fmt.Fprintf(&b, "  %s: %d\n", kv.Key, kv.Count)
		}
		b.WriteString("\n")
	}
	if len(s.Details) > 0 {
		b.WriteString("Sample of emails sent today (up to 10):\n")
		for i, d := range s.Details {
			if i == sampleSize {
				break
			}
			fmt.Fprintf(&b, "- %s | step %d | %s\n", d.Email, d.Step, truncate(d.Title, sampleTitleLen))
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Count is one row of a ranked table.
type Count struct {
	Key   string
	Count int
}

// Top returns the n largest entries of m, ties broken by key.
func Top(m map[string]int, n int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func sortedSteps(m map[int]int) []int {
	steps := make([]int, 0, len(m))
	for k := range m {
		steps = append(steps, k)
	}
	sort.Ints(steps)
	return steps
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
