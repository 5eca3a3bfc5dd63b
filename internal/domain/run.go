package domain

import "time"

// RunKind identifies which batch job produced a result.
type RunKind string

const (
	RunOutreach   RunKind = "outreach"
	RunReplyStats RunKind = "reply_stats"
	RunCapture    RunKind = "capture"
)

// SendDetail describes one message that left during a run.
type SendDetail struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Domain           string `json:"domain"`
	Step             int    `json:"step"` // human-facing: 1 for the first email
	Title            string `json:"title"`
	StateWriteFailed bool   `json:"state_write_failed,omitempty"`
}

// RunResult is the structured outcome every outreach invocation returns,
// including partial failures.
type RunResult struct {
	RunID     string         `json:"run_id"`
	Kind      RunKind        `json:"kind"`
	Campaign  string         `json:"campaign,omitempty"`
	Message   string         `json:"message"`
	Date      string         `json:"date"`
	SentTotal int            `json:"sent_total"`
	ByStep    map[int]int    `json:"by_step,omitempty"`
	ByDomain  map[string]int `json:"by_domain,omitempty"`
	Skipped   map[string]int `json:"skipped,omitempty"`
	Failed    int            `json:"failed,omitempty"`
	Details   []SendDetail   `json:"details,omitempty"`
	TestTo    string         `json:"to,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	Duration  string         `json:"duration"`
}

// ReplyStats is the outcome of the reply statistics report.
type ReplyStats struct {
	RunID        string         `json:"run_id"`
	Message      string         `json:"message"`
	Period       string         `json:"period"`
	WindowDays   int            `json:"window_days"`
	From         string         `json:"from"`
	To           string         `json:"to"`
	TotalReplies int            `json:"total_replies"`
	FastReplies  int            `json:"fast_replies"`
	BySource     map[string]int `json:"by_source,omitempty"`
	ByStep       map[int]int    `json:"by_step,omitempty"`
}

// CaptureResult is the outcome of one lead capture pass over a campaign.
type CaptureResult struct {
	RunID      string `json:"run_id"`
	Campaign   string `json:"source"`
	Message    string `json:"message"`
	Saved      int    `json:"saved"`
	Duplicates int    `json:"duplicates"`
	NoEmail    int    `json:"no_email"`
	Errors     int    `json:"errors"`
}
