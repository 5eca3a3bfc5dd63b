package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ignite/campus-outreach/internal/app"
	"github.com/ignite/campus-outreach/internal/config"
	"github.com/ignite/campus-outreach/internal/domain"
	"github.com/ignite/campus-outreach/internal/outreach"
)

// Exit codes for CLI commands.
const (
	ExitSuccess     = 0
	ExitFailure     = 1 // run or transport failure
	ExitConfigError = 2 // bad flags, bad configuration, unknown keys
)

// ExitError carries the process exit code for an error.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// classify wraps err with the exit code its cause deserves.
func classify(message string, err error) *ExitError {
	if isConfigError(err) {
		return WrapExitError(ExitConfigError, message, err)
	}
	return WrapExitError(ExitFailure, message, err)
}

func isConfigError(err error) bool {
	for _, target := range []error{
		config.ErrInvalid,
		config.ErrMissingSender,
		config.ErrUnknownSequence,
		config.ErrUnknownCampaign,
		app.ErrUnknownStorage,
		outreach.ErrNoTestRecipient,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// CLIResponse is the JSON envelope for every command.
type CLIResponse struct {
	Status string      `json:"status"` // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// Success writes data as JSON, or calls text for human-readable output.
func (f *OutputFormatter) Success(data interface{}, text func(w io.Writer)) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	text(f.Writer)
	return nil
}

// Error writes a failure in the configured format.
func (f *OutputFormatter) Error(err error) {
	if f.Format == "json" {
		_ = json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "error", Error: err.Error()})
		return
	}
	fmt.Fprintf(f.Writer, "Error: %v\n", err)
}

func writeRun(w io.Writer, r domain.RunResult) {
	fmt.Fprintln(w, r.Message)
	if r.RunID != "" {
		fmt.Fprintf(w, "run:      %s (%s)\n", r.RunID, r.Duration)
	}
	if r.TestTo != "" {
		fmt.Fprintf(w, "test to:  %s\n", r.TestTo)
	}
	if r.SentTotal > 0 || len(r.Skipped) > 0 || r.Failed > 0 {
		fmt.Fprintf(w, "sent:     %d\n", r.SentTotal)
	}
	if len(r.ByStep) > 0 {
		steps := make([]int, 0, len(r.ByStep))
		for s := range r.ByStep {
			steps = append(steps, s)
		}
		sort.Ints(steps)
		parts := make([]string, 0, len(steps))
		for _, s := range steps {
			parts = append(parts, fmt.Sprintf("#%d=%d", s, r.ByStep[s]))
		}
		fmt.Fprintf(w, "by step:  %s\n", strings.Join(parts, " "))
	}
	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "skipped:  %s\n", joinCounts(r.Skipped))
	}
	if r.Failed > 0 {
		fmt.Fprintf(w, "failed:   %d\n", r.Failed)
	}
}

func writeReplies(w io.Writer, r domain.ReplyStats) {
	fmt.Fprintln(w, r.Message)
	if r.Period == "" {
		return
	}
	fmt.Fprintf(w, "window:   %s to %s (%s)\n", r.From, r.To, r.Period)
	fmt.Fprintf(w, "replies:  %d (%d within 2 days)\n", r.TotalReplies, r.FastReplies)
	if len(r.BySource) > 0 {
		fmt.Fprintf(w, "sources:  %s\n", joinCounts(r.BySource))
	}
}

func writeCapture(w io.Writer, results []domain.CaptureResult) {
	for _, r := range results {
		fmt.Fprintln(w, r.Message)
		fmt.Fprintf(w, "  saved=%d duplicates=%d no_email=%d errors=%d\n", r.Saved, r.Duplicates, r.NoEmail, r.Errors)
	}
}

func joinCounts(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, m[k]))
	}
	return strings.Join(parts, " ")
}
