package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/campus-outreach/internal/config"
	"github.com/ignite/campus-outreach/internal/domain"
	"github.com/ignite/campus-outreach/internal/pkg/httputil"
	"github.com/ignite/campus-outreach/internal/pkg/logger"
)

// Runner executes batch jobs. *app.App satisfies it.
type Runner interface {
	RunOutreach(ctx context.Context, sequence string) (domain.RunResult, error)
	RunReplies(ctx context.Context, sequence string) (domain.ReplyStats, error)
	RunCapture(ctx context.Context, campaign string) (domain.CaptureResult, error)
	CampaignKeys() []string
	SequenceKeys() []string
}

// Handlers contains the HTTP handlers for the trigger API
type Handlers struct {
	runner Runner
}

// NewHandlers creates a new handlers instance
func NewHandlers(runner Runner) *Handlers {
	return &Handlers{runner: runner}
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

// runContext detaches a run from the request so a dropped client does not
// abort a batch halfway through.
func runContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// RunOutreach runs the daily outreach pass.
//
//	POST /runs/outreach?sequence=<key>
func (h *Handlers) RunOutreach(w http.ResponseWriter, r *http.Request) {
	res, err := h.runner.RunOutreach(runContext(r), r.URL.Query().Get("sequence"))
	if err != nil {
		writeRunError(w, err)
		return
	}
	httputil.OK(w, res)
}

// RunReplies builds the reply stats report.
//
//	POST /runs/replies?sequence=<key>
func (h *Handlers) RunReplies(w http.ResponseWriter, r *http.Request) {
	res, err := h.runner.RunReplies(runContext(r), r.URL.Query().Get("sequence"))
	if err != nil {
		writeRunError(w, err)
		return
	}
	httputil.OK(w, res)
}

// RunCapture runs lead capture for one campaign.
//
//	POST /runs/capture/{campaign}
func (h *Handlers) RunCapture(w http.ResponseWriter, r *http.Request) {
	res, err := h.runner.RunCapture(runContext(r), chi.URLParam(r, "campaign"))
	if err != nil {
		writeRunError(w, err)
		return
	}
	httputil.OK(w, res)
}

// ListCampaigns returns the configured capture campaigns.
//
//	GET /campaigns
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{"campaigns": h.runner.CampaignKeys()})
}

// ListSequences returns the configured outreach sequences.
//
//	GET /sequences
func (h *Handlers) ListSequences(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{"sequences": h.runner.SequenceKeys()})
}

// writeRunError maps run errors: unknown keys are 404, every other error a
// run returns is a configuration problem and is reported as 500 with its
// message.
func writeRunError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, config.ErrUnknownCampaign), errors.Is(err, config.ErrUnknownSequence):
		httputil.NotFound(w, err.Error())
	default:
		logger.Error("run aborted by configuration error", "error", err)
		httputil.ErrorWithCode(w, http.StatusInternalServerError, "configuration_error", err.Error(), nil)
	}
}
