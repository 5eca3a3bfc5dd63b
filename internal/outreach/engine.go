// Package outreach runs the daily follow-up sequence: it scans the contact
// store, selects who is due, sends and records progress, then mails a summary.
package outreach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/campus-outreach/internal/calendar"
	"github.com/ignite/campus-outreach/internal/compose"
	"github.com/ignite/campus-outreach/internal/config"
	"github.com/ignite/campus-outreach/internal/contacts"
	"github.com/ignite/campus-outreach/internal/domain"
	"github.com/ignite/campus-outreach/internal/pkg/distlock"
	"github.com/ignite/campus-outreach/internal/pkg/logger"
	"github.com/ignite/campus-outreach/internal/report"
	"github.com/ignite/campus-outreach/internal/sequence"
	"github.com/ignite/campus-outreach/internal/throttle"
)

// ErrNoTestRecipient is returned when test mode has nowhere to send.
var ErrNoTestRecipient = errors.New("TEST_MODE but no test recipient configured")

// TestTitle is the event title used for the test-mode sample.
const TestTitle = "TEST Leadership Summit – DO NOT USE"

// Run messages.
const (
	MsgWeekend      = "Weekend. No outreach sent."
	MsgHoliday      = "US federal holiday. No outreach sent."
	MsgBeforeGoLive = "Before GO_LIVE_DATE. No outreach sent yet."
	MsgNoRecipient  = "TEST_MODE but no test recipient configured."
	MsgLeaseHeld    = "Another outreach run is in progress."
	MsgCompleted    = "Daily outreach completed."
	MsgScanFailed   = "Contact scan failed. No outreach sent."
	MsgReplyStats   = "Reply stats report generated."
)

// Archive stores a run result for later inspection.
// *storage.ReportArchive satisfies it.
type Archive interface {
	Save(ctx context.Context, kind, runID string, day time.Time, v interface{}) (string, error)
}

// LockFunc returns the lease guarding a run key.
type LockFunc func(key string) distlock.DistLock

// Deps are the collaborators an Engine needs.
type Deps struct {
	Store   contacts.Store
	Sender  Sender
	Lock    LockFunc // nil uses a process-local lock
	Archive Archive  // nil disables archiving
	Pacer   Pacer    // nil uses the configured random delay
	Logger  *logger.Logger
	Now     func() time.Time // send timestamps; nil uses time.Now
	NewID   func() string    // run ids; nil uses UUIDs
}

// Engine runs one outreach sequence. Every sequence has its own limits,
// length and templates; the code path is shared.
type Engine struct {
	key      string
	seq      config.SequenceConfig
	store    contacts.Store
	sender   Sender
	composer *compose.Composer
	gate     calendar.Gate
	policy   sequence.Policy
	loc      *time.Location
	zone     string
	testMode bool
	from     string
	reportTo string
	testTo   string
	period   report.Period
	lock     LockFunc
	archive  Archive
	pacer    Pacer
	log      *logger.Logger
	now      func() time.Time
	newID    func() string
}

// NewEngine builds the engine for the sequence named key. Only
// configuration problems are returned.
func NewEngine(cfg *config.Config, key string, deps Deps) (*Engine, error) {
	if key == "" {
		key = cfg.Outreach.DefaultSequence
	}
	seq, err := cfg.Sequence(key)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Outreach.Location()
	if err != nil {
		return nil, err
	}

	templates := compose.DefaultTemplates()
	if len(seq.Templates) > 0 {
		templates = make([]compose.Template, len(seq.Templates))
		for i, t := range seq.Templates {
			templates[i] = compose.Template{Subject: t.Subject, Body: t.Body}
		}
	}
	composer, err := compose.New(templates, seq.Signature)
	if err != nil {
		return nil, fmt.Errorf("sequence %q: %w", key, err)
	}

	e := &Engine{
		key:      key,
		seq:      seq,
		store:    deps.Store,
		sender:   deps.Sender,
		composer: composer,
		gate:     calendar.NewGate(seq.GoLive(loc), loc),
		policy: sequence.Policy{
			MaxSteps:             seq.MaxSequenceSteps,
			InitialFollowupDays:  seq.InitialFollowupDays,
			FollowupIntervalDays: seq.FollowupIntervalDays,
			AbandonAfterDays:     seq.AbandonAfterDays,
			Location:             loc,
		},
		loc:      loc,
		zone:     cfg.Outreach.Timezone,
		testMode: cfg.Outreach.TestMode,
		from:     strings.TrimSpace(cfg.Email.From),
		reportTo: strings.TrimSpace(cfg.Email.ReportRecipient()),
		testTo:   strings.TrimSpace(cfg.Email.TestRecipientAddress()),
		period:   report.ParsePeriod(cfg.Reports.ReplyPeriod),
		lock:     deps.Lock,
		archive:  deps.Archive,
		pacer:    deps.Pacer,
		log:      deps.Logger,
		now:      deps.Now,
		newID:    deps.NewID,
	}
	if e.lock == nil {
		e.lock = func(k string) distlock.DistLock { return distlock.NewLocalLock(k) }
	}
	if e.pacer == nil {
		lo, hi := cfg.Outreach.SendDelay()
		e.pacer = RandomPacer{Min: lo, Max: hi}
	}
	if e.log == nil {
		e.log = logger.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if e.zone == "" {
		e.zone = loc.String()
	}
	return e, nil
}

// Key returns the sequence name.
func (e *Engine) Key() string { return e.key }

// RunDaily performs one daily outreach pass at now. Everything except a
// configuration error is reported through the result's message and counters.
func (e *Engine) RunDaily(ctx context.Context, now time.Time) (res domain.RunResult, err error) {
	start := time.Now()
	day := e.gate.Today(now)
	res = domain.RunResult{
		RunID:     e.newID(),
		Kind:      domain.RunOutreach,
		Campaign:  e.key,
		Date:      day.Format("2006-01-02"),
		StartedAt: now,
	}
	log := e.log.With("run_id", res.RunID, "sequence", e.key)
	defer func() { res.Duration = time.Since(start).Round(time.Millisecond).String() }()

	if e.from == "" {
		res.Message = config.ErrMissingSender.Error()
		return res, config.ErrMissingSender
	}

	switch e.gate.Check(now, false) {
	case calendar.Weekend:
		log.Info("weekend, skipping outreach", "date", res.Date)
		res.Message = MsgWeekend
		return res, nil
	case calendar.Holiday:
		_, name := calendar.IsHoliday(day)
		log.Info("federal holiday, skipping outreach", "date", res.Date, "holiday", name)
		res.Message = MsgHoliday
		return res, nil
	}

	if e.testMode {
		return e.runTest(ctx, log, res)
	}

	if e.gate.Check(now, true) == calendar.BeforeGoLive {
		log.Info("before go-live, skipping outreach", "date", res.Date, "go_live", e.seq.GoLiveDate)
		res.Message = MsgBeforeGoLive
		return res, nil
	}

	lease := e.lock(distlock.RunKey(e.key))
	held, err := lease.Acquire(ctx)
	switch {
	case err != nil:
		// Conditional step updates still prevent double-advancing a contact.
		log.Warn("run lease unavailable, continuing without it", "error", err)
	case !held:
		log.Warn("another run holds the lease")
		res.Message = MsgLeaseHeld
		return res, nil
	default:
		defer func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("releasing run lease", "error", err)
			}
		}()
	}

	items, err := e.store.Scan(ctx)
	if err != nil {
		log.Error("contact scan failed", "error", err)
		res.Message = MsgScanFailed
		return res, nil
	}
	log.Info("scanned contacts", "count", len(items))

	tc := throttle.New(e.seq.DailyTotalLimit, e.seq.MaxPerDomainPerDay)
	sel := NewSelector(e.policy, tc, e.seq.OnlyEduEmails, e.seq.EduSuffix, e.seq.Sources)
	disp := NewDispatcher(e.sender, e.store, tc, e.pacer, log, e.now)
	summary := report.NewSummary(day)
	res.Skipped = map[string]int{}

	for i := range items {
		if ctx.Err() != nil {
			log.Warn("run cancelled", "error", ctx.Err())
			break
		}
		c := &items[i]
		dec := sel.Decide(c, now)
		if dec.Stop {
			break
		}
		if dec.MarkAbandoned {
			e.markAbandoned(ctx, log, c)
		}
		if !dec.Send() {
			if dec.Skip == SkipSuppressed {
				log.Debug("contact suppressed", "id", c.ID, "reason", dec.Eligibility.Reason)
			}
			res.Skipped[string(dec.Skip)]++
			continue
		}

		msg, err := e.composer.Compose(c.SequenceStep, c.Title)
		if err != nil {
			log.Error("compose failed", "id", c.ID, "step", c.SequenceStep, "error", err)
			res.Skipped[string(SkipCompose)]++
			continue
		}

		d := disp.Dispatch(ctx, dec, msg, e.policy)
		if !d.Sent {
			res.Failed++
			continue
		}
		summary.Add(d.Detail)
		res.Details = append(res.Details, d.Detail)
	}

	res.SentTotal = summary.Total
	res.ByStep = summary.ByStep
	res.ByDomain = summary.ByDomain
	res.Message = MsgCompleted
	log.Info("daily outreach completed", "sent", res.SentTotal, "failed", res.Failed)

	if e.reportTo != "" {
		if err := e.sender.Send(ctx, e.reportTo, report.DailySubject(day), report.RenderDaily(summary, e.zone)); err != nil {
			log.Warn("sending daily summary failed", "to", e.reportTo, "error", err)
		}
	}
	e.save(ctx, log, string(domain.RunOutreach), res.RunID, day, &res)
	return res, nil
}

func (e *Engine) runTest(ctx context.Context, log *logger.Logger, res domain.RunResult) (domain.RunResult, error) {
	if e.testTo == "" {
		res.Message = MsgNoRecipient
		return res, ErrNoTestRecipient
	}
	msg, err := e.composer.Compose(0, TestTitle)
	if err != nil {
		return res, fmt.Errorf("composing test message: %w", err)
	}
	status := "sent"
	if err := e.sender.Send(ctx, e.testTo, msg.Subject, msg.Body); err != nil {
		log.Warn("test send failed", "to", e.testTo, "error", err)
		status = "failed"
	} else {
		res.SentTotal = 1
	}
	res.Message = fmt.Sprintf("TEST_MODE: %s sample email.", status)
	res.TestTo = e.testTo
	return res, nil
}

func (e *Engine) markAbandoned(ctx context.Context, log *logger.Logger, c *domain.Contact) {
	ch := contacts.MarkAbandoned(e.now().Truncate(time.Second))
	if err := e.store.Update(ctx, c.ID, ch); err != nil {
		log.Warn("marking contact abandoned failed", "id", c.ID, "error", err)
		return
	}
	ch.Apply(c)
	log.Info("contact abandoned", "id", c.ID, "email", c.Email())
}

// RunReplyStats counts the replies recorded in the configured window and
// mails the report.
func (e *Engine) RunReplyStats(ctx context.Context, now time.Time) (domain.ReplyStats, error) {
	out := domain.ReplyStats{
		RunID:      e.newID(),
		Period:     string(e.period),
		WindowDays: e.period.Days(),
	}
	log := e.log.With("run_id", out.RunID, "sequence", e.key)

	items, err := e.store.Scan(ctx)
	if err != nil {
		log.Error("contact scan failed", "error", err)
		out.Message = "Contact scan failed. No report generated."
		return out, nil
	}

	st := report.BuildReplyStats(items, now, e.period, e.loc)
	out.Message = MsgReplyStats
	out.From = st.Start.Format("2006-01-02")
	out.To = st.Today.Format("2006-01-02")
	out.TotalReplies = st.Total
	out.FastReplies = st.Fast
	out.BySource = st.BySource
	out.ByStep = st.ByStep
	log.Info("reply stats computed", "period", out.Period, "total", st.Total, "fast", st.Fast)

	if e.reportTo != "" {
		if err := e.sender.Send(ctx, e.reportTo, report.ReplySubject(st.Today), report.RenderReplyStats(st, e.zone)); err != nil {
			log.Warn("sending reply stats failed", "to", e.reportTo, "error", err)
		}
	}
	e.save(ctx, log, string(domain.RunReplyStats), out.RunID, st.Today, &out)
	return out, nil
}

func (e *Engine) save(ctx context.Context, log *logger.Logger, kind, runID string, day time.Time, v interface{}) {
	if e.archive == nil {
		return
	}
	key, err := e.archive.Save(ctx, kind, runID, day, v)
	if err != nil {
		log.Warn("archiving run result failed", "kind", kind, "error", err)
		return
	}
	log.Debug("run result archived", "key", key)
}
