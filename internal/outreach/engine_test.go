package outreach

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/campus-outreach/internal/config"
	"github.com/ignite/campus-outreach/internal/contacts"
	"github.com/ignite/campus-outreach/internal/domain"
	"github.com/ignite/campus-outreach/internal/pkg/distlock"
)

type sentMail struct {
	To, Subject, Body string
}

// recordingSender keeps every message and fails for addresses in fail.
type recordingSender struct {
	mu   sync.Mutex
	sent []sentMail
	fail map[string]bool
}

func (r *recordingSender) Send(_ context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[to] {
		return errors.New("provider rejected message")
	}
	r.sent = append(r.sent, sentMail{to, subject, body})
	return nil
}

func (r *recordingSender) to() []string {
	var out []string
	for _, m := range r.sent {
		out = append(out, m.To)
	}
	return out
}

type countingPacer struct{ n int }

func (p *countingPacer) Pause(context.Context) error { p.n++; return nil }

type archived struct {
	kind, runID string
	day         time.Time
}

type fakeArchive struct{ saved []archived }

func (a *fakeArchive) Save(_ context.Context, kind, runID string, day time.Time, _ interface{}) (string, error) {
	a.saved = append(a.saved, archived{kind, runID, day})
	return "reports/" + kind + "/" + runID + ".json", nil
}

// conflictStore rejects every conditional update.
type conflictStore struct {
	*contacts.MemoryStore
}

func (c conflictStore) Update(ctx context.Context, id string, ch contacts.Changes) error {
	if ch.IfStep != nil {
		return contacts.ErrConflict
	}
	return c.MemoryStore.Update(ctx, id, ch)
}

const sender = "tawan@example.com"

func eastern(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("US/Eastern")
	require.NoError(t, err)
	return loc
}

// tuesday is a regular business day after go-live.
func tuesday(t *testing.T) time.Time {
	return time.Date(2026, 3, 10, 8, 30, 0, 0, eastern(t))
}

func testConfig(mutate func(*config.SequenceConfig)) *config.Config {
	cfg := config.Default()
	cfg.Email.From = sender
	seq := cfg.Outreach.Sequences[config.DefaultSequenceKey]
	if mutate != nil {
		mutate(&seq)
	}
	cfg.Outreach.Sequences[config.DefaultSequenceKey] = seq
	return cfg
}

type harness struct {
	engine  *Engine
	store   *contacts.MemoryStore
	sender  *recordingSender
	pacer   *countingPacer
	archive *fakeArchive
}

func newHarness(t *testing.T, cfg *config.Config, store contacts.Store, mem *contacts.MemoryStore) *harness {
	t.Helper()
	h := &harness{store: mem, sender: &recordingSender{fail: map[string]bool{}}, pacer: &countingPacer{}, archive: &fakeArchive{}}
	e, err := NewEngine(cfg, "", Deps{
		Store:   store,
		Sender:  h.sender,
		Pacer:   h.pacer,
		Archive: h.archive,
		Now:     func() time.Time { return tuesday(t) },
		NewID:   func() string { return "run-1" },
	})
	require.NoError(t, err)
	h.engine = e
	return h
}

func setup(t *testing.T, cfg *config.Config, seed ...domain.Contact) *harness {
	mem := contacts.NewMemoryStore(seed...)
	return newHarness(t, cfg, mem, mem)
}

func lead(id, email string) domain.Contact {
	return domain.Contact{ID: id, ContactEmail: email, Title: "Leadership Summit " + id, Source: "leadership_summit_agent"}
}

func daysAgo(t *testing.T, n int) *time.Time {
	v := tuesday(t).AddDate(0, 0, -n)
	return &v
}

func TestRunDailyGlobalCapStopsScan(t *testing.T) {
	cfg := testConfig(func(s *config.SequenceConfig) { s.DailyTotalLimit = 2 })
	h := setup(t, cfg, lead("a", "a@one.edu"), lead("b", "b@two.edu"), lead("c", "c@three.edu"))

	res, err := h.engine.RunDaily(context.Background(), tuesday(t))
	require.NoError(t, err)

	assert.Equal(t, MsgCompleted, res.Message)
	assert.Equal(t, 2, res.SentTotal)
	assert.Equal(t, map[int]int{1: 2}, res.ByStep)
	assert.Equal(t, map[string]int{"one.edu": 1, "two.edu": 1}, res.ByDomain)
	assert.Equal(t, []string{"a@one.edu", "b@two.edu", sender}, h.sender.to())
	assert.Equal(t, 1, h.pacer.n, "pause only between sends")

	c, err := h.store.Get(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, 0, c.SequenceStep)
	assert.Nil(t, c.FirstEmailSentAt)

	a, err := h.store.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 1, a.SequenceStep)
	require.NotNil(t, a.FirstEmailSentAt)
	assert.True(t, a.FirstEmailSentAt.Equal(tuesday(t)))
	assert.True(t, a.LastEmailSentAt.Equal(tuesday(t)))
	assert.Contains(t, a.LastEmailSubject, "Leadership Summit a")
	assert.False(t, a.SequenceCompleted)

	summary := h.sender.sent[2]
	assert.Equal(t, "Daily Speaking Outreach Summary – 2026-03-10", summary.Subject)
	assert.Contains(t, summary.Body, "Total outreach emails sent: 2")

	require.Len(t, h.archive.saved, 1)
	assert.Equal(t, "outreach", h.archive.saved[0].kind)
	assert.Equal(t, "run-1", h.archive.saved[0].runID)
}

func TestRunDailyZeroCapSendsNothing(t *testing.T) {
	cfg := testConfig(func(s *config.SequenceConfig) { s.DailyTotalLimit = 0 })
	h := setup(t, cfg, lead("a", "a@one.edu"))

	res, err := h.engine.RunDaily(context.Background(), tuesday(t))
	require.NoError(t, err)

	assert.Equal(t, 0, res.SentTotal)
	assert.NotContains(t, h.sender.to(), "a@one.edu")

	a, err := h.store.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 0, a.SequenceStep)
}

func TestRunDailyDomainCapSkips(t *testing.T) {
	cfg := testConfig(func(s *config.SequenceConfig) { s.MaxPerDomainPerDay = 1 })
	h := setup(t, cfg, lead("a", "a@x.edu"), lead("b", "b@X.edu"), lead("c", "c@y.edu"))

	res, err := h.engine.RunDaily(context.Background(), tuesday(t))
	require.NoError(t, err)
	assert.Equal(t, 2, res.SentTotal)
	assert.Equal(t, 1, res.Skipped[string(SkipDomainCap)])
	assert.Equal(t, []string{"a@x.edu", "c@y.edu", sender}, h.sender.to())
}

func TestRunDailyFilters(t *testing.T) {
	cfg := testConfig(func(s *config.SequenceConfig) {
		s.OnlyEduEmails = true
		s.Sources = []string{"leadership_summit_agent"}
	})
	other := lead("o", "o@college.edu")
	other.Source = "officer_training_agent"
	h := setup(t, cfg,
		lead("a", "a@company.com"),
		lead("b", "not-an-address"),
		domain.Contact{ID: "c", Source: "leadership_summit_agent"},
		other,
		lead("d", "d@uni.edu"),
	)

	res, err := h.engine.RunDaily(context.Background(), tuesday(t))
	require.NoError(t, err)
	assert.Equal(t, 1, res.SentTotal)
	assert.Equal(t, map[string]int{"not_edu": 1, "no_email": 2, "other_source": 1}, res.Skipped)
}

func TestRunDailyFollowupTiming(t *testing.T) {
	h := setup(t, testConfig(nil),
		domain.Contact{ID: "early", ContactEmail: "a@a.edu", SequenceStep: 1, FirstEmailSentAt: daysAgo(t, 3), LastEmailSentAt: daysAgo(t, 3)},
		domain.Contact{ID: "due1", ContactEmail: "b@b.edu", SequenceStep: 1, FirstEmailSentAt: daysAgo(t, 4), LastEmailSentAt: daysAgo(t, 4)},
		domain.Contact{ID: "early2", ContactEmail: "c@c.edu", SequenceStep: 2, FirstEmailSentAt: daysAgo(t, 10), LastEmailSentAt: daysAgo(t, 6)},
		domain.Contact{ID: "due2", ContactEmail: "d@d.edu", SequenceStep: 2, FirstEmailSentAt: daysAgo(t, 11), LastEmailSentAt: daysAgo(t, 7)},
		domain.Contact{ID: "broken", ContactEmail: "e@e.edu", SequenceStep: 3},
	)

	res, err := h.engine.RunDaily(context.Background(), tuesday(t))
	require.NoError(t, err)
	assert.Equal(t, 2, res.SentTotal)
	assert.Equal(t, map[int]int{2: 1, 3: 1}, res.ByStep)
	assert.Equal(t, 2, res.Skipped[string(SkipNotDue)])
	assert.Equal(t, 1, res.Skipped[string(SkipMalformed)])

	due1, err := h.store.Get(context.Background(), "due1")
	require.NoError(t, err)
	assert.Equal(t, 2, due1.SequenceStep)
	assert.True(t, due1.FirstEmailSentAt.Equal(*daysAgo(t, 4)), "first send is never rewritten")
}

func TestRunDailyAbandonsAfterThirtyDays(t *testing.T) {
	h := setup(t, testConfig(nil),
		domain.Contact{ID: "old", ContactEmail: "a@a.edu", SequenceStep: 2, FirstEmailSentAt: daysAgo(t, 31), LastEmailSentAt: daysAgo(t, 8)},
		domain.Contact{ID: "edge", ContactEmail: "b@b.edu", SequenceStep: 2, FirstEmailSentAt: daysAgo(t, 30), LastEmailSentAt: daysAgo(t, 8)},
	)

	res, err := h.engine.RunDaily(context.Background(), tuesday(t))
	require.NoError(t, err)
	assert.Equal(t, 1, res.SentTotal)
	assert.Equal(t, 1, res.Skipped[string(SkipAbandoned)])

	old, err := h.store.Get(context.Background(), "old")
	require.NoError(t, err)
	assert.True(t, old.Abandoned)
	require.NotNil(t, old.AbandonedAt)
	assert.Equal(t, 2, old.SequenceStep)

	// A second run sees the flag and does not rewrite it.
	res, err = h.engine.RunDaily(context.Background(), tuesday(t))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped[string(SkipAbandoned)])
}

func TestRunDailyCompletesSequence(t *testing.T) {
	h := setup(t, testConfig(nil),
		domain.Contact{ID: "last", ContactEmail: "a@a.edu", SequenceStep: 4, FirstEmailSentAt: daysAgo(t, 25), LastEmailSentAt: daysAgo(t, 7)},
		domain.Contact{ID: "done", ContactEmail: "b@b.edu", SequenceStep: 5, FirstEmailSentAt: daysAgo(t, 20), LastEmailSentAt: daysAgo(t, 7)},
	)

	res, err := h.engine.RunDaily(context.Background(), tuesday(t))
	require.NoError(t, err)
	assert.Equal(t, 1, res.SentTotal)
	assert.Equal(t, map[int]int{5: 1}, res.ByStep)
	assert.Equal(t, 1, res.Skipped[string(SkipCompleted)])

	last, err := h.store.Get(context.Background(), "last")
	require.NoError(t, err)
	assert.Equal(t, 5, last.SequenceStep)
	assert.True(t, last.SequenceCompleted)
}

func TestRunDailySuppressedNeverSent(t *testing.T) {
	h := setup(t, testConfig(nil),
		domain.Contact{ID: "dnc", ContactEmail: "a@a.edu", DoNotContact: true},
		domain.Contact{ID: "stop", ContactEmail: "b@b.edu", StopSequence: true},
		domain.Contact{ID: "bounce", ContactEmail: "c@c.edu", BounceDetected: true},
	)
	res, err := h.engine.RunDaily(context.Background(), tuesday(t))
	require.NoError(t, err)
	assert.Zero(t, res.SentTotal)
	assert.Equal(t, 3, res.Skipped[string(SkipSuppressed)])
	assert.Equal(t, []string{sender}, h.sender.to())
}

func TestRunDailyFailedSendLeavesStateUnchanged(t *testing.T) {
	cfg := testConfig(func(s *config.SequenceConfig) { s.DailyTotalLimit = 1 })
	h := setup(t, cfg, lead("a", "a@a.edu"), lead("b", "b@b.edu"))
	h.sender.fail["a@a.edu"] = true

	res, err := h.engine.RunDaily(context.Background(), tuesday(t))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.SentTotal, "a failed send does not use up the daily total")
	assert.Equal(t, 0, h.pacer.n)

	a, err := h.store.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 0, a.SequenceStep)
	assert.Nil(t, a.LastEmailSentAt)

	b, err := h.store.Get(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, 1, b.SequenceStep)
}

func TestRunDailyConflictFlagsDetail(t *testing.T) {
	mem := contacts.NewMemoryStore(lead("a", "a@a.edu"))
	h := newHarness(t, testConfig(nil), conflictStore{mem}, mem)

	res, err := h.engine.RunDaily(context.Background(), tuesday(t))
	require.NoError(t, err)
	assert.Equal(t, 1, res.SentTotal)
	require.Len(t, res.Details, 1)
	assert.True(t, res.Details[0].StateWriteFailed)

	a, err := mem.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 0, a.SequenceStep)
}

func TestRunDailyCalendarGate(t *testing.T) {
	loc := eastern(t)
	tests := []struct {
		name string
		now  time.Time
		goLv string
		want string
	}{
		{"saturday", time.Date(2026, 3, 14, 9, 0, 0, 0, loc), "", MsgWeekend},
		{"memorial day", time.Date(2026, 5, 25, 9, 0, 0, 0, loc), "", MsgHoliday},
		{"observed independence day", time.Date(2026, 7, 3, 9, 0, 0, 0, loc), "", MsgHoliday},
		{"before go live", time.Date(2026, 3, 10, 9, 0, 0, 0, loc), "2026-04-01", MsgBeforeGoLive},
		{"go live day", time.Date(2026, 4, 1, 9, 0, 0, 0, loc), "2026-04-01", MsgCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(func(s *config.SequenceConfig) {
				if tt.goLv != "" {
					s.GoLiveDate = tt.goLv
				}
			})
			h := setup(t, cfg, lead("a", "a@a.edu"))
			res, err := h.engine.RunDaily(context.Background(), tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Message)
			if tt.want != MsgCompleted {
				assert.Empty(t, h.sender.sent)
				assert.Empty(t, h.archive.saved)
			}
		})
	}
}

func TestRunDailyTestMode(t *testing.T) {
	cfg := testConfig(func(s *config.SequenceConfig) { s.GoLiveDate = "2027-01-04" })
	cfg.Outreach.TestMode = true
	cfg.Email.TestRecipient = "me@example.com"
	h := setup(t, cfg, lead("a", "a@a.edu"))

	res, err := h.engine.RunDaily(context.Background(), tuesday(t))
	require.NoError(t, err)
	assert.Equal(t, "TEST_MODE: sent sample email.", res.Message)
	assert.Equal(t, "me@example.com", res.TestTo)
	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, "me@example.com", h.sender.sent[0].To)
	assert.Contains(t, h.sender.sent[0].Subject, TestTitle)

	a, err := h.store.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 0, a.SequenceStep)
}

func TestRunDailyTestModeSendFailure(t *testing.T) {
	cfg := testConfig(nil)
	cfg.Outreach.TestMode = true
	h := setup(t, cfg)
	h.sender.fail[sender] = true

	res, err := h.engine.RunDaily(context.Background(), tuesday(t))
	require.NoError(t, err)
	assert.Equal(t, "TEST_MODE: failed sample email.", res.Message)
	assert.Equal(t, sender, res.TestTo)
}

func TestRunDailyMissingSender(t *testing.T) {
	cfg := testConfig(nil)
	cfg.Email.From = ""
	h := setup(t, cfg, lead("a", "a@a.edu"))

	_, err := h.engine.RunDaily(context.Background(), tuesday(t))
	assert.ErrorIs(t, err, config.ErrMissingSender)
	assert.Empty(t, h.sender.sent)
}

func TestRunDailyLeaseHeld(t *testing.T) {
	held := distlock.NewLocalLock(distlock.RunKey(config.DefaultSequenceKey))
	ok, err := held.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	defer held.Release(context.Background())

	h := setup(t, testConfig(nil), lead("a", "a@a.edu"))
	res, err := h.engine.RunDaily(context.Background(), tuesday(t))
	require.NoError(t, err)
	assert.Equal(t, MsgLeaseHeld, res.Message)
	assert.Empty(t, h.sender.sent)
}

func TestRunDailyReleasesLease(t *testing.T) {
	h := setup(t, testConfig(nil), lead("a", "a@a.edu"))
	_, err := h.engine.RunDaily(context.Background(), tuesday(t))
	require.NoError(t, err)

	l := distlock.NewLocalLock(distlock.RunKey(config.DefaultSequenceKey))
	ok, err := l.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, l.Release(context.Background()))
}

func TestUnknownSequence(t *testing.T) {
	_, err := NewEngine(testConfig(nil), "nope", Deps{})
	assert.ErrorIs(t, err, config.ErrUnknownSequence)
}

func TestCustomTemplatesAndSignature(t *testing.T) {
	cfg := testConfig(nil)
	cfg.Outreach.Sequences["alumni"] = config.SequenceConfig{
		MaxSequenceSteps: 1,
		Signature:        "Dana",
		Templates:        []config.TemplateConfig{{Subject: "Hello {{ title }}", Body: "Hi, {{ signature }}"}},
	}
	mem := contacts.NewMemoryStore(lead("a", "a@a.edu"))
	rs := &recordingSender{fail: map[string]bool{}}
	e, err := NewEngine(cfg, "alumni", Deps{Store: mem, Sender: rs, Pacer: NoPause{}})
	require.NoError(t, err)
	assert.Equal(t, "alumni", e.Key())

	res, err := e.RunDaily(context.Background(), tuesday(t))
	require.NoError(t, err)
	assert.Equal(t, 1, res.SentTotal)
	assert.Equal(t, "Hello Leadership Summit a", rs.sent[0].Subject)
	assert.Equal(t, "Hi, Dana", rs.sent[0].Body)

	a, err := mem.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, a.SequenceCompleted, "a one-step sequence completes on its only send")
}

func TestRunReplyStats(t *testing.T) {
	now := tuesday(t)
	replied := now.AddDate(0, 0, -1)
	h := setup(t, testConfig(nil),
		domain.Contact{ID: "r", ContactEmail: "a@a.edu", Source: "leadership_summit_agent", SequenceStep: 2,
			ManuallyReplied: true, ManuallyRepliedAt: &replied, FirstEmailSentAt: daysAgo(t, 2)},
		lead("n", "b@b.edu"),
	)

	st, err := h.engine.RunReplyStats(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, MsgReplyStats, st.Message)
	assert.Equal(t, "weekly", st.Period)
	assert.Equal(t, 7, st.WindowDays)
	assert.Equal(t, "2026-03-03", st.From)
	assert.Equal(t, "2026-03-10", st.To)
	assert.Equal(t, 1, st.TotalReplies)
	assert.Equal(t, 1, st.FastReplies)
	assert.Equal(t, map[int]int{2: 1}, st.ByStep)

	require.Len(t, h.sender.sent, 1)
	assert.Equal(t, "Speaking Outreach Reply Stats – 2026-03-10", h.sender.sent[0].Subject)
	assert.True(t, strings.HasPrefix(h.sender.sent[0].Body, "Reply stats report (weekly) – 2026-03-10 (US/Eastern)"))
	require.Len(t, h.archive.saved, 1)
	assert.Equal(t, "reply_stats", h.archive.saved[0].kind)
}
