package outreach

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ignite/campus-outreach/internal/domain"
	"github.com/ignite/campus-outreach/internal/sequence"
	"github.com/ignite/campus-outreach/internal/throttle"
)

func testPolicy(t *testing.T) sequence.Policy {
	return sequence.Policy{MaxSteps: 5, InitialFollowupDays: 4, FollowupIntervalDays: 7, AbandonAfterDays: 30, Location: eastern(t)}
}

func TestSelectorDomainCapComesBeforeFlags(t *testing.T) {
	tc := throttle.New(10, 1)
	tc.Record("x.edu")
	s := NewSelector(testPolicy(t), tc, false, "", nil)

	d := s.Decide(&domain.Contact{ContactEmail: "a@x.edu", DoNotContact: true}, tuesday(t))
	assert.Equal(t, SkipDomainCap, d.Skip)
	assert.False(t, d.Send())
}

func TestSelectorStopsWhenExhausted(t *testing.T) {
	tc := throttle.New(1, 3)
	tc.Record("y.edu")
	s := NewSelector(testPolicy(t), tc, false, "", nil)

	d := s.Decide(&domain.Contact{ContactEmail: "a@x.edu"}, tuesday(t))
	assert.True(t, d.Stop)
	assert.False(t, d.Send())
}

func TestSelectorTrimsAndLowercases(t *testing.T) {
	s := NewSelector(testPolicy(t), throttle.New(10, 3), true, ".EDU", nil)
	d := s.Decide(&domain.Contact{ContactEmail: "  Dean@State.EDU "}, tuesday(t))
	assert.True(t, d.Send())
	assert.Equal(t, "Dean@State.EDU", d.Email)
	assert.Equal(t, "state.edu", d.Domain)
}

func TestSelectorMarksAbandonedOnce(t *testing.T) {
	s := NewSelector(testPolicy(t), throttle.New(10, 3), false, "", nil)
	first := tuesday(t).AddDate(0, 0, -40)
	c := &domain.Contact{ContactEmail: "a@x.edu", SequenceStep: 1, FirstEmailSentAt: &first, LastEmailSentAt: &first}

	d := s.Decide(c, tuesday(t))
	assert.Equal(t, SkipAbandoned, d.Skip)
	assert.True(t, d.MarkAbandoned)

	c.Abandoned = true
	d = s.Decide(c, tuesday(t))
	assert.Equal(t, SkipAbandoned, d.Skip)
	assert.False(t, d.MarkAbandoned)
}

func TestTransitionChanges(t *testing.T) {
	at := time.Date(2026, 3, 10, 13, 30, 0, 0, time.UTC)
	ch := transitionChanges(sequence.Transition{FromStep: 4, ToStep: 5, SentAt: at, Completed: true, Subject: "s", Body: "b"})

	assert.Equal(t, 4, *ch.IfStep)
	assert.Equal(t, 5, *ch.SequenceStep)
	assert.Equal(t, at, *ch.LastEmailSentAt)
	assert.Nil(t, ch.FirstEmailSentAt)
	assert.True(t, *ch.SequenceCompleted)

	ch = transitionChanges(sequence.Transition{FromStep: 0, ToStep: 1, SentAt: at, SetFirst: true})
	assert.Equal(t, at, *ch.FirstEmailSentAt)
	assert.Nil(t, ch.SequenceCompleted)
}

func TestRandomPacer(t *testing.T) {
	p := RandomPacer{Min: time.Millisecond, Max: 3 * time.Millisecond}
	start := time.Now()
	assert.NoError(t, p.Pause(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, RandomPacer{Min: time.Hour, Max: time.Hour}.Pause(ctx), context.Canceled)
	assert.NoError(t, RandomPacer{}.Pause(ctx))
}
