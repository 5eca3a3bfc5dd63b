package outreach

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/ignite/campus-outreach/internal/compose"
	"github.com/ignite/campus-outreach/internal/contacts"
	"github.com/ignite/campus-outreach/internal/domain"
	"github.com/ignite/campus-outreach/internal/pkg/logger"
	"github.com/ignite/campus-outreach/internal/sequence"
	"github.com/ignite/campus-outreach/internal/throttle"
)

// Sender delivers one plain-text message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Pacer waits between two successful sends.
type Pacer interface {
	Pause(ctx context.Context) error
}

// RandomPacer sleeps a uniformly random duration in [Min, Max].
type RandomPacer struct {
	Min, Max time.Duration
}

func (p RandomPacer) Pause(ctx context.Context) error {
	d := p.Min
	if p.Max > p.Min {
		d += time.Duration(rand.Int63n(int64(p.Max - p.Min)))
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoPause never waits.
type NoPause struct{}

func (NoPause) Pause(context.Context) error { return nil }

// Delivery is the outcome of one dispatch.
type Delivery struct {
	Sent             bool
	StateWriteFailed bool
	Conflict         bool
	Err              error
	Detail           domain.SendDetail
}

// Dispatcher sends a composed message and, only after the provider accepted
// it, commits the sequence transition and counts the send.
type Dispatcher struct {
	sender   Sender
	store    contacts.Store
	throttle *throttle.Controller
	pacer    Pacer
	log      *logger.Logger
	now      func() time.Time

	delivered int
}

// NewDispatcher wires a dispatcher for one run.
func NewDispatcher(sender Sender, store contacts.Store, tc *throttle.Controller, pacer Pacer, log *logger.Logger, now func() time.Time) *Dispatcher {
	if pacer == nil {
		pacer = NoPause{}
	}
	if log == nil {
		log = logger.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{sender: sender, store: store, throttle: tc, pacer: pacer, log: log, now: now}
}

// Dispatch delivers msg for the selected contact. A failed send changes
// neither the store nor the counters. A failed state write after a
// successful send still counts as sent.
func (d *Dispatcher) Dispatch(ctx context.Context, dec Decision, msg compose.Message, policy sequence.Policy) Delivery {
	c := dec.Contact
	if d.delivered > 0 {
		if err := d.pacer.Pause(ctx); err != nil {
			return Delivery{Err: err}
		}
	}

	if err := d.sender.Send(ctx, dec.Email, msg.Subject, msg.Body); err != nil {
		d.log.Warn("send failed", "id", c.ID, "email", dec.Email, "step", c.SequenceStep, "error", err)
		return Delivery{Err: err}
	}
	d.delivered++
	d.throttle.Record(dec.Domain)

	sentAt := d.now().Truncate(time.Second)
	tr := policy.Advance(c, sentAt, msg.Subject, msg.Body)
	out := Delivery{
		Sent: true,
		Detail: domain.SendDetail{
			ID:     c.ID,
			Email:  dec.Email,
			Domain: dec.Domain,
			Step:   tr.ToStep,
			Title:  c.Title,
		},
	}

	if err := d.store.Update(ctx, c.ID, transitionChanges(tr)); err != nil {
		out.StateWriteFailed = true
		out.Detail.StateWriteFailed = true
		out.Conflict = errors.Is(err, contacts.ErrConflict)
		d.log.Error("sequence state write failed after send", "id", c.ID, "email", dec.Email,
			"from_step", tr.FromStep, "conflict", out.Conflict, "error", err)
		return out
	}
	tr.Apply(c)
	d.log.Info("outreach sent", "id", c.ID, "email", dec.Email, "step", tr.ToStep, "completed", tr.Completed)
	return out
}

// transitionChanges turns a transition into a store update conditional on
// the step the run read.
func transitionChanges(tr sequence.Transition) contacts.Changes {
	step := tr.ToStep
	from := tr.FromStep
	sent := tr.SentAt
	subj := tr.Subject
	body := tr.Body
	ch := contacts.Changes{
		SequenceStep:     &step,
		LastEmailSentAt:  &sent,
		LastEmailSubject: &subj,
		LastEmailBody:    &body,
		IfStep:           &from,
	}
	if tr.SetFirst {
		first := tr.SentAt
		ch.FirstEmailSentAt = &first
	}
	if tr.Completed {
		done := true
		ch.SequenceCompleted = &done
	}
	return ch
}
