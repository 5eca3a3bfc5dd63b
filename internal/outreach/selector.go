package outreach

import (
	"strings"
	"time"

	"github.com/ignite/campus-outreach/internal/domain"
	"github.com/ignite/campus-outreach/internal/sequence"
	"github.com/ignite/campus-outreach/internal/throttle"
)

// SkipReason explains why a scanned contact was not sent to.
type SkipReason string

const (
	SkipNone        SkipReason = ""
	SkipNoEmail     SkipReason = "no_email"
	SkipOtherSource SkipReason = "other_source"
	SkipNotEdu      SkipReason = "not_edu"
	SkipDomainCap   SkipReason = "domain_cap"
	SkipSuppressed  SkipReason = "suppressed"
	SkipCompleted   SkipReason = "completed"
	SkipAbandoned   SkipReason = "abandoned"
	SkipMalformed   SkipReason = "malformed"
	SkipNotDue      SkipReason = "not_due"
	SkipCompose     SkipReason = "compose_error"
)

// Decision is the selector's verdict for one contact.
type Decision struct {
	Contact     *domain.Contact
	Email       string
	Domain      string
	Eligibility sequence.Eligibility
	Skip        SkipReason

	// Stop ends the scan: the daily total has been reached.
	Stop bool

	// MarkAbandoned is set the first time a contact is found past the
	// abandonment window.
	MarkAbandoned bool
}

// Send reports whether the contact should receive its next step now.
func (d Decision) Send() bool { return !d.Stop && d.Skip == SkipNone }

// Selector applies the run-wide filters, the per-domain cap and the sequence
// policy to each scanned contact.
type Selector struct {
	policy    sequence.Policy
	throttle  *throttle.Controller
	onlyEdu   bool
	eduSuffix string
	sources   map[string]struct{}
}

// NewSelector builds a selector. An empty sources list admits every source.
func NewSelector(policy sequence.Policy, tc *throttle.Controller, onlyEdu bool, eduSuffix string, sources []string) *Selector {
	if eduSuffix == "" {
		eduSuffix = ".edu"
	}
	s := &Selector{policy: policy, throttle: tc, onlyEdu: onlyEdu, eduSuffix: strings.ToLower(eduSuffix)}
	if len(sources) > 0 {
		s.sources = make(map[string]struct{}, len(sources))
		for _, src := range sources {
			s.sources[src] = struct{}{}
		}
	}
	return s
}

// Decide classifies c for the run at now. Checks run in a fixed order and
// the first failing one names the skip reason.
func (s *Selector) Decide(c *domain.Contact, now time.Time) Decision {
	d := Decision{Contact: c}
	if s.throttle.Exhausted() {
		d.Stop = true
		return d
	}

	if !c.HasEmail() {
		d.Skip = SkipNoEmail
		return d
	}
	d.Email = c.Email()
	d.Domain = c.Domain()

	if s.sources != nil {
		if _, ok := s.sources[c.Source]; !ok {
			d.Skip = SkipOtherSource
			return d
		}
	}
	if s.onlyEdu && !strings.HasSuffix(d.Domain, s.eduSuffix) {
		d.Skip = SkipNotEdu
		return d
	}
	if s.throttle.DomainFull(d.Domain) {
		d.Skip = SkipDomainCap
		return d
	}

	d.Eligibility = s.policy.Evaluate(c, now)
	switch d.Eligibility.Status {
	case sequence.Due:
	case sequence.NotDue:
		d.Skip = SkipNotDue
	case sequence.Suppressed:
		d.Skip = SkipSuppressed
	case sequence.Completed:
		d.Skip = SkipCompleted
	case sequence.Abandoned:
		d.Skip = SkipAbandoned
		d.MarkAbandoned = !c.Abandoned
	default:
		d.Skip = SkipMalformed
	}
	return d
}
