// Package throttle enforces the per-run send caps: a global daily total and a
// per-recipient-domain ceiling. Counters live for one run only.
package throttle

import (
	"sort"
	"sync"
)

// Verdict is the result of Admit.
type Verdict int

const (
	Admitted Verdict = iota
	GlobalCapReached
	DomainCapReached
)

func (v Verdict) String() string {
	switch v {
	case Admitted:
		return "admitted"
	case GlobalCapReached:
		return "global_cap"
	case DomainCapReached:
		return "domain_cap"
	}
	return "unknown"
}

// Controller counts successful sends in the current run.
type Controller struct {
	dailyTotal int
	perDomain  int

	mu       sync.Mutex
	sent     int
	byDomain map[string]int
}

// New returns a controller with fresh counters. A cap of zero or less admits
// nothing.
func New(dailyTotal, perDomain int) *Controller {
	return &Controller{dailyTotal: dailyTotal, perDomain: perDomain, byDomain: make(map[string]int)}
}

// Exhausted reports whether the global cap has been reached.
func (c *Controller) Exhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent >= c.dailyTotal
}

// DomainFull reports whether domain has reached its cap.
func (c *Controller) DomainFull(domain string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byDomain[domain] >= c.perDomain
}

// Admit checks both caps without changing any counter.
func (c *Controller) Admit(domain string) Verdict {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sent >= c.dailyTotal {
		return GlobalCapReached
	}
	if c.byDomain[domain] >= c.perDomain {
		return DomainCapReached
	}
	return Admitted
}

// Record counts one successful send to domain.
func (c *Controller) Record(domain string) {
	c.mu.Lock()
	c.sent++
	c.byDomain[domain]++
	c.mu.Unlock()
}

// Sent returns the number of recorded sends.
func (c *Controller) Sent() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent
}

// ByDomain returns a copy of the per-domain counters.
func (c *Controller) ByDomain() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.byDomain))
	for d, n := range c.byDomain {
		out[d] = n
	}
	return out
}

// Domains returns the domains with at least one send, sorted.
func (c *Controller) Domains() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.byDomain))
	for d := range c.byDomain {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
