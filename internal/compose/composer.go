// Package compose renders the subject and body of each sequence step.
package compose

import (
	"errors"
	"fmt"
	"strings"

	"github.com/osteele/liquid"
)

// DefaultTitle stands in for a missing event title.
const DefaultTitle = "your upcoming program"

// MaxTitleRunes is the longest title inserted verbatim; longer titles are
// cut to MaxTitleRunes-3 runes plus "...".
const MaxTitleRunes = 180

// ErrNoTemplates is returned when a composer is built from an empty set.
var ErrNoTemplates = errors.New("compose: no templates")

// Message is a rendered email.
type Message struct {
	Subject string
	Body    string
}

type compiled struct {
	subject *liquid.Template
	body    *liquid.Template
}

// Composer renders messages from a fixed, pre-parsed template set.
type Composer struct {
	steps     []compiled
	signature string
}

// New parses every template up front so that rendering cannot fail on syntax.
func New(templates []Template, signature string) (*Composer, error) {
	if len(templates) == 0 {
		return nil, ErrNoTemplates
	}
	if signature == "" {
		signature = DefaultSignature
	}

	engine := liquid.NewEngine()
	c := &Composer{signature: signature, steps: make([]compiled, 0, len(templates))}
	for i, t := range templates {
		subj, err := engine.ParseString(t.Subject)
		if err != nil {
			return nil, fmt.Errorf("compose: template %d subject: %w", i, err)
		}
		body, err := engine.ParseString(t.Body)
		if err != nil {
			return nil, fmt.Errorf("compose: template %d body: %w", i, err)
		}
		c.steps = append(c.steps, compiled{subject: subj, body: body})
	}
	return c, nil
}

// Default returns a composer for DefaultTemplates.
func Default() *Composer {
	c, err := New(DefaultTemplates(), DefaultSignature)
	if err != nil {
		panic(err)
	}
	return c
}

// Steps returns the number of templates.
func (c *Composer) Steps() int { return len(c.steps) }

// Compose renders the template for step. Steps below zero use the first
// template and steps past the end reuse the last one.
func (c *Composer) Compose(step int, title string) (Message, error) {
	idx := step
	if idx < 0 {
		idx = 0
	}
	if idx > len(c.steps)-1 {
		idx = len(c.steps) - 1
	}

	vars := map[string]interface{}{
		"title":     CleanTitle(title),
		"signature": c.signature,
	}
	subj, err := c.steps[idx].subject.RenderString(vars)
	if err != nil {
		return Message{}, fmt.Errorf("compose: render subject for step %d: %w", step, err)
	}
	body, err := c.steps[idx].body.RenderString(vars)
	if err != nil {
		return Message{}, fmt.Errorf("compose: render body for step %d: %w", step, err)
	}
	return Message{Subject: subj, Body: body}, nil
}

// CleanTitle trims title, substitutes DefaultTitle when empty and shortens
// titles longer than MaxTitleRunes.
func CleanTitle(title string) string {
	t := strings.TrimSpace(title)
	if t == "" {
		return DefaultTitle
	}
	r := []rune(t)
	if len(r) > MaxTitleRunes {
		return string(r[:MaxTitleRunes-3]) + "..."
	}
	return t
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
