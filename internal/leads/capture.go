package leads

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ignite/campus-outreach/internal/config"
	"github.com/ignite/campus-outreach/internal/contacts"
	"github.com/ignite/campus-outreach/internal/domain"
	"github.com/ignite/campus-outreach/internal/pkg/logger"
)

// CampaignSource resolves a campaign key to its search configuration.
// *config.Config satisfies it.
type CampaignSource interface {
	Campaign(key string) (config.CampaignConfig, error)
}

// Capturer runs lead capture for one campaign at a time.
type Capturer struct {
	store     contacts.Store
	campaigns CampaignSource
	search    SearchProvider
	feeds     SearchProvider
	fetch     Fetcher

	fallbackResults int
	log             *logger.Logger
	now             func() time.Time
}

// CaptureOption customizes a Capturer.
type CaptureOption func(*Capturer)

// WithFeeds enables the per-campaign feed list.
func WithFeeds(f SearchProvider) CaptureOption {
	return func(c *Capturer) { c.feeds = f }
}

// WithFallbackResults sets how many site-restricted results are tried when a
// page carries no address.
func WithFallbackResults(n int) CaptureOption {
	return func(c *Capturer) { c.fallbackResults = n }
}

// WithLogger sets the run logger.
func WithLogger(l *logger.Logger) CaptureOption {
	return func(c *Capturer) { c.log = l }
}

// WithClock overrides the scrape timestamp source.
func WithClock(now func() time.Time) CaptureOption {
	return func(c *Capturer) { c.now = now }
}

// NewCapturer wires a capturer. search may be nil when only feeds are used.
func NewCapturer(store contacts.Store, campaigns CampaignSource, search SearchProvider, fetch Fetcher, opts ...CaptureOption) *Capturer {
	c := &Capturer{
		store:           store,
		campaigns:       campaigns,
		search:          search,
		fetch:           fetch,
		fallbackResults: 3,
		log:             logger.Default(),
		now:             time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run processes every query and feed of the campaign. Individual search,
// fetch and store failures are counted and skipped; only an unknown
// campaign is returned as an error.
func (c *Capturer) Run(ctx context.Context, campaignKey string) (domain.CaptureResult, error) {
	res := domain.CaptureResult{Campaign: campaignKey}
	cfg, err := c.campaigns.Campaign(campaignKey)
	if err != nil {
		return res, err
	}
	log := c.log.With("campaign", campaignKey)

	if c.search != nil {
		for _, q := range cfg.Queries {
			results, err := c.search.Search(ctx, q, cfg.MaxResultsPerQuery)
			if err != nil {
				log.Warn("search failed", "query", q, "error", err)
				res.Errors++
				continue
			}
			c.processAll(ctx, log, campaignKey, cfg, results, &res)
		}
	}
	if c.feeds != nil {
		for _, feedURL := range cfg.Feeds {
			results, err := c.feeds.Search(ctx, feedURL, cfg.MaxResultsPerQuery)
			if err != nil {
				log.Warn("feed failed", "feed", feedURL, "error", err)
				res.Errors++
				continue
			}
			c.processAll(ctx, log, campaignKey, cfg, results, &res)
		}
	}

	res.Message = fmt.Sprintf("%s ran successfully. Saved %d items.", campaignKey, res.Saved)
	log.Info("capture finished", "saved", res.Saved, "duplicates", res.Duplicates,
		"no_email", res.NoEmail, "errors", res.Errors)
	return res, nil
}

func (c *Capturer) processAll(ctx context.Context, log *logger.Logger, key string, cfg config.CampaignConfig, results []Result, res *domain.CaptureResult) {
	for _, r := range results {
		if ctx.Err() != nil {
			return
		}
		c.process(ctx, log, key, cfg, r, res)
	}
}

func (c *Capturer) process(ctx context.Context, log *logger.Logger, key string, cfg config.CampaignConfig, r Result, res *domain.CaptureResult) {
	link := strings.TrimSpace(r.URL)
	if link == "" {
		return
	}
	// Ids of existing rows were derived from the URL exactly as returned.
	id := Fingerprint(r.URL, key)

	exists, err := c.store.Lookup(ctx, id)
	switch exists {
	case contacts.Present:
		res.Duplicates++
		return
	case contacts.Unknown:
		// Treated as new; Create refuses a second row for the same id.
		log.Warn("existence check failed, continuing", "id", id, "error", err)
	}

	email := c.findEmail(ctx, link)
	if email == "" {
		res.NoEmail++
		return
	}

	contact := &domain.Contact{
		ID:           id,
		URL:          r.URL,
		Title:        r.Title,
		ContactEmail: email,
		Source:       key,
		Category:     domain.CategoryFor(key),
		Segment:      cfg.Segment,
		ScrapedAt:    c.now().UTC().Truncate(time.Second),
	}
	switch err := c.store.Create(ctx, contact); {
	case err == nil:
		res.Saved++
		log.Debug("lead saved", "id", id, "email", email)
	case errors.Is(err, contacts.ErrAlreadyExists):
		res.Duplicates++
	default:
		res.Errors++
		log.Warn("saving lead failed", "id", id, "error", err)
	}
}

// findEmail tries the page itself and then a handful of pages from the same
// site that mention contact details.
func (c *Capturer) findEmail(ctx context.Context, link string) string {
	if html, ok := c.fetch.Fetch(ctx, link); ok {
		if email := ExtractEmail(html); email != "" {
			return email
		}
	}
	if c.search == nil || c.fallbackResults <= 0 {
		return ""
	}
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return ""
	}
	results, err := c.search.Search(ctx, fmt.Sprintf(`site:%s "email" "contact"`, u.Host), c.fallbackResults)
	if err != nil {
		c.log.Debug("fallback search failed", "host", u.Host, "error", err)
		return ""
	}
	for _, r := range results {
		if r.URL == "" {
			continue
		}
		if html, ok := c.fetch.Fetch(ctx, r.URL); ok {
			if email := ExtractEmail(html); email != "" {
				return email
			}
		}
	}
	return ""
}
