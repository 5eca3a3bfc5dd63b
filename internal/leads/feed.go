package leads

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// FeedSearch treats the query as the URL of an RSS, Atom or JSON feed and
// returns its items as candidate pages. Event calendars commonly publish one.
type FeedSearch struct {
	parser  *gofeed.Parser
	timeout time.Duration
}

// NewFeedSearch creates a feed reader that fetches with client.
func NewFeedSearch(client *http.Client, userAgent string, timeout time.Duration) *FeedSearch {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	p := gofeed.NewParser()
	if client != nil {
		p.Client = client
	}
	p.UserAgent = userAgent
	return &FeedSearch{parser: p, timeout: timeout}
}

// Search fetches the feed at feedURL and returns up to max linked items.
func (f *FeedSearch) Search(ctx context.Context, feedURL string, max int) ([]Result, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", feedURL, err)
	}

	var out []Result
	for _, item := range feed.Items {
		if max > 0 && len(out) >= max {
			break
		}
		link := strings.TrimSpace(item.Link)
		if link == "" && len(item.Links) > 0 {
			link = strings.TrimSpace(item.Links[0])
		}
		if link == "" {
			continue
		}
		out = append(out, Result{URL: link, Title: strings.TrimSpace(item.Title)})
	}
	return out, nil
}
