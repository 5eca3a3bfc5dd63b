package leads

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/ignite/campus-outreach/internal/pkg/httpretry"
	"github.com/ignite/campus-outreach/internal/pkg/logger"
)

const maxPageBytes = 2 << 20

// Fetcher returns the body of a page. The boolean is false when the page
// could not be retrieved for any reason.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, bool)
}

// HTTPFetcher fetches pages over HTTP with a per-call timeout.
type HTTPFetcher struct {
	client    httpretry.HTTPDoer
	userAgent string
	timeout   time.Duration
}

// NewHTTPFetcher creates a page fetcher.
func NewHTTPFetcher(client httpretry.HTTPDoer, userAgent string, timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPFetcher{client: client, userAgent: userAgent, timeout: timeout}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		logger.Debug("page fetch failed", "url", url, "error", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Debug("page fetch returned non-2xx", "url", url, "status", resp.StatusCode)
		return "", false
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", false
	}
	return string(body), true
}
