package leads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ignite/campus-outreach/internal/pkg/httpretry"
)

// DefaultGoogleEndpoint is the Custom Search JSON API.
const DefaultGoogleEndpoint = "https://www.googleapis.com/customsearch/v1"

// Result is one candidate page returned by a search provider.
type Result struct {
	URL   string `json:"link"`
	Title string `json:"title"`
}

// SearchProvider returns up to max candidate pages for a query.
type SearchProvider interface {
	Search(ctx context.Context, query string, max int) ([]Result, error)
}

// GoogleSearch queries the Google Custom Search JSON API.
type GoogleSearch struct {
	client   httpretry.HTTPDoer
	endpoint string
	apiKey   string
	cx       string
	timeout  time.Duration
}

// NewGoogleSearch creates a search client. An empty endpoint selects the
// public API.
func NewGoogleSearch(client httpretry.HTTPDoer, endpoint, apiKey, cx string, timeout time.Duration) *GoogleSearch {
	if endpoint == "" {
		endpoint = DefaultGoogleEndpoint
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GoogleSearch{client: client, endpoint: endpoint, apiKey: apiKey, cx: cx, timeout: timeout}
}

type googleResponse struct {
	Items []Result `json:"items"`
}

// Search runs one query. A non-2xx status is returned as an error.
func (g *GoogleSearch) Search(ctx context.Context, query string, max int) ([]Result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("cx", g.cx)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(max))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, string(body))
	}

	var out googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	return out.Items, nil
}
