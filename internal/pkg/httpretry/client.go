// Package httpretry wraps outbound HTTP calls (search API, page fetches)
// with bounded retries, exponential backoff with jitter, and Retry-After
// support for rate-limited APIs.
package httpretry

import (
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/ignite/campus-outreach/internal/pkg/logger"
)

// HTTPDoer is the interface for executing HTTP requests.
// Both *http.Client and *RetryClient satisfy this interface.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RetryClient retries transient failures of the wrapped HTTPDoer.
type RetryClient struct {
	client     HTTPDoer
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	userAgent  string
}

// Option customizes a RetryClient.
type Option func(*RetryClient)

// WithBackoff overrides the base and maximum backoff delays. maxDelay also
// caps a server-supplied Retry-After.
func WithBackoff(base, maxDelay time.Duration) Option {
	return func(rc *RetryClient) {
		rc.baseDelay = base
		rc.maxDelay = maxDelay
	}
}

// WithUserAgent sets the User-Agent header on requests that have none.
func WithUserAgent(ua string) Option {
	return func(rc *RetryClient) { rc.userAgent = ua }
}

// NewRetryClient wraps client, or a 30s-timeout http.Client when nil.
// maxRetries counts attempts after the first; negative means 3.
func NewRetryClient(client HTTPDoer, maxRetries int, opts ...Option) *RetryClient {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if maxRetries < 0 {
		maxRetries = 3
	}
	rc := &RetryClient{
		client:     client,
		maxRetries: maxRetries,
		baseDelay:  time.Second,
		maxDelay:   30 * time.Second,
	}
	for _, o := range opts {
		o(rc)
	}
	return rc
}

// Do sends req, retrying 429 and 5xx gateway responses and transport
// errors. Client errors and a cancelled context end the loop at once. The
// last response is returned unread so the caller can inspect it.
func (rc *RetryClient) Do(req *http.Request) (*http.Response, error) {
	if rc.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", rc.userAgent)
	}

	var lastErr error
	var wait time.Duration
	for attempt := 0; attempt <= rc.maxRetries; attempt++ {
		if attempt > 0 {
			if err := rc.pause(req, attempt, wait); err != nil {
				if lastErr != nil {
					return nil, lastErr
				}
				return nil, err
			}
		} else if err := req.Context().Err(); err != nil {
			return nil, err
		}

		resp, err := rc.client.Do(req)
		if err != nil {
			if req.Context().Err() != nil {
				return nil, err
			}
			lastErr, wait = err, 0
			continue
		}
		if !isRetryableStatus(resp.StatusCode) || attempt == rc.maxRetries {
			return resp, nil
		}

		wait = retryAfter(resp.Header.Get("Retry-After"), time.Now())
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("httpretry: server returned retryable status %d", resp.StatusCode)
	}
	return nil, lastErr
}

// pause rewinds the body and sleeps before a retry. hint, when positive,
// is the server's Retry-After and replaces the computed backoff.
func (rc *RetryClient) pause(req *http.Request, attempt int, hint time.Duration) error {
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return fmt.Errorf("httpretry: failed to reset request body: %w", err)
		}
		req.Body = body
	}

	delay := rc.calculateDelay(attempt)
	if hint > 0 {
		delay = min(hint, rc.maxDelay)
	}
	logger.Debug("httpretry: retrying",
		"attempt", attempt, "max", rc.maxRetries, "method", req.Method,
		"host", req.URL.Host, "path", req.URL.Path, "wait", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-req.Context().Done():
		return req.Context().Err()
	}
}

// calculateDelay is full-jitter exponential backoff:
// random(0, min(maxDelay, baseDelay * 2^(attempt-1))), floored at 100ms or
// baseDelay, whichever is smaller.
func (rc *RetryClient) calculateDelay(attempt int) time.Duration {
	ceiling := math.Min(float64(rc.baseDelay)*math.Pow(2, float64(attempt-1)), float64(rc.maxDelay))
	d := time.Duration(rand.Float64() * ceiling)
	if floor := min(100*time.Millisecond, rc.baseDelay); d < floor {
		d = floor
	}
	return d
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP
// date. Zero means absent or unparseable.
func retryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
