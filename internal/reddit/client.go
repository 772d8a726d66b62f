// Package reddit implements the outbound HTTP client used for every call to
// the reddit servers. Each call carries the moderator's session cookie, is
// bounded by a hard timeout, and is attempted exactly once — retry policy,
// if any, belongs to the caller.
package reddit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/reddit-tools/modbot/internal/metrics"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds every outbound request. If the full response has not
// arrived by then the call is aborted.
const DefaultTimeout = 10 * time.Second

// ErrKind discriminates the ways an outbound request can fail.
type ErrKind int

const (
	// ErrTimeout means the request exceeded its deadline before a complete
	// response arrived.
	ErrTimeout ErrKind = iota

	// ErrBadStatus means a response arrived with a status code outside the
	// configured allow-list.
	ErrBadStatus

	// ErrNetwork covers transport failures that are neither a timeout nor a
	// rejected status (connection refused, reset, malformed response).
	ErrNetwork
)

// RequestError is the single error type surfaced by the client.
type RequestError struct {
	Kind ErrKind
	Code int // status code, set for ErrBadStatus
	err  error
}

func (e *RequestError) Error() string {
	switch e.Kind {
	case ErrTimeout:
		return "reddit: request timed out"
	case ErrBadStatus:
		return fmt.Sprintf("reddit: unexpected status %d", e.Code)
	default:
		return fmt.Sprintf("reddit: request failed: %v", e.err)
	}
}

func (e *RequestError) Unwrap() error { return e.err }

// Response is a fully received reddit page.
type Response struct {
	StatusCode int
	Body       string
}

// Client issues authenticated requests to a single reddit host.
type Client struct {
	host       string
	cookie     func() string
	validCodes map[int]bool
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a client for the given host ("www.reddit.com:80").
// The cookie function supplies the current session credential; it is
// consulted on every request. validCodes are the status codes accepted as a
// successful response.
func NewClient(host string, cookie func() string, validCodes []int) *Client {
	valid := make(map[int]bool, len(validCodes))
	for _, code := range validCodes {
		valid[code] = true
	}

	return &Client{
		host:       host,
		cookie:     cookie,
		validCodes: valid,
		timeout:    DefaultTimeout,
		// The per-request context deadline governs cancellation; the
		// embedded client carries no timeout of its own.
		httpClient: &http.Client{},
	}
}

// SetTimeout overrides the default request deadline. Intended for tests.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Send issues a single request and returns the accumulated response body.
// body may be empty; when present it is sent form-encoded. All failures are
// returned as *RequestError.
func (c *Client) Send(ctx context.Context, method, path, body string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, "http://"+c.host+path, reader)
	if err != nil {
		return nil, &RequestError{Kind: ErrNetwork, err: err}
	}

	// Every request is authenticated with the moderator's session.
	req.Header.Set("Cookie", "reddit_session="+c.cookie())
	if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind := ErrNetwork
		result := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			kind = ErrTimeout
			result = "timeout"
		}
		metrics.RedditRequestsTotal.WithLabelValues(method, result).Inc()
		log.Warn().Err(err).Str("method", method).Str("path", path).Msg("reddit request failed")
		return nil, &RequestError{Kind: kind, err: err}
	}
	defer resp.Body.Close()

	if !c.validCodes[resp.StatusCode] {
		metrics.RedditRequestsTotal.WithLabelValues(method, "bad_status").Inc()
		log.Warn().Int("status", resp.StatusCode).Str("path", path).Msg("reddit returned unexpected status")
		return nil, &RequestError{Kind: ErrBadStatus, Code: resp.StatusCode}
	}

	// Accumulate the whole body; a timeout mid-body still aborts the call,
	// so partial bodies are never surfaced.
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		kind := ErrNetwork
		result := "error"
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			kind = ErrTimeout
			result = "timeout"
		}
		metrics.RedditRequestsTotal.WithLabelValues(method, result).Inc()
		return nil, &RequestError{Kind: kind, err: err}
	}

	metrics.RedditRequestsTotal.WithLabelValues(method, "ok").Inc()
	metrics.RedditRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       string(data),
	}, nil
}
