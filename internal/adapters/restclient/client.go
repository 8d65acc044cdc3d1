// internal/adapters/restclient/client.go
package restclient

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"mcp_gateway/internal/adapters/observability"
	"mcp_gateway/internal/domain"
)

const (
	maxAttempts  = 4
	maxBodyBytes = 16 << 20
)

type Options struct {
	Service   string // metrics label and error prefix
	BaseURL   string
	RPS       int
	Timeout   time.Duration
	UserAgent string
	// Authorize is called on every attempt so refreshed credentials are picked up.
	Authorize func(ctx context.Context, req *http.Request) error
	// ErrorDetail extracts a human readable message from a vendor error body.
	ErrorDetail func(body []byte) string
	HTTPClient  *http.Client
}

type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Endpoint is the metrics label; defaults to Path. Set it when Path embeds IDs.
	Endpoint string
	// Idempotent allows retries on 5xx/network errors for non-GET methods.
	Idempotent bool
}

type Client struct {
	service   string
	base      string
	hc        *http.Client
	rl        *rate.Limiter
	ua        string
	authorize func(ctx context.Context, req *http.Request) error
	detail    func(body []byte) string
}

// StatusError is returned for non-retryable vendor responses. It unwraps to
// one of the domain sentinels when the status maps to one.
type StatusError struct {
	Service string
	Status  int
	Detail  string
	kind    error
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: bad status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s: bad status %d: %s", e.Service, e.Status, e.Detail)
}

func (e *StatusError) Unwrap() error { return e.kind }

func New(o Options) (*Client, error) {
	if o.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(o.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if o.RPS <= 0 {
		o.RPS = 5
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.UserAgent == "" {
		o.UserAgent = "mcp-gateway/1.0"
	}
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: o.Timeout}
	}
	detail := o.ErrorDetail
	if detail == nil {
		detail = func(b []byte) string { return strings.TrimSpace(string(b)) }
	}
	return &Client{
		service:   o.Service,
		base:      strings.TrimRight(o.BaseURL, "/"),
		hc:        hc,
		rl:        rate.NewLimiter(rate.Limit(o.RPS), o.RPS),
		ua:        o.UserAgent,
		authorize: o.Authorize,
		detail:    detail,
	}, nil
}

// Do sends the request and decodes a JSON response into out (when non-nil).
func (c *Client) Do(ctx context.Context, r Request, out any) error {
	body, err := c.DoRaw(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.service, err)
	}
	return nil
}

// DoRaw sends the request with client-side rate limiting and retries, and
// returns the raw response body. Retries on 429 always, and on transient 5xx
// and network errors only for idempotent requests, honoring Retry-After.
func (c *Client) DoRaw(ctx context.Context, r Request) ([]byte, error) {
	if r.Method == "" {
		r.Method = http.MethodGet
	}
	endpoint := r.Endpoint
	if endpoint == "" {
		endpoint = r.Path
	}
	u := c.base + r.Path
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}
	var payload []byte
	if r.Body != nil {
		b, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", c.service, err)
		}
		payload = b
	}
	retryable := r.Idempotent || r.Method == http.MethodGet || r.Method == http.MethodHead ||
		r.Method == http.MethodPut || r.Method == http.MethodDelete

	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		last := i == maxAttempts-1

		// build a fresh request each attempt
		var rdr io.Reader
		if payload != nil {
			rdr = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, r.Method, u, rdr)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.ua)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.authorize != nil {
			if err := c.authorize(ctx, req); err != nil {
				return nil, err
			}
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal(c.service, endpoint, 0, time.Since(start))
			// network error or context canceled
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("%s: %w", c.service, err)
			if retryable && !last && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr
		}
		observability.ObserveExternal(c.service, endpoint, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, nil

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("%s: read response: %w", c.service, err)
			}
			return b, nil

		case resp.StatusCode == http.StatusTooManyRequests ||
			(retryable && isTransient(resp.StatusCode)):
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = &StatusError{Service: c.service, Status: resp.StatusCode, Detail: c.detail(b)}
			if !last && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, lastErr

		default:
			// read a small error body for diagnostics
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, &StatusError{
				Service: c.service,
				Status:  resp.StatusCode,
				Detail:  c.detail(b),
				kind:    kindFor(resp.StatusCode),
			}
		}
	}

	return nil, lastErr
}

func kindFor(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.ErrBadRequest
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusNotFound:
		return domain.ErrNotFound
	}
	return nil
}

func isTransient(status int) bool {
	switch status {
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	// seconds form
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	// HTTP-date form
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with up to +50% jitter.
// i = retry attempt (0,1,2,...): 200ms, 400ms, 800ms...
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
