package asfpage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultUserAgent = "asfstats/1.0 (+https://github.com/ManuGH/asfstats)"

// Options configures the listing page client.
type Options struct {
	URL        string
	Timeout    time.Duration     // per-request timeout, default 30s
	MaxBytes   int64             // response size cap, default 8 MiB
	RatePerSec rate.Limit        // polite client-side limit, default 1 req/s
	Burst      int               // default 2
	UserAgent  string            // default asfstats UA
	Transport  http.RoundTripper // optional, e.g. otelhttp.NewTransport
}

// Client fetches the story listing page. All requests pass a shared
// client-side rate limiter, so frequent refreshes stay polite to the
// hobbyist server hosting the page.
type Client struct {
	url      string
	http     *http.Client
	limiter  *rate.Limiter
	ua       string
	maxBytes int64
}

// New creates a listing page client.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 8 << 20
	}
	perSec := opts.RatePerSec
	if perSec <= 0 {
		perSec = 1
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 2
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Client{
		url:      strings.TrimSpace(opts.URL),
		http:     &http.Client{Timeout: timeout, Transport: transport},
		limiter:  rate.NewLimiter(perSec, burst),
		ua:       ua,
		maxBytes: maxBytes,
	}
}

// URL returns the configured listing page URL.
func (c *Client) URL() string {
	return c.url
}

// Fetch retrieves the raw listing page.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &PageError{Sentinel: ErrTimeout, Operation: "fetch", URL: c.url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &PageError{Sentinel: ErrUnavailable, Operation: "fetch", URL: c.url, Err: err}
	}
	req.Header.Set("User-Agent", c.ua)
	req.Header.Set("Accept", "text/html")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, &PageError{Sentinel: classifyTransport(err), Operation: "fetch", URL: c.url, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, &PageError{Sentinel: ErrStatus, Operation: "fetch", URL: c.url, Status: res.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, c.maxBytes+1))
	if err != nil {
		return nil, &PageError{Sentinel: classifyTransport(err), Operation: "fetch", URL: c.url, Err: err}
	}
	if int64(len(body)) > c.maxBytes {
		return nil, &PageError{
			Sentinel:  ErrTooLarge,
			Operation: "fetch",
			URL:       c.url,
			Err:       fmt.Errorf("body exceeds %d bytes", c.maxBytes),
		}
	}
	return body, nil
}

// Probe issues a HEAD request to check the listing page is reachable.
// Used by the strict readiness gate.
func (c *Client) Probe(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &PageError{Sentinel: ErrTimeout, Operation: "probe", URL: c.url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.url, nil)
	if err != nil {
		return &PageError{Sentinel: ErrUnavailable, Operation: "probe", URL: c.url, Err: err}
	}
	req.Header.Set("User-Agent", c.ua)

	res, err := c.http.Do(req)
	if err != nil {
		return &PageError{Sentinel: classifyTransport(err), Operation: "probe", URL: c.url, Err: err}
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	// Some static hosts answer HEAD with 405; reachability is all we need.
	if res.StatusCode >= 500 {
		return &PageError{Sentinel: ErrStatus, Operation: "probe", URL: c.url, Status: res.StatusCode}
	}
	return nil
}

func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return ErrUnavailable
}
