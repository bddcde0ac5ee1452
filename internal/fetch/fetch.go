// Package fetch performs the single plain GET both pipelines use to pull a
// candidate website's HTML. Non-2xx responses are not errors here: the status
// and body are returned for the caller to interpret, and only transport
// failures (DNS, TLS, timeout) surface as errors.
package fetch

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/divisual/leadgen-cli/internal/resilience"
)

// Result is a fetched page: whatever status and body the site answered with.
type Result struct {
	StatusCode int
	Body       string
}

// Fetcher fetches a single URL. Implementations must honor the context
// deadline; per-call timeouts are the caller's responsibility.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Result, error)
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36"

// Arbitrary third-party pages can be huge; 512KiB is plenty for email and
// color extraction.
const maxBodyBytes = 512 * 1024

const maxRedirects = 3

// Client implements Fetcher over net/http.
type Client struct {
	http      *http.Client
	userAgent string
}

// Option configures the Client.
type Option func(*Client)

// WithUserAgent overrides the default browser user-agent.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a page fetcher. Deadlines come from the per-call context; the
// underlying client only bounds dial and TLS handshake times.
func New(opts ...Option) *Client {
	c := &Client{
		userAgent: defaultUserAgent,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Fetch GETs the URL and returns status+body. It never fails on HTTP status.
func (c *Client) Fetch(ctx context.Context, url string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: create request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: get")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "fetch: read body")
	}

	return &Result{StatusCode: resp.StatusCode, Body: string(body)}, nil
}

// WithRetry fetches url with a per-attempt timeout and bounded retry. This is
// the shared "fetch, back off once, fetch again" helper both pipelines use in
// place of inline duplicate calls.
func WithRetry(ctx context.Context, f Fetcher, url string, timeout time.Duration, cfg resilience.RetryConfig) (*Result, error) {
	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*Result, error) {
		if timeout <= 0 {
			return f.Fetch(ctx, url)
		}
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return f.Fetch(attemptCtx, url)
	})
}
