// Package http provides a net/http-based implementation of
// sitemapper.WebClient with timeout, proxy, response-size cap and
// inter-request throttling support.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/spacexdragon/sitemapper"
	"golang.org/x/time/rate"
)

// DefaultTimeout is the default total request timeout. Some webservers
// generate huge sitemaps on the fly, hence the generous value.
const DefaultTimeout = 60 * time.Second

// defaultConnectTimeout bounds connection establishment separately from
// the total timeout.
const defaultConnectTimeout = 10 * time.Second

// Ensure Client implements sitemapper.WebClient at compile time.
var _ sitemapper.WebClient = (*Client)(nil)

// Client is a WebClient backed by net/http. It follows redirects, attaches
// a fixed User-Agent, and optionally waits between requests. It is safe
// for concurrent use.
type Client struct {
	mu                    sync.Mutex
	transport             *http.Transport
	httpClient            *http.Client
	userAgent             string
	timeout               time.Duration
	proxy                 *url.URL
	maxResponseDataLength int
	wait                  time.Duration
	randomWait            bool
	limiter               *rate.Limiter
	firstRequest          bool
	closed                bool
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent overrides the default User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTimeout sets the total request timeout. Defaults to DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithWait sets a fixed wait applied before every request except the
// first one made by this client.
func WithWait(d time.Duration) Option {
	return func(c *Client) { c.wait = d }
}

// WithRandomWait jitters the configured wait by multiplying it with a
// random factor in [0.5, 1.5).
func WithRandomWait() Option {
	return func(c *Client) { c.randomWait = true }
}

// WithMaxResponseDataLength caps the number of body bytes read per
// response. Zero means unlimited.
func WithMaxResponseDataLength(n int) Option {
	return func(c *Client) { c.maxResponseDataLength = n }
}

// NewClient creates a new Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		userAgent:    "sitemapper/" + sitemapper.Version,
		timeout:      DefaultTimeout,
		firstRequest: true,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.transport = &http.Transport{
		Proxy: c.proxyFunc,
		DialContext: (&net.Dialer{
			Timeout: defaultConnectTimeout,
		}).DialContext,
	}
	c.httpClient = &http.Client{Transport: c.transport}

	if c.wait > 0 && !c.randomWait {
		// Full bucket: the first request does not wait.
		c.limiter = rate.NewLimiter(rate.Every(c.wait), 1)
	}

	return c
}

// SetTimeout sets the total request timeout for subsequent calls.
func (c *Client) SetTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = d
}

// SetProxy sets the proxy URL used by subsequent calls. An empty string
// clears the proxy.
func (c *Client) SetProxy(proxyURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if proxyURL == "" {
		c.proxy = nil
		return nil
	}
	u, err := url.Parse(proxyURL)
	if err != nil {
		return fmt.Errorf("parsing proxy URL: %w", err)
	}
	c.proxy = u
	return nil
}

// SetMaxResponseDataLength caps the number of response body bytes read on
// subsequent calls. Zero means unlimited.
func (c *Client) SetMaxResponseDataLength(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxResponseDataLength = n
}

func (c *Client) proxyFunc(*http.Request) (*url.URL, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.proxy, nil
}

// Get performs one GET request. Failures are reported as
// *sitemapper.ErrorResponse with the retryable classification applied:
// timeouts and transient HTTP statuses (429, 500, 502, 503, 504) are
// retryable; connection and DNS failures and other non-2xx statuses are
// not.
func (c *Client) Get(ctx context.Context, rawURL string) sitemapper.Response {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return &sitemapper.ErrorResponse{Message: "web client is closed"}
	}
	timeout := c.timeout
	maxLen := c.maxResponseDataLength
	userAgent := c.userAgent
	c.mu.Unlock()

	if err := c.waitBeforeRequest(ctx); err != nil {
		return classifyTransportError(err)
	}

	reqCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &sitemapper.ErrorResponse{Message: fmt.Sprintf("creating request: %v", err)}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if maxLen > 0 {
		body = io.LimitReader(resp.Body, int64(maxLen))
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return classifyTransportError(err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &sitemapper.SuccessResponse{
			StatusCode:    resp.StatusCode,
			StatusMessage: statusMessage(resp.StatusCode),
			Headers:       resp.Header.Clone(),
			Data:          data,
			FinalURL:      resp.Request.URL.String(),
		}
	}

	return &sitemapper.ErrorResponse{
		Message:   fmt.Sprintf("%d %s", resp.StatusCode, statusMessage(resp.StatusCode)),
		Retryable: sitemapper.RetryableStatus(resp.StatusCode),
	}
}

// Close releases idle connections held by the underlying transport.
// Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.transport.CloseIdleConnections()
	return nil
}

// waitBeforeRequest applies the configured inter-request wait. The first
// request made by the client never waits.
func (c *Client) waitBeforeRequest(ctx context.Context) error {
	c.mu.Lock()
	wait := c.wait
	limiter := c.limiter
	first := c.firstRequest
	c.firstRequest = false
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	if limiter != nil {
		return limiter.Wait(ctx)
	}
	if first {
		return nil
	}

	jittered := time.Duration(float64(wait) * (0.5 + rand.Float64()))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(jittered):
		return nil
	}
}

func classifyTransportError(err error) *sitemapper.ErrorResponse {
	retryable := false
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		retryable = true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		retryable = true
	}
	return &sitemapper.ErrorResponse{Message: err.Error(), Retryable: retryable}
}

func statusMessage(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return "Unknown Status"
}
