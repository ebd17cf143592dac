package mock

import (
	"context"
	"sync"
	"time"

	"github.com/spacexdragon/sitemapper"
)

var _ sitemapper.WebClient = (*WebClient)(nil)

// WebClient is a mock implementation of sitemapper.WebClient. GetFn must
// be set; the configuration hooks are optional and default to no-ops.
// GetCalls counts Get invocations.
type WebClient struct {
	GetFn                      func(ctx context.Context, url string) sitemapper.Response
	SetTimeoutFn               func(d time.Duration)
	SetProxyFn                 func(proxyURL string) error
	SetMaxResponseDataLengthFn func(n int)
	CloseFn                    func() error

	mu       sync.Mutex
	getCalls int
}

func (c *WebClient) Get(ctx context.Context, url string) sitemapper.Response {
	c.mu.Lock()
	c.getCalls++
	c.mu.Unlock()
	return c.GetFn(ctx, url)
}

// GetCalls returns how many times Get has been invoked.
func (c *WebClient) GetCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getCalls
}

func (c *WebClient) SetTimeout(d time.Duration) {
	if c.SetTimeoutFn != nil {
		c.SetTimeoutFn(d)
	}
}

func (c *WebClient) SetProxy(proxyURL string) error {
	if c.SetProxyFn != nil {
		return c.SetProxyFn(proxyURL)
	}
	return nil
}

func (c *WebClient) SetMaxResponseDataLength(n int) {
	if c.SetMaxResponseDataLengthFn != nil {
		c.SetMaxResponseDataLengthFn(n)
	}
}

func (c *WebClient) Close() error {
	if c.CloseFn != nil {
		return c.CloseFn()
	}
	return nil
}
