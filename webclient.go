package sitemapper

import (
	"context"
	"net/http"
	"time"
)

// RetryableStatusCodes are the HTTP status codes that designate transient
// server conditions; responses with these codes are classified retryable.
var RetryableStatusCodes = []int{
	http.StatusTooManyRequests,     // 429
	http.StatusInternalServerError, // 500
	http.StatusBadGateway,          // 502
	http.StatusServiceUnavailable,  // 503
	http.StatusGatewayTimeout,      // 504
}

// RetryableStatus reports whether an HTTP status code is transient.
func RetryableStatus(code int) bool {
	for _, c := range RetryableStatusCodes {
		if c == code {
			return true
		}
	}
	return false
}

// WebClient is the transport capability consumed by the fetch engine.
// Implementations perform single GET requests and classify failures as
// retryable or not; the engine never retries on its own beyond that flag.
type WebClient interface {
	// Get performs one GET request. It never returns a Go error: transport
	// and HTTP-status failures are reported as *ErrorResponse so the
	// caller can inspect the retryable classification.
	Get(ctx context.Context, url string) Response

	// SetTimeout sets the total request timeout for subsequent calls.
	SetTimeout(d time.Duration)

	// SetProxy sets the proxy URL for subsequent calls; an empty string
	// clears it.
	SetProxy(proxyURL string) error

	// SetMaxResponseDataLength caps the number of response body bytes
	// read on subsequent calls. Zero means unlimited.
	SetMaxResponseDataLength(n int)

	// Close releases underlying transport resources. Idempotent.
	Close() error
}

// Response is the sealed result of WebClient.Get: either a
// *SuccessResponse or an *ErrorResponse.
type Response interface {
	response()
}

// SuccessResponse is a 2xx response. Data holds the raw body, truncated to
// the configured maximum length if one was set. FinalURL is the URL after
// redirects.
type SuccessResponse struct {
	StatusCode    int
	StatusMessage string
	Headers       http.Header
	Data          []byte
	FinalURL      string
}

func (*SuccessResponse) response() {}

// Header returns the value of a header by case-insensitive name, or the
// empty string when absent.
func (r *SuccessResponse) Header(name string) string {
	return r.Headers.Get(name)
}

// ErrorResponse is a failed request. Retryable is true for request
// timeouts and transient HTTP statuses; connection and DNS failures and
// all other non-2xx statuses are non-retryable.
type ErrorResponse struct {
	Message   string
	Retryable bool
}

func (*ErrorResponse) response() {}
