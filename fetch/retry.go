package fetch

import (
	"context"

	"github.com/spacexdragon/sitemapper"
)

// DefaultRetryAttempts is the total attempt cap for RetryGet: one initial
// request plus two retries.
const DefaultRetryAttempts = 3

// RetryGet fetches a URL, retrying errors the client classified as
// retryable up to DefaultRetryAttempts total attempts. It returns the
// first success or the last error once attempts are exhausted.
// Non-retryable errors return immediately.
//
// Retries carry no delay of their own: backoff spacing comes from the
// client's configured inter-request wait.
func RetryGet(ctx context.Context, client sitemapper.WebClient, url string) sitemapper.Response {
	return RetryGetN(ctx, client, url, DefaultRetryAttempts)
}

// RetryGetN is like RetryGet with a configurable attempt cap.
func RetryGetN(ctx context.Context, client sitemapper.WebClient, url string, attempts int) sitemapper.Response {
	if attempts < 1 {
		attempts = 1
	}
	var resp sitemapper.Response
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return &sitemapper.ErrorResponse{Message: err.Error()}
		}
		resp = client.Get(ctx, url)
		errResp, ok := resp.(*sitemapper.ErrorResponse)
		if !ok || !errResp.Retryable {
			return resp
		}
	}
	return resp
}
