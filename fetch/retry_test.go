package fetch_test

import (
	"context"
	"testing"

	"github.com/spacexdragon/sitemapper"
	"github.com/spacexdragon/sitemapper/fetch"
	"github.com/spacexdragon/sitemapper/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryGet_RetryableErrorThenSuccess(t *testing.T) {
	t.Parallel()

	calls := 0
	client := &mock.WebClient{
		GetFn: func(ctx context.Context, url string) sitemapper.Response {
			calls++
			if calls == 1 {
				return &sitemapper.ErrorResponse{Message: "503 Service Unavailable", Retryable: true}
			}
			return &sitemapper.SuccessResponse{StatusCode: 200, Data: []byte("ok")}
		},
	}

	resp := fetch.RetryGet(context.Background(), client, "https://example.com/sitemap.xml")

	success, ok := resp.(*sitemapper.SuccessResponse)
	require.True(t, ok, "expected success after one retry, got %#v", resp)
	assert.Equal(t, []byte("ok"), success.Data)
	assert.Equal(t, 2, client.GetCalls())
}

func TestRetryGet_NonRetryableErrorReturnsImmediately(t *testing.T) {
	t.Parallel()

	client := &mock.WebClient{
		GetFn: func(ctx context.Context, url string) sitemapper.Response {
			return &sitemapper.ErrorResponse{Message: "404 Not Found"}
		},
	}

	resp := fetch.RetryGet(context.Background(), client, "https://example.com/sitemap.xml")

	errResp, ok := resp.(*sitemapper.ErrorResponse)
	require.True(t, ok)
	assert.Equal(t, "404 Not Found", errResp.Message)
	assert.Equal(t, 1, client.GetCalls())
}

func TestRetryGetN_ExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	t.Parallel()

	client := &mock.WebClient{
		GetFn: func(ctx context.Context, url string) sitemapper.Response {
			return &sitemapper.ErrorResponse{Message: "500 Internal Server Error", Retryable: true}
		},
	}

	resp := fetch.RetryGetN(context.Background(), client, "https://example.com/sitemap.xml", 4)

	errResp, ok := resp.(*sitemapper.ErrorResponse)
	require.True(t, ok)
	assert.Equal(t, "500 Internal Server Error", errResp.Message)
	assert.Equal(t, 4, client.GetCalls())
}

func TestRetryGet_CanceledContext(t *testing.T) {
	t.Parallel()

	client := &mock.WebClient{
		GetFn: func(ctx context.Context, url string) sitemapper.Response {
			t.Fatal("Get must not be called with a canceled context")
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := fetch.RetryGet(ctx, client, "https://example.com/sitemap.xml")

	errResp, ok := resp.(*sitemapper.ErrorResponse)
	require.True(t, ok)
	assert.False(t, errResp.Retryable)
	assert.Equal(t, 0, client.GetCalls())
}
