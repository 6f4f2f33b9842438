package httpx

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryableError(t *testing.T) {
	assert.False(t, IsRetryableError(nil))
	assert.False(t, IsRetryableError(context.Canceled))
	assert.True(t, IsRetryableError(context.DeadlineExceeded))
	assert.True(t, IsRetryableError(&StatusError{StatusCode: 429}))
	assert.True(t, IsRetryableError(&StatusError{StatusCode: 503}))
	assert.False(t, IsRetryableError(&StatusError{StatusCode: 400}))
	assert.False(t, IsRetryableError(errors.New("boom")))
}

func TestRetryAfterDuration(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", "3")
	assert.Equal(t, 3*time.Second, RetryAfterDuration(resp, time.Second, 10*time.Second))
	assert.Equal(t, 2*time.Second, RetryAfterDuration(resp, time.Second, 2*time.Second))
	assert.Equal(t, time.Second, RetryAfterDuration(nil, time.Second, 0))
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryPolicy{MaxRetries: 3, BaseBackoff: time.Millisecond}, func(context.Context) (*http.Response, error) {
		calls++
		return nil, &StatusError{Service: "x", StatusCode: 401}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryRecovers(t *testing.T) {
	calls := 0
	var retried []int
	err := Retry(context.Background(), RetryPolicy{
		MaxRetries:  3,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  2 * time.Millisecond,
		OnRetry:     func(attempt int, _ time.Duration, _ error) { retried = append(retried, attempt) },
	}, func(context.Context) (*http.Response, error) {
		calls++
		if calls < 3 {
			return nil, &StatusError{Service: "x", StatusCode: 502}
		}
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestRetryZeroRetriesIsSingleAttempt(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), RetryPolicy{}, func(context.Context) (*http.Response, error) {
		calls++
		return nil, &StatusError{Service: "x", StatusCode: 503}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
