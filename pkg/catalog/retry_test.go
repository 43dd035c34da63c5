package catalog

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"google.golang.org/api/googleapi"
)

func TestIsRateLimited(t *testing.T) {
	assert.Equal(t, true, isRateLimited(&googleapi.Error{Code: http.StatusTooManyRequests}))
	assert.Equal(t, true, isRateLimited(&googleapi.Error{
		Code:   http.StatusForbidden,
		Errors: []googleapi.ErrorItem{{Reason: "quotaExceeded"}},
	}))
	assert.Equal(t, false, isRateLimited(&googleapi.Error{Code: http.StatusForbidden}))
	assert.Equal(t, false, isRateLimited(errors.New("transport error")))
}

func TestRetryAfterHint(t *testing.T) {
	header := http.Header{}
	header.Set("Retry-After", "30")
	hint, ok := retryAfterHint(&googleapi.Error{Code: http.StatusTooManyRequests, Header: header})
	assert.Equal(t, true, ok)
	assert.Equal(t, 30*time.Second, hint)

	_, ok = retryAfterHint(&googleapi.Error{Code: http.StatusTooManyRequests})
	assert.Equal(t, false, ok)
}

func TestWithRetryStopsAfterSuccess(t *testing.T) {
	oldDelay := baseDelay
	baseDelay = time.Millisecond
	defer func() { baseDelay = oldDelay }()

	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		if calls < 2 {
			return errors.New("flaky")
		}
		return nil
	})

	assert.Equal(t, nil, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	oldDelay := baseDelay
	baseDelay = time.Millisecond
	defer func() { baseDelay = oldDelay }()

	calls := 0
	wantErr := errors.New("permanent")
	err := withRetry(context.Background(), func() error {
		calls++
		return wantErr
	})

	assert.Equal(t, wantErr, err)
	assert.Equal(t, maxAttempts, calls)
}
