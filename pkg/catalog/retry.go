package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"google.golang.org/api/googleapi"
)

const maxAttempts = 3

// baseDelay is a var so tests can shrink the backoff schedule.
var baseDelay = 2 * time.Second

// isRateLimited reports whether the error is a quota or rate-limit rejection.
// YouTube surfaces these as 429, or as 403 with a rate-limit reason.
func isRateLimited(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	if gerr.Code == http.StatusTooManyRequests {
		return true
	}
	if gerr.Code == http.StatusForbidden {
		for _, e := range gerr.Errors {
			if e.Reason == "rateLimitExceeded" || e.Reason == "quotaExceeded" || e.Reason == "userRateLimitExceeded" {
				return true
			}
		}
	}
	return false
}

// retryAfterHint extracts the server-provided Retry-After delay, if any.
func retryAfterHint(err error) (time.Duration, bool) {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Header == nil {
		return 0, false
	}
	v := gerr.Header.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	secs, perr := strconv.Atoi(v)
	if perr != nil || secs <= 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// withRetry runs fn up to maxAttempts times with exponential backoff. Rate
// limit rejections wait the server's Retry-After hint when one is present.
func withRetry(ctx context.Context, fn func() error) error {
	delay := baseDelay
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}

		wait := delay
		if isRateLimited(err) {
			if hint, ok := retryAfterHint(err); ok {
				wait = hint
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		delay *= 2
	}
	return err
}
