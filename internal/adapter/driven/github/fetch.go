package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/reviewdash/internal/apperror"
)

// DefaultTimeout bounds a single outbound call.
const DefaultTimeout = 30 * time.Second

// ErrRequestTimeout marks a call that ran out of time, either on a single
// request or across the whole retried fetch, as opposed to failing at the
// network layer.
var ErrRequestTimeout = errors.New("github request timed out")

// withTimeout runs fn under a per-call deadline and converts go-github
// error responses into *StatusError.
func withTimeout(ctx context.Context, timeout time.Duration, operation string, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(callCtx)
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrRequestTimeout, apperror.Timeout(operation, timeout))
	}
	return convertError(err)
}

// convertError maps go-github's typed errors onto StatusError. Anything else
// (DNS, refused connection, decode failure) passes through unchanged.
func convertError(err error) error {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return &StatusError{StatusCode: statusOf(rateErr.Response, http.StatusTooManyRequests), Body: rateErr.Message}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		// Secondary limits are surfaced as 429 so the retry loop backs off linearly.
		return &StatusError{StatusCode: http.StatusTooManyRequests, Body: abuseErr.Message}
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) {
		return &StatusError{StatusCode: statusOf(respErr.Response, http.StatusBadGateway), Body: respErr.Message}
	}

	return err
}

func statusOf(resp *http.Response, fallback int) int {
	if resp == nil || resp.StatusCode == 0 {
		return fallback
	}
	return resp.StatusCode
}
