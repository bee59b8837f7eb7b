package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// StatusError is a non-2xx response from GitHub.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("github responded %d: %s", e.StatusCode, e.Body)
}

// RetryPolicy bounds the retry loop. Delays grow linearly for 429 and
// exponentially for everything else; there is no jitter.
type RetryPolicy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	RateLimitDelay time.Duration
}

// DefaultRetryPolicy returns 3 attempts with 1s exponential and 10s linear
// rate-limit delays.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		BaseDelay:      time.Second,
		RateLimitDelay: 10 * time.Second,
	}
}

// Budget is the longest a retried operation can take when every attempt
// runs to timeout and every wait uses the larger of the two backoffs.
func (p RetryPolicy) Budget(timeout time.Duration) time.Duration {
	attempts := max(p.MaxAttempts, 1)

	total := time.Duration(attempts) * timeout
	for n := 1; n < attempts; n++ {
		total += max(p.BaseDelay*time.Duration(1<<(n-1)), p.RateLimitDelay*time.Duration(n))
	}
	return total
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the production SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retrier runs an operation until it succeeds, fails permanently, or runs
// out of attempts.
type Retrier struct {
	policy  RetryPolicy
	sleep   SleepFunc
	logger  *slog.Logger
	onRetry func(operation string)
}

// NewRetrier creates a Retrier. A nil sleep uses Sleep and a nil logger
// uses slog.Default().
func NewRetrier(policy RetryPolicy, sleep SleepFunc, logger *slog.Logger) *Retrier {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if sleep == nil {
		sleep = Sleep
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrier{policy: policy, sleep: sleep, logger: logger}
}

// Do calls fn up to MaxAttempts times and returns the last error.
func (r *Retrier) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt == r.policy.MaxAttempts || !isRetryable(err) || ctx.Err() != nil {
			return err
		}

		delay := r.delay(err, attempt)
		r.logger.Warn("retrying github call",
			"operation", operation,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
		if r.onRetry != nil {
			r.onRetry(operation)
		}

		if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
			return errors.Join(err, sleepErr)
		}
	}
	return err
}

// delay returns the wait before retry n (1-based).
func (r *Retrier) delay(err error, n int) time.Duration {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
		return r.policy.RateLimitDelay * time.Duration(n)
	}
	return r.policy.BaseDelay * time.Duration(1<<(n-1))
}

// isRetryable reports whether err is worth another attempt: transport
// failures and timeouts carry no status, 429 and 5xx are transient.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return true
	}
	return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= http.StatusInternalServerError
}
