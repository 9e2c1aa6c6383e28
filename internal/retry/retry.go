// Package retry provides the bounded-retry policy shared by the deployment
// executor. Attempts are strictly sequential; a new attempt starts only
// after the previous failure and its backoff.
package retry

import (
	"context"
	"math"
	"time"
)

// Policy bounds the attempt sequence of one logical operation.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy returns the default deployment retry policy
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   1 * time.Second,
		MaxDelay:    2 * time.Minute,
	}
}

// Backoff calculates the backoff duration after the given attempt number
// (1-based): BaseDelay * 2^attempt, capped at MaxDelay.
func (p Policy) Backoff(attempt int) time.Duration {
	backoff := time.Duration(math.Pow(2, float64(attempt))) * p.BaseDelay
	if p.MaxDelay > 0 && backoff > p.MaxDelay {
		backoff = p.MaxDelay
	}
	return backoff
}

// Do runs fn up to p.MaxAttempts times, sleeping the backoff between
// failures. retryable decides whether a failure may be retried; a terminal
// failure returns immediately. fn itself is never interrupted mid-attempt;
// only the backoff sleep observes context cancellation, in which case the
// last attempt's error is returned.
func Do(ctx context.Context, p Policy, retryable func(error) bool, fn func(ctx context.Context, attempt int) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(p.Backoff(attempt)):
		}
	}
	return lastErr
}
