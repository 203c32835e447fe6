package services

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/normsqa/internal/core/domain"
)

// RetryPolicy bounds how often an operation is attempted.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Backoff returns the wait before the given retry (1-based).
	Backoff func(retry int) time.Duration

	// Retryable reports whether an error is worth another attempt.
	Retryable func(err error) bool
}

// FixedBackoff waits d between attempts.
func FixedBackoff(d time.Duration) func(int) time.Duration {
	return func(int) time.Duration { return d }
}

// DefaultBatchRetry retries transient provider failures.
func DefaultBatchRetry() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: domain.DefaultMaxAttempts,
		Backoff:     FixedBackoff(domain.DefaultBackoff),
		Retryable:   domain.IsTransient,
	}
}

// DefaultOpenRetry retries opening the persisted index on any error
// other than cancellation or invalid input.
func DefaultOpenRetry() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: domain.DefaultMaxAttempts,
		Backoff:     FixedBackoff(domain.DefaultBackoff),
		Retryable: func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, domain.ErrInvalidInput)
		},
	}
}

// Do runs fn until it succeeds, fails permanently, the attempts are used
// up or ctx is done. It returns the number of attempts made and the last
// error.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) (int, error) {
	maxAttempts := max(p.MaxAttempts, 1)

	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(ctx); err == nil {
			return attempt, nil
		}
		if attempt >= maxAttempts || (p.Retryable != nil && !p.Retryable(err)) {
			return attempt, err
		}

		var wait time.Duration
		if p.Backoff != nil {
			wait = p.Backoff(attempt)
		}
		if werr := sleepCtx(ctx, wait); werr != nil {
			return attempt, errors.Join(err, werr)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
