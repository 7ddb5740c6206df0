package util

import (
	"context"
	"errors"
	"time"
)

// RetryWithBackoff calls fn up to maxTries times until it returns a nil
// error or ctx is done. If maxTries <= 0, it defaults to 1. The wait between
// attempts starts at delay and doubles after each failure; a zero delay
// retries immediately. It returns ctx.Err() if the context is canceled,
// otherwise the last error.
func RetryWithBackoff[T any](
	ctx context.Context,
	maxTries int,
	delay time.Duration,
	fn func(context.Context) (T, error),
) (T, error) {
	if maxTries <= 0 {
		maxTries = 1
	}
	var lastErr error
	var zero T
	for i := 0; i < maxTries; i++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, err
		}
		lastErr = err

		if delay > 0 && i < maxTries-1 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
			delay *= 2
		}
	}
	return zero, lastErr
}
