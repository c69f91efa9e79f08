// Package retry provides a small helper for retrying fallible
// operations with exponential backoff and jitter.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Options controls the retry loop. MaxRetries counts retries, not
// attempts: MaxRetries of 2 means up to 3 calls in total.
type Options struct {
	MaxRetries   int
	InitialDelay time.Duration
}

// DefaultOptions returns the default retry policy
func DefaultOptions() Options {
	return Options{
		MaxRetries:   2,
		InitialDelay: 250 * time.Millisecond,
	}
}

// Do runs fn until it succeeds, the retry budget runs out, shouldRetry
// rejects the error, or the context ends. The delay doubles per
// attempt with up to 50% extra jitter. A nil shouldRetry retries every
// error. Context cancellation is never retried and is reported as the
// context's error.
func Do[T any](ctx context.Context, fn func(context.Context) (T, error), shouldRetry func(error) bool, opts Options) (T, error) {
	var zero T

	if shouldRetry == nil {
		shouldRetry = func(error) bool { return true }
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, err
		}
		if attempt >= opts.MaxRetries || !shouldRetry(err) {
			return zero, err
		}

		delay := opts.InitialDelay << attempt
		if delay > 0 {
			delay += time.Duration(rand.Int63n(int64(delay)/2 + 1))
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}
