// Package retry runs an operation under a bounded retry policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	DefaultMaxAttempts    = 10
	DefaultDelay          = time.Second
	DefaultAttemptTimeout = 30 * time.Second
)

var (
	// ErrExhausted matches any *ExhaustedError.
	ErrExhausted = errors.New("retry attempts exhausted")
	// ErrAttemptTimeout marks a single attempt that ran past Policy.AttemptTimeout
	// while the caller's context was still alive.
	ErrAttemptTimeout = errors.New("attempt timed out")
)

// Policy describes how an operation is retried.
type Policy struct {
	MaxAttempts    int
	Delay          time.Duration
	AttemptTimeout time.Duration

	// NewBackOff overrides the fixed Delay schedule. It is called once per Do.
	NewBackOff func() backoff.BackOff

	// Retryable reports whether a failed attempt may be repeated.
	// A nil predicate retries nothing.
	Retryable func(err error) bool

	// OnRetry is called before sleeping ahead of the next attempt.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultPolicy is 10 attempts, one second apart, 30 seconds each.
func DefaultPolicy(retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts:    DefaultMaxAttempts,
		Delay:          DefaultDelay,
		AttemptTimeout: DefaultAttemptTimeout,
		Retryable:      retryable,
	}
}

type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

// Do calls fn until it succeeds, returns a non-retryable error, or the policy runs
// out of attempts. Each call gets its own deadline derived from ctx.
//
// Cancelling ctx stops the loop and Do returns ctx.Err(). A non-retryable error
// is returned unchanged. Running out of attempts yields an *ExhaustedError
// wrapping the last failure.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T

	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}

	var (
		attempt int
		last    error
		stopped bool
	)

	op := func() (T, error) {
		attempt++

		runCtx := ctx
		if p.AttemptTimeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(ctx, p.AttemptTimeout)
			defer cancel()
		}

		res, err := fn(runCtx, attempt)
		if err == nil {
			return res, nil
		}

		if ctx.Err() != nil {
			stopped = true
			last = ctx.Err()
			return zero, backoff.Permanent(last)
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", ErrAttemptTimeout, err)
		}

		last = err
		if p.Retryable == nil || !p.Retryable(err) {
			stopped = true
			return zero, backoff.Permanent(err)
		}
		return zero, err
	}

	var b backoff.BackOff
	if p.NewBackOff != nil {
		b = p.NewBackOff()
	} else {
		b = backoff.NewConstantBackOff(p.Delay)
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(p.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
	}
	if p.OnRetry != nil {
		opts = append(opts, backoff.WithNotify(func(err error, wait time.Duration) {
			p.OnRetry(attempt, err, wait)
		}))
	}

	res, err := backoff.Retry(ctx, op, opts...)
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, ctxErr
	}
	if stopped {
		return zero, last
	}
	return zero, &ExhaustedError{Attempts: attempt, Last: last}
}
