package sources

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy bounds one external source call: each attempt gets Timeout, and a failed
// attempt is retried Retries times before the source is reported unavailable.
type Policy struct {
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

// DefaultPolicy is 5s per attempt, retried once.
func DefaultPolicy() Policy {
	return Policy{Timeout: 5 * time.Second, Retries: 1, Backoff: 100 * time.Millisecond}
}

func (p Policy) withDefaults() Policy {
	out := p
	if out.Timeout <= 0 {
		out.Timeout = 5 * time.Second
	}
	if out.Retries < 0 {
		out.Retries = 0
	}
	if out.Backoff < 0 {
		out.Backoff = 0
	}
	return out
}

// Call runs fn under p. Failures come back as *SourceError for kind.
//
// If the parent ctx is canceled the bare ctx error is returned instead, so callers can
// tell an abandoned request apart from a failing provider. Panics inside fn are
// converted into a source failure.
func Call[T any](ctx context.Context, p Policy, kind Kind, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	var lastErr error
	for attempt := 0; attempt <= p.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := attemptOnce(ctx, p.Timeout, fn)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		lastErr = err

		if attempt < p.Retries && p.Backoff > 0 {
			select {
			case <-time.After(p.Backoff):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}
	return zero, Unavailable(kind, lastErr)
}

type attemptResult[T any] struct {
	v   T
	err error
}

// attemptOnce runs fn in its own goroutine so a provider that ignores ctx still
// cannot hold the caller past timeout.
func attemptOnce[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan attemptResult[T], 1)
	go func() {
		var res attemptResult[T]
		defer func() {
			if r := recover(); r != nil {
				res = attemptResult[T]{err: fmt.Errorf("provider panic: %v", r)}
			}
			done <- res
		}()
		res.v, res.err = fn(attemptCtx)
	}()

	var zero T
	select {
	case res := <-done:
		if res.err != nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("timed out after %s: %w", timeout, res.err)
		}
		return res.v, res.err
	case <-attemptCtx.Done():
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("timed out after %s", timeout)
		}
		return zero, attemptCtx.Err()
	}
}
