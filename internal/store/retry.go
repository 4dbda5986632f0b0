package store

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// RetryPolicy bounds how write-path operations retry transient store
// failures. Each attempt runs under CallTimeout; exceeding it counts as a
// transient failure and enters the same backoff path.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	CallTimeout time.Duration
}

// DefaultRetryPolicy matches the store's observed behavior: calls take up
// to ~3s, so each attempt gets headroom beyond that, and three attempts
// push the success probability past 99.9% at a 10% per-call failure rate.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseBackoff: 200 * time.Millisecond,
		MaxBackoff:  2 * time.Second,
		CallTimeout: 5 * time.Second,
	}
}

// Do runs fn under the policy. Non-transient errors (NotFound, caller bugs)
// return immediately; transient errors are retried with exponential backoff
// and jitter until the attempt bound is reached. The last transient error is
// returned once attempts are exhausted.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, p.backoff(attempt-1)); err != nil {
				return NewTransientError(op, err)
			}
		}

		callCtx := ctx
		var cancel context.CancelFunc
		if p.CallTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, p.CallTimeout)
		}
		err := fn(callCtx)
		if cancel != nil {
			cancel()
		}

		if err == nil {
			return nil
		}
		if context.Cause(ctx) != nil {
			// The caller's context is gone; do not keep retrying a
			// superseded or abandoned operation.
			return NewTransientError(op, context.Cause(ctx))
		}
		if !IsTransient(err) && !isTimeout(err) {
			return err
		}
		lastErr = err
	}

	if !IsTransient(lastErr) {
		lastErr = NewTransientError(op, lastErr)
	}
	return lastErr
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	exp := p.BaseBackoff * time.Duration(1<<attempt)
	if exp > p.MaxBackoff {
		exp = p.MaxBackoff
	}
	jitter := time.Duration(rand.Int63n(int64(exp/2) + 1))
	return exp + jitter
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
