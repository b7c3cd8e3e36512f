// Package retry wraps external calls with bounded retries and exponential
// backoff. Only failures classified as transient are retried; anything
// else surfaces immediately. Exhaustion is reported as a wrapped
// ErrExhausted, never a panic.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"time"
)

// ErrExhausted marks a call that failed on every permitted attempt.
var ErrExhausted = errors.New("retries exhausted")

// ErrMalformedBody classifies an empty or unparsable response body on a
// call expected to return parsable content. Wrap decode failures with it
// to make them retryable.
var ErrMalformedBody = errors.New("malformed response body")

// StatusError is a non-success HTTP status. Rate-limit and server-side
// statuses are treated as transient.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.Status)
}

// Policy fixes the retry schedule for one class of external call. The
// delay before attempt k (k >= 2) is Base * 2^(k-2) doubling per failure;
// Jitter adds up to one extra second per wait, used for AI-backend calls
// to spread concurrent retry storms.
type Policy struct {
	MaxAttempts int
	Base        time.Duration
	Jitter      bool

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Pagination is the schedule for feed page fetches.
func Pagination() Policy {
	return Policy{MaxAttempts: 3, Base: 5 * time.Second}
}

// Summarization is the schedule for AI summarization calls.
func Summarization() Policy {
	return Policy{MaxAttempts: 3, Base: 2 * time.Second, Jitter: true}
}

// WithSleep returns a copy of the policy using the given sleep function.
func (p Policy) WithSleep(sleep func(ctx context.Context, d time.Duration) error) Policy {
	p.sleep = sleep
	return p
}

// Delay reports the backoff applied after the k-th failed attempt
// (1-based), before jitter.
func (p Policy) Delay(failed int) time.Duration {
	d := p.Base
	for i := 1; i < failed; i++ {
		d *= 2
	}
	return d
}

// Transient reports whether err belongs to the retryable taxonomy:
// network failures, malformed/empty bodies, and rate-limit or
// server-side HTTP statuses.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, ErrMalformedBody) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == 429 || statusErr.Code >= 500
	}
	return false
}

// Do invokes fn up to p.MaxAttempts times, backing off between attempts.
// The last transient error is wrapped together with ErrExhausted when
// retries run out; non-transient errors are returned as-is from the
// failing attempt.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		value, err := fn(ctx)
		if err == nil {
			return value, nil
		}
		if !Transient(err) {
			return zero, err
		}
		lastErr = err

		if attempt == p.MaxAttempts {
			break
		}

		wait := p.Delay(attempt)
		if p.Jitter {
			wait += time.Duration(rand.Int63n(int64(time.Second)))
		}
		if err := sleep(ctx, wait); err != nil {
			return zero, err
		}
	}

	return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, p.MaxAttempts, lastErr)
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
