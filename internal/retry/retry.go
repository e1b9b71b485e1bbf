// Package retry runs an operation under a bounded exponential-backoff policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy describes how many times an operation is attempted and how long to
// wait between attempts. The wait before attempt n+1 is BaseDelay*Multiplier^(n-1).
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64

	// Sleep waits for d or until ctx is done. Tests swap it for a fake clock.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is called after a failed attempt that will be retried.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// DefaultPolicy is three attempts waiting 5s and then 10s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   5 * time.Second,
		Multiplier:  2,
	}
}

// Delay returns the wait that follows the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	mult := p.Multiplier
	if mult <= 0 {
		mult = 1
	}
	d := float64(p.BaseDelay)
	for i := 1; i < attempt; i++ {
		d *= mult
	}
	return time.Duration(d)
}

// Do calls op until it succeeds, returns a permanent error, or the attempts
// run out. The attempt number passed to op starts at 1.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := op(ctx, attempt)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return err
		}
		lastErr = err
		if attempt == attempts {
			break
		}

		wait := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, err)
		}
		if err := sleep(ctx, wait); err != nil {
			return fmt.Errorf("retry aborted after attempt %d: %w", attempt, err)
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

// SleepContext blocks for d or until ctx is cancelled.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err, or anything it wraps, was marked Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
