package ogc

import (
	"context"
	"time"
)

// RetryPolicy bounds the attempts made for one capability retrieval. The
// backoff is fixed, not exponential: upstream failures here are usually
// restarting services, not load.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy returns the production policy of 3 attempts with a
// 5 second wait in between.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: 5 * time.Second}
}

// Do runs fn until it succeeds or the attempt budget is spent, sleeping
// Backoff between attempts. Context cancellation interrupts the sleep and
// returns the context error.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(p.Backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err = fn(ctx); err == nil {
			return nil
		}
	}
	return err
}
