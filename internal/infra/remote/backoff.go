package remote

import (
	"context"
	"time"
)

// Backoff is a doubling delay capped at a maximum. It is not safe for
// concurrent use; each loop owns its own.
type Backoff struct {
	base    time.Duration
	max     time.Duration
	current time.Duration
}

func NewBackoff(base, maxDelay time.Duration) *Backoff {
	if base <= 0 {
		base = time.Second
	}
	if maxDelay < base {
		maxDelay = base
	}
	return &Backoff{base: base, max: maxDelay, current: base}
}

// Next returns the delay for the coming wait and advances the sequence.
func (b *Backoff) Next() time.Duration {
	delay := b.current
	next := b.current * 2
	if next > b.max {
		next = b.max
	}
	b.current = next
	return delay
}

// Sleep waits for the next delay, capped at limit when limit > 0. It returns
// false if ctx ended first.
func (b *Backoff) Sleep(ctx context.Context, limit time.Duration) bool {
	delay := b.Next()
	if limit > 0 && delay > limit {
		delay = limit
	}
	if delay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// RetryPolicy bounds retries of idempotent reads.
type RetryPolicy struct {
	MaxRetries int
	Base       time.Duration
	Max        time.Duration
}

// Retry runs fn and reissues it while the error is retryable, up to
// MaxRetries extra attempts. Only idempotent reads may go through Retry.
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	backoff := NewBackoff(policy.Base, policy.Max)
	var err error
	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil || attempt >= policy.MaxRetries || !IsRetryable(err) {
			return err
		}
		if !backoff.Sleep(ctx, 0) {
			return err
		}
	}
}
