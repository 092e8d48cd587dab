package llm

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Policy is an immutable retry policy for rate-limited operations.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// jitter bounds, added to every backoff sleep.
const (
	jitterMin = 100 * time.Millisecond
	jitterMax = 500 * time.Millisecond
)

// sleep is swapped out by tests to observe backoff delays.
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Invoke runs fn up to policy.MaxRetries times. A rate-limited failure
// sleeps max(BaseDelay*2^attempt, providerSuggestedDelay) plus jitter
// and retries; once the budget is spent it returns ErrRateLimitExceeded.
// Any other failure propagates immediately without retry.
func Invoke(ctx context.Context, policy Policy, fn func() error) error {
	if policy.MaxRetries <= 0 {
		policy.MaxRetries = 1
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 2 * time.Second
	}

	var lastErr error
	for attempt := 0; attempt < policy.MaxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsRateLimited(lastErr) {
			return lastErr
		}
		if attempt == policy.MaxRetries-1 {
			break
		}

		delay := policy.BaseDelay * (1 << attempt)
		if hint := suggestedDelay(lastErr); hint > delay {
			delay = hint
		}
		delay += jitterMin + time.Duration(rand.Int63n(int64(jitterMax-jitterMin)))

		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrRateLimitExceeded, policy.MaxRetries, lastErr)
}
