package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func captureDelays(t *testing.T) *[]time.Duration {
	t.Helper()
	var delays []time.Duration
	orig := sleep
	sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	t.Cleanup(func() { sleep = orig })
	return &delays
}

func TestInvokeExhaustsRetries(t *testing.T) {
	delays := captureDelays(t)

	calls := 0
	policy := Policy{MaxRetries: 4, BaseDelay: time.Second}
	err := Invoke(context.Background(), policy, func() error {
		calls++
		return &RateLimitedError{Err: errors.New("429")}
	})

	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("want ErrRateLimitExceeded, got %v", err)
	}
	if calls != 4 {
		t.Errorf("fn called %d times, want exactly 4", calls)
	}

	// Backoff must be non-decreasing and bounded by base*2^maxRetries
	// plus jitter.
	bound := policy.BaseDelay*(1<<policy.MaxRetries) + jitterMax
	var prev time.Duration
	for i, d := range *delays {
		if d < prev-jitterMax {
			t.Errorf("delay %d (%v) decreased below previous (%v)", i, d, prev)
		}
		if d > bound {
			t.Errorf("delay %d (%v) exceeds bound %v", i, d, bound)
		}
		prev = d
	}
	if len(*delays) != 3 {
		t.Errorf("slept %d times, want 3 (between 4 attempts)", len(*delays))
	}
}

func TestInvokeFatalNoRetry(t *testing.T) {
	captureDelays(t)

	calls := 0
	fatal := errors.New("model not found")
	err := Invoke(context.Background(), Policy{MaxRetries: 5, BaseDelay: time.Second}, func() error {
		calls++
		return fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("want fatal error passthrough, got %v", err)
	}
	if calls != 1 {
		t.Errorf("fatal error retried: %d calls", calls)
	}
}

func TestInvokeSucceedsMidway(t *testing.T) {
	captureDelays(t)

	calls := 0
	err := Invoke(context.Background(), Policy{MaxRetries: 3, BaseDelay: time.Second}, func() error {
		calls++
		if calls < 2 {
			return &RateLimitedError{Err: errors.New("too many requests")}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("got %d calls, want 2", calls)
	}
}

func TestInvokeHonorsSuggestedDelay(t *testing.T) {
	delays := captureDelays(t)

	hint := 30 * time.Second
	_ = Invoke(context.Background(), Policy{MaxRetries: 2, BaseDelay: time.Second}, func() error {
		return &RateLimitedError{SuggestedDelay: hint, Err: errors.New("429")}
	})

	if len(*delays) != 1 {
		t.Fatalf("slept %d times, want 1", len(*delays))
	}
	if d := (*delays)[0]; d < hint || d > hint+jitterMax {
		t.Errorf("delay %v does not honor provider hint %v", d, hint)
	}
}

func TestIsRateLimited(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{&RateLimitedError{Err: errors.New("x")}, true},
		{fmt.Errorf("wrap: %w", &RateLimitedError{Err: errors.New("x")}), true},
		{errors.New("status 429"), true},
		{errors.New("Too Many Requests"), true},
		{errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		if got := IsRateLimited(tt.err); got != tt.want {
			t.Errorf("IsRateLimited(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
