package llm

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrRateLimitExceeded reports that an operation stayed rate limited
// through its whole retry budget.
var ErrRateLimitExceeded = errors.New("rate limit retries exhausted")

// RateLimitedError marks a provider-reported rate limit. SuggestedDelay
// carries the provider's retry hint when one was given (Retry-After).
type RateLimitedError struct {
	SuggestedDelay time.Duration
	Err            error
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *RateLimitedError) Unwrap() error { return e.Err }

// IsRateLimited reports whether err is a transient rate-limit failure.
// Providers that do not return typed errors are recognized by the
// conventional markers in the message.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "too many requests")
}

// suggestedDelay extracts the provider retry hint, zero when absent.
func suggestedDelay(err error) time.Duration {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl.SuggestedDelay
	}
	return 0
}
