package admission

import (
	"errors"
	"fmt"
	"time"

	"turnstile-hq/turnstile/pkg/admission/governor"
	"turnstile-hq/turnstile/pkg/admission/ratelimit"
)

// Sentinel errors for admission failures.
var (
	// ErrQuotaExceeded is returned when a token budget denies a call.
	ErrQuotaExceeded = errors.New("token quota exceeded")

	// ErrRateLimitExceeded is returned when a request window denies a call.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// QuotaExceededError carries the scope and reason of a token budget
// denial. It unwraps to ErrQuotaExceeded.
type QuotaExceededError struct {
	// Scope is the budget that denied the call.
	Scope governor.Scope

	// Reason is the human-readable denial reason, surfaced verbatim.
	Reason string
}

// Error implements the error interface.
func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded (%s): %s", e.Scope, e.Reason)
}

// Unwrap returns ErrQuotaExceeded for errors.Is matching.
func (e *QuotaExceededError) Unwrap() error {
	return ErrQuotaExceeded
}

// RateLimitExceededError carries the window, reason, and retry hint of
// a rate limit denial. It unwraps to ErrRateLimitExceeded.
type RateLimitExceededError struct {
	// Window is the request window that denied the call.
	Window ratelimit.Window

	// Reason is the human-readable denial reason, surfaced verbatim.
	Reason string

	// RetryAfter is how long until the violated window resets.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded (%s window): %s", e.Window, e.Reason)
}

// Unwrap returns ErrRateLimitExceeded for errors.Is matching.
func (e *RateLimitExceededError) Unwrap() error {
	return ErrRateLimitExceeded
}
