package ratelimit

import "time"

// Window identifies which request window denied a check.
type Window string

const (
	// WindowMinute is the per-minute request window.
	WindowMinute Window = "minute"

	// WindowHour is the per-hour request window.
	WindowHour Window = "hour"

	// WindowDay is the per-day request window.
	WindowDay Window = "day"
)

// Config contains request rate limits. Zero limits disable the
// corresponding window.
type Config struct {
	// PerMinute is the maximum requests per client per minute window.
	PerMinute int

	// PerHour is the maximum requests per client per hour window.
	PerHour int

	// PerDay is the maximum requests per client per day window.
	PerDay int

	// MaxClients bounds the number of tracked client identities.
	// Least-recently-seen clients are evicted past this. Default: 10000.
	MaxClients int
}

// Decision is the result of a rate limit check.
type Decision struct {
	// Allowed indicates whether the request may proceed.
	Allowed bool

	// Window names the violated window when Allowed is false.
	Window Window

	// Reason is a human-readable explanation, surfaced verbatim.
	Reason string

	// RetryAfter is how long until the violated window resets.
	RetryAfter time.Duration
}

// Remaining reports per-window remaining request budgets for a client.
type Remaining struct {
	Minute int `json:"minute"`
	Hour   int `json:"hour"`
	Day    int `json:"day"`
}

// MinuteStatus is the minute-window view used for X-RateLimit-* headers.
type MinuteStatus struct {
	// Limit is the configured per-minute cap.
	Limit int

	// Remaining is the unused budget in the current minute window.
	Remaining int

	// Reset is when the current minute window resets.
	Reset time.Time
}
