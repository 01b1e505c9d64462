package governor

import "time"

// Scope identifies which token budget denied an admission.
type Scope string

const (
	// ScopeDaily is the daily cumulative budget.
	ScopeDaily Scope = "daily"

	// ScopeHourly is the hourly cumulative budget.
	ScopeHourly Scope = "hourly"

	// ScopePerRequest is the per-call ceiling.
	ScopePerRequest Scope = "per_request"
)

// Operation classifies the model call being admitted.
type Operation string

const (
	// OpCompletion is a chat/text completion call.
	OpCompletion Operation = "completion"

	// OpEmbedding is an embedding call.
	OpEmbedding Operation = "embedding"
)

// ResetPolicy selects how a usage window decides it is due for a reset.
type ResetPolicy string

const (
	// ResetCalendarDay resets when the wall-clock date advances past the
	// window start's date.
	ResetCalendarDay ResetPolicy = "calendar_day"

	// ResetElapsed resets when more than the window period has elapsed
	// since the window start.
	ResetElapsed ResetPolicy = "elapsed"
)

// Config contains token budget configuration for the governor.
// Zero limits disable the corresponding check.
type Config struct {
	// DailyLimit is the maximum cumulative tokens per daily window.
	DailyLimit int64

	// HourlyLimit is the maximum cumulative tokens per hourly window.
	HourlyLimit int64

	// RequestLimit is the maximum estimated tokens for a single call.
	RequestLimit int64

	// DailyResetPolicy controls the daily window reset. Defaults to
	// ResetCalendarDay.
	DailyResetPolicy ResetPolicy

	// HourlyResetPolicy controls the hourly window reset. Defaults to
	// ResetElapsed.
	HourlyResetPolicy ResetPolicy
}

// Decision is the result of an admission check.
type Decision struct {
	// Allowed indicates whether the call may proceed.
	Allowed bool

	// Scope names the violated budget when Allowed is false.
	Scope Scope

	// Reason is a human-readable explanation, surfaced verbatim to callers.
	Reason string
}

// Usage is a read-only snapshot of the governor's counters.
type Usage struct {
	TotalTokens      int64 `json:"total_tokens"`
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	EmbeddingTokens  int64 `json:"embedding_tokens"`
	HourlyUsage      int64 `json:"hourly_usage"`

	DailyLimit   int64 `json:"daily_limit"`
	HourlyLimit  int64 `json:"hourly_limit"`
	RequestLimit int64 `json:"request_limit"`

	DailyRemaining  int64 `json:"daily_remaining"`
	HourlyRemaining int64 `json:"hourly_remaining"`

	LastReset   time.Time `json:"last_reset"`
	HourlyReset time.Time `json:"hourly_reset"`
}
