package storage

import (
	"context"
	"errors"
	"time"
)

// UsageState is the persisted form of the governor's counters.
// It is overwritten wholesale on each save.
type UsageState struct {
	// TotalTokens is the cumulative token count since the last daily reset.
	TotalTokens int64 `json:"total_tokens"`

	// PromptTokens is the cumulative prompt token count.
	PromptTokens int64 `json:"prompt_tokens"`

	// CompletionTokens is the cumulative completion token count.
	CompletionTokens int64 `json:"completion_tokens"`

	// EmbeddingTokens is the cumulative embedding token count.
	EmbeddingTokens int64 `json:"embedding_tokens"`

	// HourlyUsage is the token count consumed in the current hourly window.
	HourlyUsage int64 `json:"hourly_usage"`

	// DailyWindowStart is when the daily window last reset.
	DailyWindowStart time.Time `json:"daily_window_start"`

	// HourlyWindowStart is when the hourly window last reset.
	HourlyWindowStart time.Time `json:"hourly_window_start"`
}

// Backend persists governor usage snapshots.
//
// Implementations must be safe for concurrent use. Callers treat every
// method as best-effort; errors are logged by the caller, never fatal.
type Backend interface {
	// SaveUsage overwrites the persisted usage snapshot.
	SaveUsage(ctx context.Context, state *UsageState) error

	// LoadUsage returns the persisted snapshot, or nil if none exists.
	LoadUsage(ctx context.Context) (*UsageState, error)

	// Close releases any resources held by the backend.
	Close() error
}

// ErrStorageFailure is returned when a backend fails to read or write.
var ErrStorageFailure = errors.New("storage backend failure")
