package monitor

import (
	"context"
	"time"
)

// Level is the severity of an alert.
type Level string

const (
	// LevelInfo is an informational alert.
	LevelInfo Level = "info"

	// LevelWarning indicates usage approaching a limit or a degraded request.
	LevelWarning Level = "warning"

	// LevelError indicates a client-side request failure (4xx).
	LevelError Level = "error"

	// LevelCritical indicates usage at a limit or a server-side failure (5xx).
	LevelCritical Level = "critical"
)

// Alert detail categories, carried under the "type" key in Details.
const (
	TypeDailyUsage  = "daily_usage"
	TypeHourlyUsage = "hourly_usage"
	TypeRateLimit   = "rate_limit"
	TypeRequest     = "request"
)

// Alert is one entry in the monitoring history. Alerts are append-only
// and immutable once recorded.
type Alert struct {
	// ID uniquely identifies the alert.
	ID string `json:"id"`

	// Timestamp is when the alert was raised.
	Timestamp time.Time `json:"timestamp"`

	// Level is the alert severity.
	Level Level `json:"level"`

	// Message is the human-readable alert text.
	Message string `json:"message"`

	// Details carries free-form context, including the "type" category.
	Details map[string]any `json:"details"`
}

// Config contains alerting thresholds and history bounds.
// Thresholds are ratios of usage to limit in [0, 1].
type Config struct {
	// MaxAlerts caps the alert history. Default: 1000.
	MaxAlerts int

	// DailyUsageWarning is the daily-ratio warning threshold. Default: 0.80.
	DailyUsageWarning float64

	// DailyUsageCritical is the daily-ratio critical threshold. Default: 0.95.
	DailyUsageCritical float64

	// HourlyUsageWarning is the hourly-ratio warning threshold. Default: 0.80.
	HourlyUsageWarning float64

	// HourlyUsageCritical is the hourly-ratio critical threshold. Default: 0.95.
	HourlyUsageCritical float64

	// RateLimitWarning is the rate-limit proximity warning threshold. Default: 0.80.
	RateLimitWarning float64

	// RateLimitCritical is the rate-limit proximity critical threshold. Default: 0.95.
	RateLimitCritical float64
}

// Summary aggregates recent alert activity.
type Summary struct {
	// Total is the number of alerts in the queried window.
	Total int `json:"total"`

	// ByLevel counts alerts per severity.
	ByLevel map[Level]int `json:"by_level"`

	// ByType counts alerts per detail category.
	ByType map[string]int `json:"by_type"`

	// Recent holds the last 10 alerts in the window, oldest first.
	Recent []Alert `json:"recent"`
}

// AlertStore persists the alert history. The history is written
// wholesale on each save, already capped by the caller.
//
// Implementations must be safe for concurrent use.
type AlertStore interface {
	// SaveAlerts overwrites the persisted history with alerts.
	SaveAlerts(ctx context.Context, alerts []Alert) error

	// LoadAlerts returns the persisted history, oldest first.
	LoadAlerts(ctx context.Context) ([]Alert, error)

	// Close releases any resources held by the store.
	Close() error
}
