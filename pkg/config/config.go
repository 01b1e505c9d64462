package config

import "time"

// Config is the root configuration for Turnstile.
type Config struct {
	// Server contains HTTP server configuration.
	Server ServerConfig `yaml:"server"`

	// Limits contains token budget and request rate limit configuration.
	Limits LimitsConfig `yaml:"limits"`

	// Monitoring contains alerting thresholds and retention configuration.
	Monitoring MonitoringConfig `yaml:"monitoring"`

	// Storage contains persistence backend configuration.
	Storage StorageConfig `yaml:"storage"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Tokens contains estimation input ceilings.
	Tokens TokensConfig `yaml:"tokens"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// ListenAddress is the address the server binds to (e.g., ":8080").
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum keep-alive idle duration.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// AllowedOrigins lists CORS origins. "*" allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LimitsConfig contains token budgets and request rate limits.
// Zero values disable the corresponding check.
type LimitsConfig struct {
	// DailyTokenLimit is the maximum cumulative tokens per calendar day.
	DailyTokenLimit int64 `yaml:"daily_token_limit"`

	// HourlyTokenLimit is the maximum cumulative tokens per hourly window.
	HourlyTokenLimit int64 `yaml:"hourly_token_limit"`

	// RequestTokenLimit is the maximum estimated tokens per single call.
	RequestTokenLimit int64 `yaml:"request_token_limit"`

	// RateLimitPerMinute is the maximum requests per client per minute.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`

	// RateLimitPerHour is the maximum requests per client per hour.
	RateLimitPerHour int `yaml:"rate_limit_per_hour"`

	// RateLimitPerDay is the maximum requests per client per day.
	RateLimitPerDay int `yaml:"rate_limit_per_day"`

	// MaxClients bounds the number of tracked client identities.
	MaxClients int `yaml:"max_clients"`
}

// MonitoringConfig contains alerting thresholds and history bounds.
type MonitoringConfig struct {
	// MaxAlerts caps the alert history.
	MaxAlerts int `yaml:"max_alerts"`

	// DailyUsageWarningThreshold is the daily-ratio warning threshold.
	DailyUsageWarningThreshold float64 `yaml:"daily_usage_warning_threshold"`

	// DailyUsageCriticalThreshold is the daily-ratio critical threshold.
	DailyUsageCriticalThreshold float64 `yaml:"daily_usage_critical_threshold"`

	// HourlyUsageWarningThreshold is the hourly-ratio warning threshold.
	HourlyUsageWarningThreshold float64 `yaml:"hourly_usage_warning_threshold"`

	// HourlyUsageCriticalThreshold is the hourly-ratio critical threshold.
	HourlyUsageCriticalThreshold float64 `yaml:"hourly_usage_critical_threshold"`

	// RateLimitWarningThreshold is the rate-limit proximity warning threshold.
	RateLimitWarningThreshold float64 `yaml:"rate_limit_warning_threshold"`

	// RateLimitCriticalThreshold is the rate-limit proximity critical threshold.
	RateLimitCriticalThreshold float64 `yaml:"rate_limit_critical_threshold"`

	// RetentionDays is the alert age cutoff for scheduled pruning.
	RetentionDays int `yaml:"retention_days"`

	// MaintenanceSchedule is a cron expression for the maintenance cycle.
	// Empty disables scheduled maintenance.
	MaintenanceSchedule string `yaml:"maintenance_schedule"`
}

// StorageConfig contains persistence backend configuration.
type StorageConfig struct {
	// Backend selects the persistence backend: "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// UsagePath is the SQLite file for the usage snapshot.
	UsagePath string `yaml:"usage_path"`

	// AlertsPath is the SQLite file for the alert history.
	AlertsPath string `yaml:"alerts_path"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures Prometheus metrics exposure.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is the output format: json or text.
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled controls whether /metrics is served.
	Enabled bool `yaml:"enabled"`

	// Path is the metrics endpoint path.
	Path string `yaml:"path"`
}

// TokensConfig contains estimation input ceilings.
type TokensConfig struct {
	// MaxTextLength is the maximum accepted text input length in characters.
	MaxTextLength int `yaml:"max_text_length"`

	// MaxQuestionLength is the maximum accepted question length in characters.
	MaxQuestionLength int `yaml:"max_question_length"`
}
