package config

import "time"

// Default values applied by ApplyDefaults. The limit defaults are
// generous enough to be effectively unlimited for a single-user
// deployment; production deployments tighten them in configuration.
const (
	DefaultListenAddress   = ":8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DefaultDailyTokenLimit    = 1_000_000
	DefaultHourlyTokenLimit   = 100_000
	DefaultRequestTokenLimit  = 50_000
	DefaultRateLimitPerMinute = 60
	DefaultRateLimitPerHour   = 1000
	DefaultRateLimitPerDay    = 10000
	DefaultMaxClients         = 10000

	DefaultMaxAlerts           = 1000
	DefaultWarningThreshold    = 0.80
	DefaultCriticalThreshold   = 0.95
	DefaultRetentionDays       = 7
	DefaultMaintenanceSchedule = "*/15 * * * *"

	DefaultStorageBackend = "memory"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsPath = "/metrics"

	DefaultMaxTextLength     = 50_000
	DefaultMaxQuestionLength = 1000
)

// ApplyDefaults fills unset configuration fields with default values.
// An explicit zero in YAML is indistinguishable from an unset field, so
// a zero limit means "use the default". To disable a check, set the
// limit to -1; negative limits pass validation and downstream
// components treat non-positive limits as unenforced.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}

	if cfg.Limits.DailyTokenLimit == 0 {
		cfg.Limits.DailyTokenLimit = DefaultDailyTokenLimit
	}
	if cfg.Limits.HourlyTokenLimit == 0 {
		cfg.Limits.HourlyTokenLimit = DefaultHourlyTokenLimit
	}
	if cfg.Limits.RequestTokenLimit == 0 {
		cfg.Limits.RequestTokenLimit = DefaultRequestTokenLimit
	}
	if cfg.Limits.RateLimitPerMinute == 0 {
		cfg.Limits.RateLimitPerMinute = DefaultRateLimitPerMinute
	}
	if cfg.Limits.RateLimitPerHour == 0 {
		cfg.Limits.RateLimitPerHour = DefaultRateLimitPerHour
	}
	if cfg.Limits.RateLimitPerDay == 0 {
		cfg.Limits.RateLimitPerDay = DefaultRateLimitPerDay
	}
	if cfg.Limits.MaxClients == 0 {
		cfg.Limits.MaxClients = DefaultMaxClients
	}

	if cfg.Monitoring.MaxAlerts == 0 {
		cfg.Monitoring.MaxAlerts = DefaultMaxAlerts
	}
	if cfg.Monitoring.DailyUsageWarningThreshold == 0 {
		cfg.Monitoring.DailyUsageWarningThreshold = DefaultWarningThreshold
	}
	if cfg.Monitoring.DailyUsageCriticalThreshold == 0 {
		cfg.Monitoring.DailyUsageCriticalThreshold = DefaultCriticalThreshold
	}
	if cfg.Monitoring.HourlyUsageWarningThreshold == 0 {
		cfg.Monitoring.HourlyUsageWarningThreshold = DefaultWarningThreshold
	}
	if cfg.Monitoring.HourlyUsageCriticalThreshold == 0 {
		cfg.Monitoring.HourlyUsageCriticalThreshold = DefaultCriticalThreshold
	}
	if cfg.Monitoring.RateLimitWarningThreshold == 0 {
		cfg.Monitoring.RateLimitWarningThreshold = DefaultWarningThreshold
	}
	if cfg.Monitoring.RateLimitCriticalThreshold == 0 {
		cfg.Monitoring.RateLimitCriticalThreshold = DefaultCriticalThreshold
	}
	if cfg.Monitoring.RetentionDays == 0 {
		cfg.Monitoring.RetentionDays = DefaultRetentionDays
	}
	if cfg.Monitoring.MaintenanceSchedule == "" {
		cfg.Monitoring.MaintenanceSchedule = DefaultMaintenanceSchedule
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}

	if cfg.Tokens.MaxTextLength == 0 {
		cfg.Tokens.MaxTextLength = DefaultMaxTextLength
	}
	if cfg.Tokens.MaxQuestionLength == 0 {
		cfg.Tokens.MaxQuestionLength = DefaultMaxQuestionLength
	}
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
