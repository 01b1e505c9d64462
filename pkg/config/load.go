package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns
// any errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Variables follow the naming
// convention TURNSTILE_SECTION_FIELD; the bare legacy names for the
// limit knobs are also recognized, with the prefixed form winning.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// envString reads the first set variable from names.
func envString(names ...string) (string, bool) {
	for _, name := range names {
		if val := os.Getenv(name); val != "" {
			return val, true
		}
	}
	return "", false
}

func envInt(dst *int, names ...string) {
	if val, ok := envString(names...); ok {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envInt64(dst *int64, names ...string) {
	if val, ok := envString(names...); ok {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			*dst = i
		}
	}
}

func envFloat(dst *float64, names ...string) {
	if val, ok := envString(names...); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envDuration(dst *time.Duration, names ...string) {
	if val, ok := envString(names...); ok {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func envBool(dst *bool, names ...string) {
	if val, ok := envString(names...); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. For the limit and threshold knobs, the bare legacy
// names are accepted as fallbacks after the TURNSTILE_-prefixed form.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val, ok := envString("TURNSTILE_SERVER_LISTEN_ADDRESS"); ok {
		cfg.Server.ListenAddress = val
	}
	envDuration(&cfg.Server.ReadTimeout, "TURNSTILE_SERVER_READ_TIMEOUT")
	envDuration(&cfg.Server.WriteTimeout, "TURNSTILE_SERVER_WRITE_TIMEOUT")
	envDuration(&cfg.Server.IdleTimeout, "TURNSTILE_SERVER_IDLE_TIMEOUT")
	envDuration(&cfg.Server.ShutdownTimeout, "TURNSTILE_SERVER_SHUTDOWN_TIMEOUT")

	// Limits overrides
	envInt64(&cfg.Limits.DailyTokenLimit,
		"TURNSTILE_LIMITS_DAILY_TOKEN_LIMIT", "DAILY_TOKEN_LIMIT")
	envInt64(&cfg.Limits.HourlyTokenLimit,
		"TURNSTILE_LIMITS_HOURLY_TOKEN_LIMIT", "HOURLY_TOKEN_LIMIT")
	envInt64(&cfg.Limits.RequestTokenLimit,
		"TURNSTILE_LIMITS_REQUEST_TOKEN_LIMIT", "REQUEST_TOKEN_LIMIT")
	envInt(&cfg.Limits.RateLimitPerMinute,
		"TURNSTILE_LIMITS_RATE_LIMIT_PER_MINUTE", "RATE_LIMIT_PER_MINUTE")
	envInt(&cfg.Limits.RateLimitPerHour,
		"TURNSTILE_LIMITS_RATE_LIMIT_PER_HOUR", "RATE_LIMIT_PER_HOUR")
	envInt(&cfg.Limits.RateLimitPerDay,
		"TURNSTILE_LIMITS_RATE_LIMIT_PER_DAY", "RATE_LIMIT_PER_DAY")
	envInt(&cfg.Limits.MaxClients, "TURNSTILE_LIMITS_MAX_CLIENTS")

	// Monitoring overrides
	envInt(&cfg.Monitoring.MaxAlerts,
		"TURNSTILE_MONITORING_MAX_ALERTS", "MAX_ALERTS")
	envFloat(&cfg.Monitoring.DailyUsageWarningThreshold,
		"TURNSTILE_MONITORING_DAILY_USAGE_WARNING_THRESHOLD", "DAILY_USAGE_WARNING_THRESHOLD")
	envFloat(&cfg.Monitoring.DailyUsageCriticalThreshold,
		"TURNSTILE_MONITORING_DAILY_USAGE_CRITICAL_THRESHOLD", "DAILY_USAGE_CRITICAL_THRESHOLD")
	envFloat(&cfg.Monitoring.HourlyUsageWarningThreshold,
		"TURNSTILE_MONITORING_HOURLY_USAGE_WARNING_THRESHOLD", "HOURLY_USAGE_WARNING_THRESHOLD")
	envFloat(&cfg.Monitoring.HourlyUsageCriticalThreshold,
		"TURNSTILE_MONITORING_HOURLY_USAGE_CRITICAL_THRESHOLD", "HOURLY_USAGE_CRITICAL_THRESHOLD")
	envFloat(&cfg.Monitoring.RateLimitWarningThreshold,
		"TURNSTILE_MONITORING_RATE_LIMIT_WARNING_THRESHOLD", "RATE_LIMIT_WARNING_THRESHOLD")
	envFloat(&cfg.Monitoring.RateLimitCriticalThreshold,
		"TURNSTILE_MONITORING_RATE_LIMIT_CRITICAL_THRESHOLD", "RATE_LIMIT_CRITICAL_THRESHOLD")
	envInt(&cfg.Monitoring.RetentionDays, "TURNSTILE_MONITORING_RETENTION_DAYS")
	if val, ok := envString("TURNSTILE_MONITORING_MAINTENANCE_SCHEDULE"); ok {
		cfg.Monitoring.MaintenanceSchedule = val
	}

	// Storage overrides
	if val, ok := envString("TURNSTILE_STORAGE_BACKEND"); ok {
		cfg.Storage.Backend = val
	}
	if val, ok := envString("TURNSTILE_STORAGE_USAGE_PATH"); ok {
		cfg.Storage.UsagePath = val
	}
	if val, ok := envString("TURNSTILE_STORAGE_ALERTS_PATH"); ok {
		cfg.Storage.AlertsPath = val
	}

	// Telemetry overrides
	if val, ok := envString("TURNSTILE_TELEMETRY_LOGGING_LEVEL"); ok {
		cfg.Telemetry.Logging.Level = val
	}
	if val, ok := envString("TURNSTILE_TELEMETRY_LOGGING_FORMAT"); ok {
		cfg.Telemetry.Logging.Format = val
	}
	envBool(&cfg.Telemetry.Metrics.Enabled, "TURNSTILE_TELEMETRY_METRICS_ENABLED")
	if val, ok := envString("TURNSTILE_TELEMETRY_METRICS_PATH"); ok {
		cfg.Telemetry.Metrics.Path = val
	}

	// Token estimation overrides
	envInt(&cfg.Tokens.MaxTextLength,
		"TURNSTILE_TOKENS_MAX_TEXT_LENGTH", "MAX_TEXT_LENGTH")
	envInt(&cfg.Tokens.MaxQuestionLength,
		"TURNSTILE_TOKENS_MAX_QUESTION_LENGTH", "MAX_QUESTION_LENGTH")
}
