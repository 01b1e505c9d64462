package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "limits.daily_token_limit").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. It implements the error interface and provides access
// to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a
// ValidationError if any validation rules fail. All validation errors
// are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateMonitoring(&cfg.Monitoring)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateTokens(&cfg.Tokens)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must be positive",
		})
	}

	return errs
}

func validateMonitoring(cfg *MonitoringConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxAlerts < 0 {
		errs = append(errs, FieldError{
			Field:   "monitoring.max_alerts",
			Message: "max alerts must be non-negative",
		})
	}

	thresholds := []struct {
		field    string
		warning  float64
		critical float64
	}{
		{"monitoring.daily_usage", cfg.DailyUsageWarningThreshold, cfg.DailyUsageCriticalThreshold},
		{"monitoring.hourly_usage", cfg.HourlyUsageWarningThreshold, cfg.HourlyUsageCriticalThreshold},
		{"monitoring.rate_limit", cfg.RateLimitWarningThreshold, cfg.RateLimitCriticalThreshold},
	}

	for _, t := range thresholds {
		if t.warning < 0 || t.warning > 1 {
			errs = append(errs, FieldError{
				Field:   t.field + "_warning_threshold",
				Message: "threshold must be between 0 and 1",
			})
		}
		if t.critical < 0 || t.critical > 1 {
			errs = append(errs, FieldError{
				Field:   t.field + "_critical_threshold",
				Message: "threshold must be between 0 and 1",
			})
		}
		if t.warning > t.critical {
			errs = append(errs, FieldError{
				Field:   t.field + "_warning_threshold",
				Message: "warning threshold must not exceed critical threshold",
			})
		}
	}

	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "monitoring.retention_days",
			Message: "retention days must be non-negative",
		})
	}

	if cfg.MaintenanceSchedule != "" {
		if _, err := cron.ParseStandard(cfg.MaintenanceSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "monitoring.maintenance_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
		// No paths required.
	case "sqlite":
		if cfg.UsagePath == "" {
			errs = append(errs, FieldError{
				Field:   "storage.usage_path",
				Message: "usage path is required for the sqlite backend",
			})
		}
		if cfg.AlertsPath == "" {
			errs = append(errs, FieldError{
				Field:   "storage.alerts_path",
				Message: "alerts path is required for the sqlite backend",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("unknown backend %q, must be memory or sqlite", cfg.Backend),
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q, must be debug, info, warn, or error", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q, must be json or text", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}

	return errs
}

func validateTokens(cfg *TokensConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxTextLength < 0 {
		errs = append(errs, FieldError{
			Field:   "tokens.max_text_length",
			Message: "max text length must be non-negative",
		})
	}
	if cfg.MaxQuestionLength < 0 {
		errs = append(errs, FieldError{
			Field:   "tokens.max_question_length",
			Message: "max question length must be non-negative",
		})
	}

	return errs
}
