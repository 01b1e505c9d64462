// Package config provides configuration management for Turnstile.
//
// This package handles loading, validating, and managing configuration
// from YAML files with environment variable overrides. It provides a
// type-safe configuration system with validation and sensible defaults.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention
// TURNSTILE_SECTION_FIELD. For example:
//
//   - TURNSTILE_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - TURNSTILE_LIMITS_DAILY_TOKEN_LIMIT overrides limits.daily_token_limit
//   - TURNSTILE_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// The bare variable names used by earlier deployments are also
// recognized for the limit knobs (DAILY_TOKEN_LIMIT, HOURLY_TOKEN_LIMIT,
// REQUEST_TOKEN_LIMIT, RATE_LIMIT_PER_MINUTE, RATE_LIMIT_PER_HOUR,
// RATE_LIMIT_PER_DAY, MAX_ALERTS, the *_WARNING_THRESHOLD and
// *_CRITICAL_THRESHOLD pairs, MAX_TEXT_LENGTH, MAX_QUESTION_LENGTH).
// The TURNSTILE_-prefixed form wins when both are set.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later
// overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Hot Reload
//
// A FileWatcher can watch the configuration file and invoke a reload
// callback when it changes, with debouncing to absorb editor write
// storms. Only the limit and threshold knobs are safe to change at
// runtime; address and storage changes require a restart.
package config
