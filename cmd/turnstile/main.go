// Turnstile is an admission control and usage accounting service for
// LLM-backed APIs.
//
// It sits in front of token-consuming operations, providing:
//   - Token budget enforcement (daily, hourly, and per-request)
//   - Per-client request rate limiting (minute, hour, and day windows)
//   - Usage monitoring with threshold alerting
//   - Persistent usage and alert history
//
// Usage:
//
//	# Start server with default configuration
//	turnstile run
//
//	# Start with custom configuration file
//	turnstile run --config /path/to/config.yaml
//
//	# Validate a configuration file
//	turnstile validate --config /path/to/config.yaml
//
//	# Show version information
//	turnstile version
package main

func main() {
	Execute()
}
