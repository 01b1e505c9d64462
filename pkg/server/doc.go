// Package server provides the Turnstile HTTP API server.
//
// This package ties together the admission manager, handlers, and
// middleware, and provides server lifecycle management including start,
// graceful shutdown, and OS signal handling (SIGTERM, SIGINT).
//
// # Basic Usage
//
// Creating and starting a server:
//
//	import (
//	    "context"
//	    "turnstile-hq/turnstile/pkg/admission"
//	    "turnstile-hq/turnstile/pkg/config"
//	    "turnstile-hq/turnstile/pkg/server"
//	)
//
//	cfg, err := config.LoadConfigWithEnvOverrides(path)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	mgr := admission.NewManager(admissionConfig, usageStore, alertStore, logger)
//	defer mgr.Close()
//
//	srv := server.NewServer(cfg.Server, cfg.Telemetry.Metrics, mgr, collector, version, logger)
//	if err := srv.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// # Routes
//
// The server exposes the following HTTP endpoints:
//
//   - GET /usage - Current token usage snapshot
//   - POST /usage/reset - Zero the token counters (administrative)
//   - GET /monitoring/alerts - Recent alerts and an aggregated summary
//   - POST /monitoring/cleanup - Discard alerts past the retention window
//   - GET /health - Liveness probe
//   - GET /metrics - Prometheus metrics (when enabled)
//
// # Middleware Chain
//
// Requests pass through the following middleware (innermost to outermost):
//  1. RateLimit: Per-client request windows, 429 on denial
//  2. Observe: Feeds request outcomes to the monitor and metrics
//  3. CORS: Adds Cross-Origin Resource Sharing headers
//  4. RequestID: Generates unique request ID for tracing
//  5. Logging: Logs request/response details
//  6. Recovery: Recovers from panics and returns 500 error
//
// Health probes, usage inspection, and metrics scrapes are exempt from
// rate limiting so operators keep visibility while clients are
// throttled.
package server
