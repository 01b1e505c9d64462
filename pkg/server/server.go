package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"turnstile-hq/turnstile/pkg/admission"
	"turnstile-hq/turnstile/pkg/config"
	"turnstile-hq/turnstile/pkg/server/handlers"
	"turnstile-hq/turnstile/pkg/server/middleware"
	"turnstile-hq/turnstile/pkg/telemetry/metrics"
)

// Server is the Turnstile HTTP API server. It exposes usage inspection
// and reset, alert queries and cleanup, liveness, and optionally
// Prometheus metrics, with every request gated through the admission
// manager's rate limiter.
type Server struct {
	config        config.ServerConfig
	metricsConfig config.MetricsConfig
	manager       *admission.Manager
	collector     *metrics.Collector
	version       string
	logger        *slog.Logger

	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates an API server around the admission manager.
func NewServer(cfg config.ServerConfig, metricsCfg config.MetricsConfig, mgr *admission.Manager, collector *metrics.Collector, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		config:        cfg,
		metricsConfig: metricsCfg,
		manager:       mgr,
		collector:     collector,
		version:       version,
		logger:        logger.With("component", "server"),
		shutdownChan:  make(chan struct{}),
	}
}

// Start starts the HTTP server and blocks until shutdown, triggered by
// context cancellation, SIGINT/SIGTERM, or a Shutdown call.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"address", s.config.ListenAddress,
			"metrics_enabled", s.metricsConfig.Enabled,
		)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server, bounded by the configured
// shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// Stop requests shutdown from outside Start's select loop.
func (s *Server) Stop() {
	select {
	case s.shutdownChan <- struct{}{}:
	default:
	}
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler: routes wrapped in the
// full middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	usageHandler := handlers.NewUsageHandler(s.manager, s.logger)
	monitoringHandler := handlers.NewMonitoringHandler(s.manager.Monitor(), s.logger)
	healthHandler := handlers.NewHealthHandler(s.version)

	mux.HandleFunc("/usage", usageHandler.Get)
	mux.HandleFunc("/usage/reset", usageHandler.Reset)
	mux.HandleFunc("/monitoring/alerts", monitoringHandler.Alerts)
	mux.HandleFunc("/monitoring/cleanup", monitoringHandler.Cleanup)
	mux.HandleFunc("/health", healthHandler.Health)

	if s.metricsConfig.Enabled && s.collector != nil {
		path := s.metricsConfig.Path
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, s.collector.Handler())
	}

	// Middleware chain, innermost first. Rate limiting sits closest to
	// the handlers; observation wraps it so denied requests are recorded
	// too.
	var handler http.Handler = mux

	handler = middleware.RateLimitMiddleware(s.manager, s.collector)(handler)
	handler = middleware.ObserveMiddleware(s.manager.Monitor(), s.collector)(handler)

	corsConfig := middleware.DefaultCORSConfig()
	if len(s.config.AllowedOrigins) > 0 {
		corsConfig.AllowedOrigins = s.config.AllowedOrigins
	}
	handler = middleware.CORSMiddleware(corsConfig)(handler)

	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}
