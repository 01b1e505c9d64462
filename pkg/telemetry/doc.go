// Package telemetry provides observability for Turnstile.
//
// # Components
//
//   - logging: Structured slog logger construction
//   - metrics: Prometheus metrics collection and exposition
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//
//	collector := metrics.NewCollector(metrics.Config{Enabled: true}, nil)
//	collector.RecordAdmission(true)
//	http.Handle("/metrics", collector.Handler())
//
// Components take a *slog.Logger and scope it with a "component"
// attribute so log lines can be traced to their source.
package telemetry
