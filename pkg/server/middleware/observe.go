package middleware

import (
	"net/http"
	"time"

	"turnstile-hq/turnstile/pkg/admission/ratelimit"
	"turnstile-hq/turnstile/pkg/monitor"
	"turnstile-hq/turnstile/pkg/telemetry/metrics"
)

// ObserveMiddleware feeds completed request outcomes into the usage
// monitor and the metrics collector: status, latency, and client
// identity. It wraps the rate limiter so denied requests are observed
// too; the client identity is derived here rather than read from the
// context, which the inner rate limiter cannot propagate outward.
// Token usage is unknown at this layer and reported as zero; handlers
// that consume tokens report them to the monitor directly.
//
// Example usage:
//
//	handler = ObserveMiddleware(mon, collector)(handler)
func ObserveMiddleware(mon *monitor.Monitor, collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			duration := time.Since(startTime)

			if mon != nil {
				mon.RecordRequest(r.URL.Path, r.Method, rw.statusCode, duration,
					ratelimit.Identify(r), 0)
			}
			if collector != nil {
				collector.RecordRequest(r.URL.Path, rw.statusCode, duration)
			}
		})
	}
}
