package middleware

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"turnstile-hq/turnstile/pkg/admission"
	"turnstile-hq/turnstile/pkg/telemetry/metrics"
)

// Rate limit response headers. Only the minute window is surfaced;
// hour and day budgets are queryable via the usage endpoints.
const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
)

// exemptPaths are never rate limited: health probes, usage inspection,
// and metrics scrapes must stay reachable when a client is throttled.
var exemptPaths = map[string]bool{
	"/health":  true,
	"/usage":   true,
	"/metrics": true,
}

// RateLimitMiddleware gates requests through the admission manager's
// per-client request windows. A denial produces 429 Too Many Requests
// with a Retry-After header and a structured body; allowed responses
// carry the client's minute-window X-RateLimit-* headers.
//
// Example usage:
//
//	handler = RateLimitMiddleware(mgr, collector)(handler)
func RateLimitMiddleware(mgr *admission.Manager, collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exemptPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			clientID, err := mgr.AllowRequest(r)

			status := mgr.MinuteStatus(clientID)
			w.Header().Set(HeaderRateLimitLimit, strconv.Itoa(status.Limit))
			w.Header().Set(HeaderRateLimitRemaining, strconv.Itoa(status.Remaining))
			w.Header().Set(HeaderRateLimitReset, strconv.FormatInt(status.Reset.Unix(), 10))

			if err != nil {
				var rle *admission.RateLimitExceededError
				if errors.As(err, &rle) {
					if collector != nil {
						collector.RecordRateLimitDenial(string(rle.Window))
					}

					retryAfter := int(math.Ceil(rle.RetryAfter.Seconds()))
					if retryAfter < 1 {
						retryAfter = 1
					}
					w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

					writeJSONError(w, http.StatusTooManyRequests, "rate_limit_exceeded", rle.Reason)
					return
				}

				writeJSONError(w, http.StatusInternalServerError, "server_error", "admission check failed")
				return
			}

			ctx := context.WithValue(r.Context(), ClientIDKey, clientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClientID extracts the rate limiter's client identity from the
// context. Returns empty string if the request bypassed rate limiting.
func GetClientID(ctx context.Context) string {
	if clientID, ok := ctx.Value(ClientIDKey).(string); ok {
		return clientID
	}
	return ""
}
