package middleware

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// Context keys for storing values in request context.
const (
	// RequestIDKey stores the unique request ID.
	RequestIDKey contextKey = "request_id"

	// ClientIDKey stores the rate limiter's client identity.
	ClientIDKey contextKey = "client_id"
)
