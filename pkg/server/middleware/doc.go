// Package middleware provides HTTP middleware for the Turnstile server.
//
// Middleware are chained outermost-first: recovery, logging, request
// ID, CORS, request observation, rate limiting. The rate limiter sits
// innermost so every denial still flows back out through logging and
// observation.
package middleware
