// Package handlers contains the HTTP handlers for the Turnstile API:
// usage inspection and reset, alert queries and cleanup, and liveness.
// Handlers return JSON and lean on the admission manager for all state.
package handlers
