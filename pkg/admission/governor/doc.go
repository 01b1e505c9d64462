// Package governor enforces token budgets for model calls.
//
// The Governor is the sole authority on whether an estimated model call
// may proceed. It tracks cumulative token consumption against three caps
// checked in a fixed, contractual order:
//
//  1. Daily cumulative budget
//  2. Hourly cumulative budget
//  3. Per-request ceiling
//
// The first violated cap denies the request, and callers surface the
// returned reason verbatim, so the ordering is part of the public
// contract, not an implementation detail.
//
// # Reset Semantics
//
// The daily window is calendar-aligned: it resets when the wall-clock
// date advances past the window start. The hourly window is
// elapsed-aligned: it resets when more than one hour has passed since
// its last reset, regardless of clock boundaries. The asymmetry keeps
// "daily" aligned with user-facing day boundaries while the hourly
// check stays simple; each window's policy is configurable through
// ResetPolicy rather than unified.
//
// # Persistence
//
// Counters are mirrored to a storage.Backend after every commit.
// Writes happen outside the counter lock and are best-effort: a failed
// write is logged and the in-memory state stays authoritative.
package governor
