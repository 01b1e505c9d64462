// Package ratelimit enforces per-client request caps over minute, hour,
// and day windows.
//
// Each client identity gets three independent rolling-fixed windows: a
// window resets relative to its own last reset once its period has
// elapsed, not at clock boundaries. A client throttled at second 59 of
// its minute window gets a full fresh budget at second 60, so burst
// admission at window edges is expected behavior.
//
// # Client Identity
//
// Identity is derived from the X-API-Key header when present, otherwise
// from the first hop of X-Forwarded-For, otherwise from the transport
// address. The forwarding header is client-controlled, so identity is
// best-effort and spoofable; hardening it is out of scope here.
//
// # State
//
// Client windows live only in memory and reset to empty on restart,
// unlike the token governor's persisted counters. The client map is
// bounded: least-recently-seen entries are evicted past MaxClients, and
// entries idle longer than the day window can be swept out.
package ratelimit
