// Package storage provides persistence backends for admission-control state.
//
// The token governor mirrors its in-memory counters to a backend on every
// commit. Persistence is best-effort: the in-memory state is authoritative
// for the life of the process, and a failed write is logged and absorbed,
// never surfaced to the request path.
//
// Two backends are provided:
//
//   - MemoryBackend: process-local, for tests and ephemeral deployments.
//   - SQLiteBackend: durable single-row snapshot storage using WAL mode.
//
// The snapshot is overwritten wholesale on each save; there is no history
// and no transactional guarantee beyond what a single SQLite upsert gives.
package storage
