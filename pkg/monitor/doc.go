// Package monitor converts usage signal into a persisted alert history.
//
// The Monitor is a threshold-driven evaluator over snapshots and events
// produced by the admission gates. It holds no quota state of its own:
// it receives governor snapshots, rate-limit remainders, and request
// outcomes, emits structured alerts when thresholds are crossed, and
// answers historical queries over the alert log.
//
// # History Bounds
//
// The alert history is bounded two ways. A hard cap (default 1000)
// evicts the oldest entries on every append, and Prune discards entries
// older than an age cutoff. The cap is enforced independently of
// pruning, so under heavy alerting entries can be lost to the cap well
// before they would age out. Both mechanisms are deliberate; callers
// sizing retention should account for the cap.
//
// Every append persists the capped history synchronously through the
// alert store; persistence failures are logged and absorbed.
package monitor
