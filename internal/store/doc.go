// Package store provides SQLite-backed persistence for analysis results.
//
// Each run records:
//   - Runs: architecture, program digest, placement and final status
//   - Patches: the patch report of the run's single PatchProgram call
//   - Conventions: one binding per callee, last write wins
//   - Dataflows: one summary per function, replaced wholesale
//   - Snapshots: canonical JSON of the patched program
//
// The upsert semantics of conventions and dataflows mirror the run
// context: a later detection or analysis for the same key supersedes the
// earlier one.
//
// # Ordering
//
// Rows within a run are ordered by seq, the engine's logical clock, then by
// key with COLLATE BINARY. Runs are listed in insertion order. Wall-clock
// time is never stored.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
