// Package store provides SQLite-backed persistence for tracked handles and
// CSE run logs.
//
// The store holds:
//   - Handles: the current key -> operation mapping, usable directly as a
//     tracking.Mapping so a run keeps the database in step with the IR
//   - Runs: one summary row per CSE run, identified by a UUIDv7
//   - Run events: the listener journal of each run
//
// # Ordering
//
// Runs and events are ordered by seq INTEGER (a logical counter), never by
// timestamps. Handle listings are ordered by handle_key, then op_id, to
// match tracking.Mapping.Pairs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Run options are stored as canonical JSON (ir.MarshalCanonical).
package store
