// Package store provides SQLite-backed durable storage for traversal runs.
//
// A run is stored with everything needed to replay it: the report definition
// and dataset as JSON, their content hashes, and the ordered event trace
// with its digest.
//
//   - runs: one row per traversal, keyed by run id
//   - events: one row per fired event, UNIQUE(run_id, step)
//
// # Ordering
//
// Events are read back ORDER BY step ASC, the position at which they fired.
// Runs are listed ORDER BY id COLLATE BINARY; UUIDv7 run ids sort by
// creation time.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Digests are computed by internal/ir using RFC 8785 canonical JSON and
// SHA-256 with domain separation.
package store
