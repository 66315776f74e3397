// Package store provides SQLite-backed durable storage for analysis runs.
//
// Each analyze invocation that asks for persistence becomes one row in
// runs, identified by a UUIDv7 run id, together with the dependency edges
// it computed and the rendered report. All writes use ON CONFLICT DO
// NOTHING, so re-recording a run id is a no-op and the first recording
// wins.
//
// # Ordering Discipline
//
// Queries never rely on wall-clock columns. Run ids are UUIDv7 and
// therefore time-sortable, so ORDER BY id COLLATE BINARY lists runs
// chronologically; edge queries order by (source, target, variable) for
// identical results across SQLite versions. Values are always bound as
// parameters, never interpolated into SQL text.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// Kernel identity is the content hash from internal/kernel (RFC 8785
// canonical JSON and SHA-256 with domain separation).
package store
