// Package store provides SQLite-backed storage for compiled queries.
//
// Every prepared graph query carries a trace id in its first line. The store
// keeps the query under that id so an operator holding only the id from an
// executor log can recover the exact text and bindings that were sent.
//
// # Ordering
//
//   - Records are ordered by seq INTEGER (insertion order), never by timestamp
//   - All list queries use ORDER BY seq ASC, id ASC COLLATE BINARY
//
// # Idempotency
//
//   - RecordQuery uses ON CONFLICT(id) DO NOTHING; re-recording an id with the
//     same fingerprint is a no-op, a different fingerprint is ErrConflict
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Bindings are stored as canonical JSON (internal/ir/canonical.go), so equal
// binding maps are stored byte-identically.
package store
