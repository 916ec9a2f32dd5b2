// Package store provides SQLite-backed durable storage for the POS client's
// local records.
//
// The store holds a fixed set of kinds:
//   - orders: the central entity, keyed by server ID or offline ID
//   - menu_items, categories, customers, tables: read-mostly server caches
//   - pending_operations: the deferred-mutation queue rows
//   - user_session: single fixed-key session row
//   - sync_metadata: last-sync timestamp per cache kind
//
// # Critical Patterns
//
// Every exported mutation is its own transaction; no cross-call transaction
// is exposed. Concurrent processes sharing the database file coordinate
// through sqlite locking plus the reconciliation engine's most-advanced-wins
// rule, never through a cross-context lock held in Go.
//
// Pending-operation listings always order by (created_at, id) ascending;
// FIFO replay order is a correctness requirement, not a presentation choice.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package store
