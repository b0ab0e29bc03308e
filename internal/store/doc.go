// Package store provides SQLite-backed durable storage for the person
// directory and the presence interval records.
//
// The store has two tables:
//   - persons: the append-only name to numeric id directory. Ids are dense
//     starting at 0, assigned on first reference, never reused. The table
//     serves both lookup directions; there is no separate reverse index.
//   - intervals: (person_id, start_ts, end_ts) presence records, with
//     secondary indices on end_ts (the overlap scan order) and on
//     (person_id, id) (insertion order within a person, used by
//     CloseEarliestOpen).
//
// Times are int64 unix seconds. when.TimeMin as a start means "present since
// before recording began"; when.TimeMax as an end means "still open".
//
// The store performs no internal locking. The server funnels every request
// through one processing loop, so there is exactly one writer by
// construction, and the connection pool is pinned to a single connection to
// match.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package store
