// Package store persists roles and user-role assignments in the wire shape
// produced by the permission codec.
//
// # Implementations
//
//   - [RedisStore]: hashes per role, Lua scripts for version-checked writes.
//   - [SQLStore]: database/sql with $n placeholders (Postgres via lib/pq, SQLite via go-sqlite3).
//   - [MemoryStore]: process-local, for tests and examples.
//
// # Concurrency
//
// Writes are last-write-wins unless the caller sets [Record.Version], in which
// case a stale version fails with [ErrVersionConflict].
//
// # What this package must NOT do
//
//   - Decode, normalize or validate permissions; entries are stored verbatim.
//   - Import goPerm, transport or httpapi.
package store
