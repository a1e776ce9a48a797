// Package audit delivers permission audit events asynchronously.
//
// # Components
//
//   - [Sink]: event consumer (channel, JSON lines, zap logger, fan-out, no-op).
//   - [Dispatcher]: buffered relay with drop-if-full or block-if-full semantics.
//   - [Event]: one record with timestamp, type, actor, role, module, action and metadata.
//
// # Architecture boundaries
//
// This package owns buffering and sink delivery. It does not decide which events
// to emit; the service does.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import goPerm or any sibling internal package.
package audit
