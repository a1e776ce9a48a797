// Package permission models the access-control state of a role: the module catalog,
// the permission set, and the operations that keep a set consistent and move it
// between its editable and wire shapes.
//
// # Components
//
//   - [Catalog]: frozen registry of modules and the actions each accepts.
//   - [Set]: ordered module → actions mapping plus the SuperAdmin override.
//   - [Normalize]: canonical action ordering and deduplication.
//   - [Mutator]: single toggle operations (grant/revoke an action or a whole module).
//   - [Validator]: accumulated error and warning diagnostics.
//   - [Codec]: translation between [Set] and the flat []Entry wire format.
//
// # Invariants
//
//   - A set with SuperAdmin holds no other entries; it encodes as a single "*" grant.
//   - Action lists are kept in canonical order: show, own, junior, all, settings, delete, others.
//   - A module present with an empty list is an explicit revoke and is never dropped.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import goPerm, store, or transport.
//   - Mutate a caller's [Set]; every operation returns a new value.
package permission
