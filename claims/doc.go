// Package claims signs and verifies permission claims: JWTs carrying a role's
// wire-format permission entries so downstream services can authorize
// requests without a store round-trip.
//
// # Architecture boundaries
//
// Tokens carry the same []permission.Entry documents the store persists; the
// receiving side decodes them with a permission.Codec bound to its catalog.
//
// # What this package must NOT do
//
//   - Authenticate users or issue sessions.
//   - Decide what a permission set grants; decoding is delegated to permission.Codec.
package claims
