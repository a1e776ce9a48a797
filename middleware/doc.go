// Package middleware exposes HTTP middleware that authenticates permission
// tokens and enforces single module actions on routes.
//
// # Guards
//
//   - [Guard] verifies the bearer token and injects its claims and decoded
//     permission set into the request context.
//   - [RequirePermission] rejects requests whose set does not grant one
//     module action. SuperAdmin grants everything.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into claims.Manager and
// permission.Set calls. Token parsing lives in claims; grant semantics live in
// permission.
//
// # What this package must NOT do
//
//   - Load roles from a store; the token carries the permissions.
//   - Mutate or normalize the decoded set.
package middleware
