// Package transport is the HTTP collaborator of the role editor: a client for
// the role REST API and the request and response shapes both sides share.
//
// [Client] implements store.Store, so a goPerm.Service can persist roles
// through a remote httpapi.Server exactly as it would through a local store.
// Non-2xx responses map onto the store sentinels (404 to store.ErrNotFound,
// 409 to store.ErrVersionConflict, 400 to store.ErrInvalidRecord) and 422
// responses carry the validator diagnostics in an [*APIError].
//
// # What this package must NOT do
//
//   - Validate or normalize permissions; the server owns that decision.
//   - Retry writes; submissions are last-write-wins unless a version is sent.
package transport
