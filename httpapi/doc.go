// Package httpapi serves the role REST API over a goPerm.Service.
//
// Routes:
//
//	GET    /catalog                  module catalog (unauthenticated)
//	GET    /roles                    roles:show
//	GET    /roles/{id}               roles:show
//	POST   /roles                    roles:add
//	PUT    /roles/{id}               roles:edit
//	DELETE /roles/{id}               roles:delete
//	POST   /roles/validate           roles:show
//	GET    /users/{id}/permissions   users:show
//	PUT    /users/{id}/role          users:role
//	GET    /audit/roles              reports:show
//
// Role writes run the validator before anything is stored: errors answer 422
// with the diagnostics, warnings are returned next to the saved role.
// Permission checks apply only when the server is built [WithTokens].
package httpapi
