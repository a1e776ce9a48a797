package middleware

import (
	"net/http"

	"github.com/MrEthical07/goPerm/permission"
)

// RequirePermission returns middleware that admits requests whose principal
// is granted action on key. It must run inside [Guard]; without a principal
// the request is rejected with 401.
func RequirePermission(key permission.ModuleKey, action permission.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !p.Permissions.Grants(key, action) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
