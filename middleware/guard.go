package middleware

import (
	"context"
	"net/http"
	"strings"

	goPerm "github.com/MrEthical07/goPerm"
	"github.com/MrEthical07/goPerm/claims"
	"github.com/MrEthical07/goPerm/permission"
)

type principalContextKey struct{}

// Principal is the authenticated caller of a guarded request.
type Principal struct {
	Claims      *claims.PermissionClaims
	Permissions *permission.Set
}

// PrincipalFromContext returns the principal injected by [Guard].
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*Principal)
	return p, ok
}

// Guard verifies the bearer token with manager and decodes its permissions
// with codec. The token subject becomes the audit actor of the request.
func Guard(manager *claims.Manager, codec *permission.Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil || codec == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			pc, err := manager.Parse(token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			set, err := pc.Set(codec)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey{}, &Principal{Claims: pc, Permissions: set})
			ctx = goPerm.WithActor(ctx, pc.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
