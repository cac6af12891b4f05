package httpx

import (
	"net/http"

	"github.com/quillworks/pressgate/pkg/tokenx"
)

// RequireRole gates a route on the caller's role. Run it after one of the
// resolve middlewares; an unresolved caller is anonymous and fails the check.
func RequireRole(role tokenx.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p.Role != role {
				writeForbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnershipOrAdmin is the per-resource authorization decision: a user
// may act on their own resources, an admin on anyone's. Handlers call it once
// they have loaded the resource and know its owner.
func RequireOwnershipOrAdmin(p tokenx.Principal, resourceOwnerID string) bool {
	return p.IsAdmin() || p.Owns(resourceOwnerID)
}

func writeForbidden(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope"`)
	w.WriteHeader(http.StatusForbidden)
}
