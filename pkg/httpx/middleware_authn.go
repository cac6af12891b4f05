package httpx

import (
	"net/http"
	"strings"

	"github.com/quillworks/pressgate/pkg/slogx"
	"github.com/quillworks/pressgate/pkg/tokenx"
)

// AccessVerifier validates an access token and returns the canonical
// Principal. Satisfied by *tokenx.Codec.
type AccessVerifier interface {
	VerifyAccess(token string) (tokenx.Principal, error)
}

// ResolveRequired is the strict authentication gate: a well-formed, valid
// Authorization header or nothing. Any absence or verification failure is an
// immediate 401 with no anonymous fallback.
func ResolveRequired(v AccessVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := bearerFromHeader(r)
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}

			p, err := v.VerifyAccess(raw)
			if err != nil {
				log.Warn("access token rejected", "err", err)
				writeBearerError(w, "token verification failed")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(ctx, p)))
		})
	}
}

// ResolveOptional is the tolerant gate for routes serving both authenticated
// and anonymous traffic. It looks for a bearer token in the Authorization
// header, then a "token" query parameter, and on any failure resolves to the
// anonymous principal instead of rejecting. The security posture of a route
// should be obvious from which of the two resolvers its chain names.
func ResolveOptional(v AccessVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := bearerFromHeader(r)
			if !ok {
				raw = r.URL.Query().Get("token")
			}

			p := tokenx.Anonymous()
			if raw != "" {
				if verified, err := v.VerifyAccess(raw); err == nil {
					p = verified
				} else {
					slogx.FromContext(ctx).Debug("optional auth fell back to anonymous", "err", err)
				}
			}

			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(ctx, p)))
		})
	}
}

func bearerFromHeader(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer")), true
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
