package httpx

import (
	"context"

	"github.com/quillworks/pressgate/pkg/tokenx"
)

type ctxKey string

const ctxKeyPrincipal ctxKey = "principal"

// ContextWithPrincipal stores the resolved caller identity for downstream
// handlers.
func ContextWithPrincipal(ctx context.Context, p tokenx.Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

// PrincipalFromContext returns the Principal resolved by an auth middleware.
// Falls back to the anonymous principal when no middleware ran, so handlers
// behind ResolveOptional can always rely on a usable value.
func PrincipalFromContext(ctx context.Context) tokenx.Principal {
	if p, ok := ctx.Value(ctxKeyPrincipal).(tokenx.Principal); ok {
		return p
	}
	return tokenx.Anonymous()
}
