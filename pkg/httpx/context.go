package httpx

import (
	"context"

	"github.com/aussiebroadwan/dirauth/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyClaims ctxKey = "claims"
)

// ContextWithClaims stores verified token claims on ctx.
func ContextWithClaims(ctx context.Context, c jwtx.Claims) context.Context {
	return context.WithValue(ctx, CtxKeyClaims, c)
}

// ClaimsFromContext returns the claims placed by AuthnMiddleware, if any.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}
