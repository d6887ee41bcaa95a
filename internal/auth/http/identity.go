package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/dirauth/internal/auth/domain"
	"github.com/aussiebroadwan/dirauth/internal/auth/service"
	"github.com/aussiebroadwan/dirauth/internal/auth/store"
	"github.com/aussiebroadwan/dirauth/pkg/httpx"
	"github.com/aussiebroadwan/dirauth/pkg/jwtx"
	"github.com/aussiebroadwan/dirauth/pkg/slogx"
)

type identityKey struct{}

// ContextWithIdentity stores the resolved caller.
func ContextWithIdentity(ctx context.Context, id domain.RequestIdentity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// CurrentIdentity returns the caller resolved by IdentityMiddleware. The zero
// value (no user) is returned when the middleware did not run.
func CurrentIdentity(ctx context.Context) domain.RequestIdentity {
	id, _ := ctx.Value(identityKey{}).(domain.RequestIdentity)
	return id
}

// IdentityMiddleware resolves the token subject to its local user record. It
// uses claims already verified by AuthnMiddleware when present and otherwise
// verifies the bearer header itself. It never rejects a request: an
// unresolved caller simply has no user.
func IdentityMiddleware(users *service.UserService, v jwtx.Verifier) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			identity := domain.RequestIdentity{}

			if claims, ok := claimsFor(r, v); ok {
				user, err := users.GetUserByLoginID(ctx, claims.Username)
				switch {
				case err == nil:
					identity.User = &user
					ctx = slogx.With(ctx, "user_id", user.ID)
				case errors.Is(err, store.ErrNotFound):
					slogx.FromContext(ctx).Warn("token subject has no local user", "username", claims.Username)
				default:
					slogx.FromContext(ctx).Warn("failed to resolve request identity",
						"username", claims.Username,
						"err", err,
					)
				}
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(ctx, identity)))
		})
	}
}

func claimsFor(r *http.Request, v jwtx.Verifier) (jwtx.Claims, bool) {
	if claims, ok := httpx.ClaimsFromContext(r.Context()); ok {
		return claims, true
	}
	if v == nil {
		return jwtx.Claims{}, false
	}

	raw, ok := httpx.BearerToken(r)
	if !ok {
		return jwtx.Claims{}, false
	}
	claims, err := v.Verify(raw)
	if err != nil {
		slogx.FromContext(r.Context()).Warn("bearer token rejected", "err", err)
		return jwtx.Claims{}, false
	}
	if err := claims.ValidateExpiry(); err != nil {
		return jwtx.Claims{}, false
	}
	return claims, true
}
