package service

import (
	"fmt"
	"time"

	"github.com/aussiebroadwan/dirauth/internal/auth/domain"
	"github.com/aussiebroadwan/dirauth/pkg/jwtx"
)

// TokenService issues session tokens.
type TokenService struct {
	Signer jwtx.Signer

	// TTL defaults to jwtx.DefaultTokenTTL.
	TTL time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// Issue signs a token for u. The claims are returned alongside for logging
// and tests.
func (s *TokenService) Issue(u domain.User) (string, jwtx.Claims, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	ttl := s.TTL
	if ttl <= 0 {
		ttl = jwtx.DefaultTokenTTL
	}

	claims := jwtx.NewClaims(u.ID, u.LoginID, ttl, now().UTC())
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", jwtx.Claims{}, fmt.Errorf("%w: issue token: %w", ErrInternal, err)
	}
	return token, claims, nil
}
