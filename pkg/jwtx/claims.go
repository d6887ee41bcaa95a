package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the fixed validity window of a session token. There is
// no refresh or revocation, a token simply stops verifying once it passes.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Claims are the session token claims. The "id" and "username" field names
// are part of the wire format shared with existing clients.
type Claims struct {
	// SubjectID is the local user record id.
	SubjectID int64 `json:"id"`

	// Username is the directory login id of the subject.
	Username string `json:"username"`

	jwt.RegisteredClaims
}

// NewClaims builds session claims expiring ttl after now.
func NewClaims(subjectID int64, username string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		SubjectID: subjectID,
		Username:  username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// Expiry returns the exp claim, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ValidateExpiry ensures the token hasn’t expired (exp). A missing exp is
// treated as expired since every issued token carries one.
func (c *Claims) ValidateExpiry() error {
	return c.validateExpiryAt(time.Now().UTC())
}

func (c *Claims) validateExpiryAt(now time.Time) error {
	if c.ExpiresAt == nil {
		return ErrInvalidClaim
	}
	if !now.Before(c.ExpiresAt.Time) {
		return ErrExpired
	}
	return nil
}
