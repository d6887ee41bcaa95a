package app

import (
	"fmt"

	"github.com/aussiebroadwan/dirauth/pkg/cryptox"
	"github.com/aussiebroadwan/dirauth/pkg/jwtx"
)

// InitSigningSecret decodes JWT_SECRET once at startup. The secret is
// written as space separated hex byte pairs; any bad segment is fatal.
//
// Tokens stay valid across restarts as long as the secret does not change.
func InitSigningSecret(cfg Config) (*jwtx.HS256, error) {
	secret, err := cryptox.ParseHexPairs(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_SECRET: %w", err)
	}

	signer, err := jwtx.NewSignerHS256(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize signer: %w", err)
	}
	return signer, nil
}
