package jwtx

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// NewSignerHS256 creates an HS256 signer from a raw secret. The returned value
// also implements Verifier for the same secret.
func NewSignerHS256(secret []byte) (*HS256, error) {
	return newHS256(secret)
}
