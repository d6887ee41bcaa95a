package cryptox

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SecretSize256 is the default size of a generated HMAC signing secret.
const SecretSize256 = 32

// ErrEmptySecret is returned when a hex-pair secret string contains no bytes.
var ErrEmptySecret = errors.New("cryptox: empty secret")

// RandomBytes returns n bytes from the system CSPRNG.
func RandomBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("secret size must be positive, got %d", n)
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return buf, nil
}

// ParseHexPairs decodes a secret written as space separated hexadecimal byte
// pairs, e.g. "0A 1B FF". Every segment must parse as a single byte.
func ParseHexPairs(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptySecret
	}

	segments := strings.Split(s, " ")
	out := make([]byte, 0, len(segments))
	for i, seg := range segments {
		b, err := strconv.ParseUint(seg, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("cryptox: segment %d (%q) is not a hex byte: %w", i, seg, err)
		}
		out = append(out, byte(b))
	}

	return out, nil
}

// FormatHexPairs is the inverse of ParseHexPairs. Bytes are written as
// upper-case, zero padded pairs.
func FormatHexPairs(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02X", v)
	}
	return strings.Join(parts, " ")
}

// GenerateHexSecret creates a random secret of size bytes in hex-pair form.
func GenerateHexSecret(size int) (string, error) {
	buf, err := RandomBytes(size)
	if err != nil {
		return "", err
	}
	return FormatHexPairs(buf), nil
}
