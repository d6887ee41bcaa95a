package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/dirauth/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestSigner(t *testing.T, secret []byte) *jwtx.HS256 {
	t.Helper()
	s, err := jwtx.NewSignerHS256(secret)
	require.NoError(t, err)
	return s
}

func TestHS256SignAndVerify(t *testing.T) {
	signer := newTestSigner(t, testSecret)
	require.Equal(t, "HS256", signer.Alg())

	now := time.Now().UTC()
	claims := jwtx.NewClaims(1, "alice", jwtx.DefaultTokenTTL, now)

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.Len(t, strings.Split(token, "."), 3, "compact JWS has three parts")

	got, err := signer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, int64(1), got.SubjectID)
	require.Equal(t, "alice", got.Username)
	require.WithinDuration(t, now.Add(7*24*time.Hour), got.Expiry(), time.Second)
}

func TestHS256Verify_Rejects(t *testing.T) {
	signer := newTestSigner(t, testSecret)
	now := time.Now().UTC()

	t.Run("expired token with valid signature", func(t *testing.T) {
		claims := jwtx.NewClaims(1, "alice", time.Hour, now.Add(-2*time.Hour))
		token, err := signer.Sign(claims)
		require.NoError(t, err)

		_, err = signer.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("different secret", func(t *testing.T) {
		other := newTestSigner(t, []byte("another-secret-another-secret-00"))
		token, err := other.Sign(jwtx.NewClaims(1, "alice", time.Hour, now))
		require.NoError(t, err)

		_, err = signer.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("tampered payload", func(t *testing.T) {
		token, err := signer.Sign(jwtx.NewClaims(1, "alice", time.Hour, now))
		require.NoError(t, err)

		forged, err := signer.Sign(jwtx.NewClaims(2, "mallory", time.Hour, now))
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		forgedParts := strings.Split(forged, ".")
		spliced := parts[0] + "." + forgedParts[1] + "." + parts[2]

		_, err = signer.Verify(spliced)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("other hmac algorithm", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS512, jwtx.NewClaims(1, "alice", time.Hour, now))
		token, err := tok.SignedString(testSecret)
		require.NoError(t, err)

		_, err = signer.Verify(token)
		require.Error(t, err)
	})

	t.Run("alg none", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwtx.NewClaims(1, "alice", time.Hour, now))
		token, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = signer.Verify(token)
		require.Error(t, err)
	})

	t.Run("missing exp", func(t *testing.T) {
		claims := jwtx.Claims{SubjectID: 1, Username: "alice"}
		token, err := signer.Sign(claims)
		require.NoError(t, err)

		_, err = signer.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := signer.Verify("not-a-token")
		require.ErrorIs(t, err, jwtx.ErrMalformed)

		_, err = signer.Verify("")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})
}

func TestNewSignerHS256_EmptySecret(t *testing.T) {
	_, err := jwtx.NewSignerHS256(nil)
	require.ErrorIs(t, err, jwtx.ErrNoSecret)
}
