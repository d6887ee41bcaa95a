package auth_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/dirauth/internal/auth/app"
	"github.com/aussiebroadwan/dirauth/pkg/authsdk"
)

// TestLoginAndCurrentUser verifies a directory user can log in and that the
// local record carries the directory attributes.
func TestLoginAndCurrentUser(t *testing.T) {
	svc := setupAuthService(t, nil)

	session := performLogin(t, svc.client, memberUsername, memberPassword)

	me, err := session.CurrentUser(t.Context())
	require.NoError(t, err)
	require.Equal(t, memberUsername, me.LoginID)
	require.NotNil(t, me.EmployeeNumber)
	require.Equal(t, int64(4242), *me.EmployeeNumber)
	require.Equal(t, "Jane", *me.FirstName)
	require.Equal(t, "Doe", *me.LastName)
	require.Equal(t, "jdoe@example.org", *me.Email)

	// Logging in again keeps the same record.
	again := performLogin(t, svc.client, memberUsername, memberPassword)
	me2, err := again.CurrentUser(t.Context())
	require.NoError(t, err)
	require.Equal(t, me.ID, me2.ID)

	t.Logf("Logged in as %s (id %d)", me.LoginID, me.ID)
}

// TestLoginWithoutEmployeeNumber verifies a missing attribute does not block
// login.
func TestLoginWithoutEmployeeNumber(t *testing.T) {
	svc := setupAuthService(t, nil)

	session := performLogin(t, svc.client, noNumberUsername, noNumberPassword)

	me, err := session.CurrentUser(t.Context())
	require.NoError(t, err)
	require.Nil(t, me.EmployeeNumber)
	require.Nil(t, me.Email)
}

// TestGuardedUserForbidden verifies members of the guard group get 403 and no
// token even with the right password.
func TestGuardedUserForbidden(t *testing.T) {
	svc := setupAuthService(t, nil)

	_, err := svc.client.Login(t.Context(), partnerUsername, partnerPassword)
	require.ErrorIs(t, err, authsdk.ErrForbidden)

	// No record was created for the guarded user.
	session := performLogin(t, svc.client, memberUsername, memberPassword)
	users, err := session.ListUsers(t.Context())
	require.NoError(t, err)
	for _, u := range users {
		require.NotEqual(t, partnerUsername, u.LoginID)
	}
}

// TestInvalidCredentials verifies that login with a wrong password or an
// unknown user is rejected the same way.
func TestInvalidCredentials(t *testing.T) {
	svc := setupAuthService(t, nil)

	_, err := svc.client.Login(t.Context(), memberUsername, "wrong-password")
	assertUnauthorized(t, err, "Invalid password should be rejected")
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)

	_, err = svc.client.Login(t.Context(), "nobody", "whatever")
	assertUnauthorized(t, err, "Unknown user should be rejected")
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)
}

// TestValidationRejected verifies malformed usernames never reach the
// directory and are reported field by field.
func TestValidationRejected(t *testing.T) {
	svc := setupAuthService(t, nil)

	_, err := svc.client.Login(t.Context(), "jdoe)(uid=*", "")
	var ve *authsdk.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Details, 2)
	require.Equal(t, "charset", ve.Details[0].Rule)
	require.Equal(t, "password", ve.Details[1].Field)

	_, err = svc.client.Login(t.Context(), strings.Repeat("a", 256), "pw")
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "length", ve.Details[0].Rule)
}

// TestInvalidAccessToken verifies protected endpoints reject invalid tokens.
func TestInvalidAccessToken(t *testing.T) {
	svc := setupAuthService(t, nil)

	_, err := svc.client.NewSession("invalid-token-12345").CurrentUser(t.Context())
	assertUnauthorized(t, err, "Invalid token should be rejected")
}

// TestTokenFromOtherSecret verifies a token signed by another deployment is
// rejected.
func TestTokenFromOtherSecret(t *testing.T) {
	first := setupAuthService(t, nil)
	second := setupAuthService(t, nil)

	session := performLogin(t, first.client, memberUsername, memberPassword)

	_, err := second.client.NewSession(session.AccessToken()).CurrentUser(t.Context())
	assertUnauthorized(t, err, "Token from another secret should be rejected")
}

// TestRateLimitLogin verifies the attempt ceiling: the attempt after the
// last allowed one is refused with 429 even with the right password.
func TestRateLimitLogin(t *testing.T) {
	svc := setupAuthService(t, nil)
	ctx := context.Background()

	for i := range defaultMaxAttempts {
		_, err := svc.client.Login(ctx, memberUsername, "wrong-password")
		assertUnauthorized(t, err, "attempt before the ceiling")
		t.Logf("attempt %d rejected as unauthorized", i+1)
	}

	_, err := svc.client.Login(ctx, memberUsername, memberPassword)
	var rl *authsdk.RateLimitError
	require.ErrorAs(t, err, &rl, "Should be rate limited after %d attempts", defaultMaxAttempts)
	require.Positive(t, rl.RetryAfter)
}

// TestRateLimitDisabled verifies RATE_LIMIT_ENABLED=false lets every
// attempt through to the directory.
func TestRateLimitDisabled(t *testing.T) {
	svc := setupAuthService(t, func(cfg *app.Config) {
		cfg.RateLimitEnabled = false
	})

	for range defaultMaxAttempts + 2 {
		_, err := svc.client.Login(t.Context(), memberUsername, "wrong-password")
		assertUnauthorized(t, err, "limiter disabled")
	}
	performLogin(t, svc.client, memberUsername, memberPassword)
}
