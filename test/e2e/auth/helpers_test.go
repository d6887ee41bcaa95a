package auth_test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/dirauth/internal/auth/app"
	"github.com/aussiebroadwan/dirauth/pkg/authsdk"
	"github.com/aussiebroadwan/dirauth/pkg/cryptox"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for auth service end-to-end tests.
 * The service runs in-process against a real OpenLDAP and Redis started in
 * containers.
 */

const (
	ldapImage  = "bitnami/openldap:2.6"
	redisImage = "redis:7-alpine"

	baseDN      = "ou=users,dc=example,dc=org"
	guardFilter = "(&(cn=Partner)(objectClass=groupOfNames))"

	memberUsername   = "jdoe"
	memberPassword   = "hunter2"
	partnerUsername  = "partner_user"
	partnerPassword  = "partnerpw"
	noNumberUsername = "asmith"
	noNumberPassword = "s3cret"

	defaultMaxAttempts = 5
)

// seedLDIF builds the directory tree: two ordinary users, one of them without
// an employee number, and one user in the guard group.
const seedLDIF = `dn: dc=example,dc=org
objectClass: dcObject
objectClass: organization
dc: example
o: example

dn: ou=users,dc=example,dc=org
objectClass: organizationalUnit
ou: users

dn: uid=jdoe,ou=users,dc=example,dc=org
objectClass: inetOrgPerson
uid: jdoe
cn: Jane Doe
givenName: Jane
sn: Doe
mail: jdoe@example.org
employeeNumber: 4242
userPassword: hunter2

dn: uid=asmith,ou=users,dc=example,dc=org
objectClass: inetOrgPerson
uid: asmith
cn: Alex Smith
givenName: Alex
sn: Smith
userPassword: s3cret

dn: uid=partner_user,ou=users,dc=example,dc=org
objectClass: inetOrgPerson
uid: partner_user
cn: Partner User
sn: User
userPassword: partnerpw

dn: cn=Partner,ou=users,dc=example,dc=org
objectClass: groupOfNames
cn: Partner
member: uid=partner_user,ou=users,dc=example,dc=org
`

// skipWithoutContainers skips in -short mode and when no container runtime
// is reachable.
func skipWithoutContainers(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping end-to-end test in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// startContainer starts req and returns host:port for port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest, port nat.Port) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, port)
	require.NoError(t, err)

	return fmt.Sprintf("%s:%s", host, mappedPort.Port())
}

// setupLDAP starts OpenLDAP seeded with seedLDIF and returns its URI.
func setupLDAP(t *testing.T) string {
	t.Helper()

	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        ldapImage,
		ExposedPorts: []string{"1389/tcp"},
		Env: map[string]string{
			"LDAP_ROOT":            "dc=example,dc=org",
			"LDAP_ADMIN_USERNAME":  "admin",
			"LDAP_ADMIN_PASSWORD":  "adminpassword",
			"LDAP_CUSTOM_LDIF_DIR": "/ldifs",
		},
		Files: []testcontainers.ContainerFile{{
			Reader:            strings.NewReader(seedLDIF),
			ContainerFilePath: "/ldifs/seed.ldif",
			FileMode:          0o644,
		}},
		WaitingFor: wait.ForListeningPort("1389/tcp").
			WithStartupTimeout(90 * time.Second),
	}, "1389/tcp")

	return "ldap://" + addr
}

// setupRedis starts Redis and returns its URL.
func setupRedis(t *testing.T) string {
	t.Helper()

	addr := startContainer(t, testcontainers.ContainerRequest{
		Image:        redisImage,
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(60 * time.Second),
	}, "6379/tcp")

	return "redis://" + addr + "/0"
}

type testService struct {
	baseURL string
	client  *authsdk.SDKClient
}

// setupAuthService starts the full application in-process against the
// containers and returns a client for it. mutate may adjust the
// configuration before startup.
func setupAuthService(t *testing.T, mutate func(*app.Config)) *testService {
	t.Helper()
	skipWithoutContainers(t)

	secret, err := cryptox.GenerateHexSecret(cryptox.SecretSize256)
	require.NoError(t, err)

	cfg := app.Config{
		LDAPURI:         setupLDAP(t),
		LDAPUserDN:      baseDN,
		LDAPUIDColumn:   "uid",
		LDAPGuardFilter: guardFilter,
		LDAPDialTimeout: 5 * time.Second,

		JWTSecret: secret,

		RateLimitEnabled:  true,
		RateLimitRequests: defaultMaxAttempts,
		RateLimitPeriod:   time.Minute,
		RedisURL:          setupRedis(t),

		DatabaseDriver: app.DriverSQLite,
		DatabaseFile:   filepath.Join(t.TempDir(), "auth.db"),
		DBMaxOpenConns: 4,

		Env:                 "prod",
		LogLevel:            "warn",
		LogFormat:           "json",
		ShutdownGracePeriod: time.Second,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	application, err := app.New(cfg)
	require.NoError(t, err)

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = application.Close()
	})

	return &testService{baseURL: srv.URL, client: authsdk.NewSDKClient(srv.URL)}
}

// performLogin logs in and fails the test on error.
func performLogin(t *testing.T, client *authsdk.SDKClient, username, password string) *authsdk.Session {
	t.Helper()

	session, err := client.Login(t.Context(), username, password)
	require.NoError(t, err, "Login should succeed")
	require.NotNil(t, session, "Session should not be nil")
	require.NotEmpty(t, session.AccessToken())

	return session
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}

// assertUnauthorized checks that an error is a 401 from the service.
func assertUnauthorized(t *testing.T, err error, context string) {
	t.Helper()
	require.Error(t, err, context)

	var apiErr *authsdk.Error
	require.ErrorAs(t, err, &apiErr, context)
	require.Equal(t, 401, apiErr.StatusCode, "%s - got: %s", context, err)
}
