package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/dirauth/internal/auth/directory"
	"github.com/aussiebroadwan/dirauth/pkg/httpx"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	LDAPURI         string        // Required: directory endpoint, e.g. ldaps://ldap.example.com
	LDAPUserDN      string        // Required: base DN users are bound and searched under
	LDAPUIDColumn   string        // Optional: uid attribute name (default: uid)
	LDAPFilter      string        // Optional: extra filter ANDed into the user search
	LDAPGuardFilter string        // Optional: filter selecting the guard group
	LDAPDialTimeout time.Duration // Optional: bound on connecting to the directory (default: 10s)

	JWTSecret string // Required: signing secret as hex byte pairs ("0A 1B ...")

	RateLimitEnabled  bool          // Optional: count login attempts per client (default: true)
	RateLimitRequests int           // Optional: attempts allowed per window (default: 5)
	RateLimitPeriod   time.Duration // Optional: window length, from RATE_LIMIT_PERIOD_SECS (default: 60s)
	RedisURL          string        // Optional: shared counter store; in-memory when empty or unreachable
	TrustedProxies    string        // Optional: comma separated proxy IPs/CIDRs allowed to set X-Forwarded-For

	DatabaseDriver string // Optional: sqlite or postgres (default: sqlite)
	DatabaseURL    string // Required for postgres: connection string
	DatabaseFile   string // Optional: path to SQLite database file (default: ./auth.db)
	DBMaxOpenConns int    // Optional: bound on concurrent database connections (default: 10)

	Env                 string        // Environment (dev, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		LDAPURI:         os.Getenv("LDAP_URI"),
		LDAPUserDN:      os.Getenv("LDAP_USER_DN"),
		LDAPUIDColumn:   getEnvOrDefault("LDAP_UID_COLUMN", "uid"),
		LDAPFilter:      os.Getenv("LDAP_FILTER"),
		LDAPGuardFilter: getEnvOrDefault("LDAP_GUARD_FILTER", directory.DefaultGuardFilter),
		LDAPDialTimeout: getEnvDurationOrDefault("LDAP_DIAL_TIMEOUT", 10*time.Second),

		JWTSecret: os.Getenv("JWT_SECRET"),

		RateLimitEnabled:  getEnvBoolOrDefault("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: getEnvIntOrDefault("RATE_LIMIT_REQUESTS", 5),
		RateLimitPeriod:   time.Duration(getEnvIntOrDefault("RATE_LIMIT_PERIOD_SECS", 60)) * time.Second,
		RedisURL:          os.Getenv("REDIS_URL"),
		TrustedProxies:    os.Getenv("TRUSTED_PROXIES"),

		DatabaseDriver: strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", DriverSQLite)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DatabaseFile:   getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		DBMaxOpenConns: getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

// Validate reports every setting that would stop the service from starting.
func (c Config) Validate() error {
	var errs []error
	if c.LDAPURI == "" {
		errs = append(errs, errors.New("LDAP_URI is required"))
	}
	if c.LDAPUserDN == "" {
		errs = append(errs, errors.New("LDAP_USER_DN is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.RateLimitEnabled && (c.RateLimitRequests < 1 || c.RateLimitPeriod <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_PERIOD_SECS must be positive"))
	}

	if _, err := httpx.ParseTrustedProxies(c.TrustedProxies); err != nil {
		errs = append(errs, fmt.Errorf("TRUSTED_PROXIES: %w", err))
	}

	switch c.DatabaseDriver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver))
	}

	return errors.Join(errs...)
}

// IsProduction reports whether error responses must be sanitized.
func (c Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultValue
}
