package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/dirauth/internal/auth/directory"
	httpapi "github.com/aussiebroadwan/dirauth/internal/auth/http"
	"github.com/aussiebroadwan/dirauth/internal/auth/metrics"
	"github.com/aussiebroadwan/dirauth/internal/auth/service"
	"github.com/aussiebroadwan/dirauth/internal/auth/store"
	"github.com/aussiebroadwan/dirauth/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/dirauth/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/dirauth/pkg/httpx"
	"github.com/aussiebroadwan/dirauth/pkg/jwtx"
	"github.com/aussiebroadwan/dirauth/pkg/ratelimit"
	"github.com/aussiebroadwan/dirauth/pkg/slogx"
)

// BuildVersion is reported by the health endpoints and in logs.
var BuildVersion = "v0.1.0"

const (
	redisKeyPrefix   = "dirauth:"
	redisPingTimeout = 3 * time.Second
)

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db      store.Store
	signer  *jwtx.HS256
	redis   *redis.Client // nil when counting in memory
	limiter *ratelimit.Limiter
	metrics *metrics.Metrics

	// Services
	tokenService *service.TokenService
	userService  *service.UserService
	loginService *service.LoginService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "dirauth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	signer, err := InitSigningSecret(cfg)
	if err != nil {
		return nil, err
	}
	app.signer = signer

	ctx := context.Background()
	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	app.initRateLimiter(ctx)

	m, err := metrics.NewGlobal()
	if err != nil {
		_ = app.closeBackends()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	app.metrics = m

	app.initServices()
	if err := app.initHTTP(); err != nil {
		_ = app.closeBackends()
		return nil, err
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"production", app.cfg.IsProduction(),
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.closeBackends()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.closeBackends(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// Handler returns the fully wired HTTP handler without starting a listener.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Close releases the backends of an application that was never Run.
func (app *Application) Close() error {
	return app.closeBackends()
}

// closeBackends releases the counter store and the database.
func (app *Application) closeBackends() error {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			return err
		}
	}
	return nil
}

// initDatabase opens the configured driver and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.DatabaseDriver {
	case DriverPostgres:
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL, app.cfg.DBMaxOpenConns)
	default:
		db, err = sqlite.NewStore(sqlite.DSN(app.cfg.DatabaseFile), app.cfg.DBMaxOpenConns)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initRateLimiter picks the login attempt counter store. Redis is used when
// configured and reachable at startup; otherwise counters live in memory and
// are per instance.
func (app *Application) initRateLimiter(ctx context.Context) {
	cfg := ratelimit.Config{
		Enabled: app.cfg.RateLimitEnabled,
		Max:     int64(app.cfg.RateLimitRequests),
		Window:  app.cfg.RateLimitPeriod,
	}

	if app.cfg.RedisURL != "" {
		if client, err := app.connectRedis(ctx); err != nil {
			app.logger.Warn("redis unavailable, counting login attempts in memory", "error", err)
		} else {
			app.redis = client
			app.limiter = ratelimit.New(ratelimit.NewRedisStore(client, redisKeyPrefix), cfg)
			app.logger.Info("login rate limit using redis",
				"enabled", cfg.Enabled,
				"max", cfg.Max,
				"window", cfg.Window,
			)
			return
		}
	}

	app.limiter = ratelimit.New(ratelimit.NewMemoryStore(), cfg)
	app.logger.Info("login rate limit using memory",
		"enabled", cfg.Enabled,
		"max", cfg.Max,
		"window", cfg.Window,
	)
}

func (app *Application) connectRedis(ctx context.Context) (*redis.Client, error) {
	opts, err := redis.ParseURL(app.cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Signer: app.signer,
		TTL:    jwtx.DefaultTokenTTL,
	}
	app.userService = &service.UserService{Store: app.db}

	dir := directory.NewAuthenticator(directory.Config{
		URI:          app.cfg.LDAPURI,
		BaseDN:       app.cfg.LDAPUserDN,
		UIDAttribute: app.cfg.LDAPUIDColumn,
		Filter:       app.cfg.LDAPFilter,
		GuardFilter:  app.cfg.LDAPGuardFilter,
	}, directory.NewDialer(app.cfg.LDAPDialTimeout))

	app.loginService = &service.LoginService{
		Limiter:   app.limiter,
		Directory: dir,
		Users:     app.userService,
		Tokens:    app.tokenService,
		Metrics:   app.metrics,
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() error {
	proxies, err := httpx.ParseTrustedProxies(app.cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	router := httpapi.NewRouter(
		app.signer,
		app.metrics.InstrumentVerifier(app.signer),
		BuildVersion,
		app.cfg.IsProduction(),
		app.db,
		app.limiter,
		app.logger,
	)

	// Wire services to router
	router.LoginService = app.loginService
	router.UserService = app.userService
	router.APIThrottle = httpx.ThrottleFromEnv("API", httpx.APIThrottle)
	router.Proxies = proxies
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
