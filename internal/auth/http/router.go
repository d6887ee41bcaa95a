package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/dirauth/internal/auth/service"
	"github.com/aussiebroadwan/dirauth/pkg/httpx"
	"github.com/aussiebroadwan/dirauth/pkg/jwtx"
	"github.com/aussiebroadwan/dirauth/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	signer       jwtx.Signer
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	errors       errorWriter

	store       Pinger
	rateLimiter Pinger

	LoginService *service.LoginService
	UserService  *service.UserService

	// APIThrottle bounds requests per caller on the /api routes.
	APIThrottle httpx.ThrottleConfig

	// Proxies are the peers whose forwarding headers name the client.
	// Nil keys clients by socket address.
	Proxies *httpx.TrustedProxies
}

// NewRouter builds a router. When production is set error bodies never carry
// the underlying cause.
func NewRouter(
	signer jwtx.Signer,
	verifier jwtx.Verifier,
	buildVersion string,
	production bool,
	st Pinger,
	rateLimiter Pinger,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		signer:       signer,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		errors:       errorWriter{production: production},
		store:        st,
		rateLimiter:  rateLimiter,
		APIThrottle:  httpx.APIThrottle,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerLogin()
	r.registerUsers()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerLogin() {
	// Login attempts are counted by the login service itself so that
	// malformed requests never touch the counter.
	r.Mux.Handle("POST /login", &LoginHandler{
		LoginService: r.LoginService,
		Proxies:      r.Proxies,
		errors:       r.errors,
	})
}

func (r *Router) registerUsers() {
	protect := func(h http.Handler) http.Handler {
		return httpx.Chain(h,
			httpx.AuthnMiddleware(r.verifier), // verify signature and exp
			IdentityMiddleware(r.UserService, r.verifier),
			httpx.Throttle(r.APIThrottle, r.Proxies.SubjectOrIP),
		)
	}

	h := &UsersHandler{UserService: r.UserService, errors: r.errors}
	r.Mux.Handle("GET /api/users", protect(http.HandlerFunc(h.HandleList)))
	r.Mux.Handle("GET /api/users/me", protect(http.HandlerFunc(h.HandleMe)))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, ReadyzChecks{
		Store:      r.store,
		Signer:     r.signer,
		RateLimit:  r.rateLimiter,
		Production: r.errors.production,
	}))
}
