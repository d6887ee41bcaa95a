package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/dirauth/pkg/authsdk"
	"github.com/aussiebroadwan/dirauth/pkg/httpx"
	"github.com/aussiebroadwan/dirauth/pkg/jwtx"
	"github.com/aussiebroadwan/dirauth/pkg/slogx"
)

// Pinger is anything with a connectivity check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyzChecks are the dependencies probed by the readiness endpoint. A nil
// RateLimit means counting is disabled and always reports ok. With
// Production set a failed check reads just "error"; the cause is logged.
type ReadyzChecks struct {
	Store      Pinger
	Signer     jwtx.Signer
	RateLimit  Pinger
	Production bool
}

// ReadyzHandler answers 200 when the database, the signing secret and the
// attempt counter store all work, and 503 with per check detail otherwise.
func ReadyzHandler(startTime time.Time, version string, deps ReadyzChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{
			Database:  "ok",
			Signer:    "ok",
			RateLimit: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		degrade := func(field *string, check string, err error) {
			slogx.FromContext(r.Context()).Error("readiness check failed", "check", check, "err", err)
			*field = "error"
			if !deps.Production {
				*field += ": " + err.Error()
			}
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if err := deps.Store.Ping(r.Context()); err != nil {
			degrade(&checks.Database, "database", err)
		}

		if err := probeSigner(deps.Signer); err != nil {
			degrade(&checks.Signer, "signer", err)
		}

		// Login keeps working on a dead counter store (it fails open), but
		// the operator should know throttling is off.
		if deps.RateLimit != nil {
			if err := deps.RateLimit.Ping(r.Context()); err != nil {
				degrade(&checks.RateLimit, "rate_limit", err)
			}
		}

		response := authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}

// probeSigner signs a short lived token and, when the signer can also
// verify, checks it round trips.
func probeSigner(s jwtx.Signer) error {
	if s == nil {
		return jwtx.ErrNoSecret
	}
	tok, err := s.Sign(jwtx.NewClaims(0, "readyz", time.Minute, time.Now().UTC()))
	if err != nil {
		return err
	}
	if v, ok := s.(jwtx.Verifier); ok {
		_, err = v.Verify(tok)
	}
	return err
}
