package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/dirauth/internal/auth/service"
	"github.com/aussiebroadwan/dirauth/pkg/authsdk"
	"github.com/aussiebroadwan/dirauth/pkg/httpx"
	"github.com/aussiebroadwan/dirauth/pkg/slogx"
)

// errorWriter maps service errors onto HTTP responses. In production the
// response only ever carries the fixed description of each error kind; in
// development authentication and directory errors include their cause.
// Internal errors are generic either way.
type errorWriter struct {
	production bool
}

func (e errorWriter) describe(base *authsdk.Error, cause error) *authsdk.Error {
	if e.production || cause == nil {
		return base
	}
	return base.WithDescription(cause.Error())
}

// write logs err and writes the matching response.
func (e errorWriter) write(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	var (
		valErr *service.ValidationError
		rlErr  *service.RateLimitError
	)
	switch {
	case errors.As(err, &valErr):
		toValidationResponse(valErr).WriteError(w)

	case errors.As(err, &rlErr):
		httpx.WriteTooManyRequests(w, rlErr.RetryAfter)

	case errors.Is(err, service.ErrAuthentication):
		log.Warn("authentication failed", "err", err)
		e.describe(authsdk.ErrInvalidCredentials, err).WriteError(w)

	case errors.Is(err, service.ErrDirectory):
		log.Error("directory request failed", "err", err)
		e.describe(authsdk.ErrDirectoryUnavailable, err).WriteError(w)

	default:
		log.Error("request failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}

func toValidationResponse(v *service.ValidationError) *authsdk.ValidationError {
	details := make([]authsdk.FieldDetail, len(v.Fields))
	for i, f := range v.Fields {
		details[i] = authsdk.FieldDetail{Field: f.Field, Rule: f.Rule, Value: f.Value}
	}
	return &authsdk.ValidationError{Details: details}
}
