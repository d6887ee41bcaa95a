package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/dirauth/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeValidation         = "validation_error"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeUnauthorized       = "unauthorized"
	ErrorCodeForbidden          = "forbidden"
	ErrorCodeRateLimitExceeded  = "rate_limit_exceeded"
	ErrorCodeDirectoryError     = "directory_error"
	ErrorCodeServerError        = "server_error"
	ErrorCodeNotFound           = "not_found"
)

// ============================================================================
// Error - service error type
// ============================================================================

// Error is the JSON error body returned by the service. It is written by the
// server handlers and parsed back by the SDK client.
type Error struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine readable error code (e.g., "invalid_credentials")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches errors by code so parsed responses compare equal to the
// predefined values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithDescription returns a copy of e carrying a different description.
func (e *Error) WithDescription(desc string) *Error {
	cp := *e
	cp.Description = desc
	return &cp
}

// WriteError writes this Error to an HTTP response writer.
func (e *Error) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, e)
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	// ErrInvalidRequest is returned when the request body cannot be decoded.
	ErrInvalidRequest = &Error{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request body is malformed",
	}

	// ErrInvalidCredentials is returned when the directory rejected the bind.
	ErrInvalidCredentials = &Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid username or password",
	}

	// ErrUnauthorized is returned when a protected endpoint has no usable
	// bearer token or the token no longer resolves to a user.
	ErrUnauthorized = &Error{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUnauthorized,
		Description: "Authentication required.",
	}

	// ErrForbidden is returned when valid credentials belong to an account
	// that may not log in.
	ErrForbidden = &Error{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeForbidden,
		Description: "this account is not permitted to log in",
	}

	// ErrDirectoryUnavailable is returned when the directory could not be
	// reached or misbehaved.
	ErrDirectoryUnavailable = &Error{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeDirectoryError,
		Description: "the directory service is unavailable",
	}

	// ErrServerError is returned when the service hit an unexpected condition.
	ErrServerError = &Error{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// ============================================================================
// Validation Error
// ============================================================================

// ValidationError is returned with 400 when the login request broke one or
// more input rules. Every violation is listed.
type ValidationError struct {
	Details []FieldDetail `json:"details"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Details))
	for i, d := range e.Details {
		parts[i] = d.Field + ": " + d.Rule
	}
	return ErrorCodeValidation + ": " + strings.Join(parts, "; ")
}

// WriteError writes the validation error as a 400.
func (e *ValidationError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusBadRequest, ValidationErrorResponse{
		Error:   ErrorCodeValidation,
		Details: e.Details,
	})
}

// ============================================================================
// Rate Limit Error
// ============================================================================

// RateLimitError is returned to SDK callers when the service answered 429.
type RateLimitError struct {
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrorCodeRateLimitExceeded, e.RetryAfter)
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns a non-2xx response into a typed error.
// Returns nil if the response indicates success.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return &RateLimitError{RetryAfter: time.Duration(secs) * time.Second}
	}

	if resp.StatusCode == http.StatusBadRequest {
		var valErr ValidationErrorResponse
		if err := json.Unmarshal(body, &valErr); err == nil && valErr.Error == ErrorCodeValidation {
			return &ValidationError{Details: valErr.Details}
		}
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &Error{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	// Forbidden logins may come back with an empty body.
	if resp.StatusCode == http.StatusForbidden {
		return ErrForbidden
	}

	return &Error{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
