package service

import (
	"errors"
	"strings"
	"time"
)

// Error kinds returned by the login flow. Causes are wrapped underneath so
// errors.Is picks the kind and Error() keeps the detail for the logs.
var (
	ErrRateLimited    = errors.New("rate_limited")
	ErrAuthentication = errors.New("authentication_failed")
	ErrDirectory      = errors.New("directory_error")
	ErrInternal       = errors.New("internal_error")
)

// Validation rules.
const (
	RuleRequired = "required"
	RuleLength   = "length"
	RuleCharset  = "charset"
)

// FieldError describes one violated rule. Value is the offending input and is
// always empty for secret fields.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Value string `json:"value,omitempty"`
}

// ValidationError carries every rule a request violated.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Rule
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// RateLimitError is returned when a client exhausted its login attempts.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string { return ErrRateLimited.Error() }

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }
