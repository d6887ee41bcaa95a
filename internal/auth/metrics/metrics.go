// Package metrics holds the authentication counters. Exporting them is left
// to whatever MeterProvider the process installs.
package metrics

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/dirauth/pkg/jwtx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/aussiebroadwan/dirauth/internal/auth"

// Login attempt results.
const (
	ResultSuccess   = "success"
	ResultFailure   = "failure"
	ResultForbidden = "forbidden"
	ResultThrottled = "throttled"
	ResultInvalid   = "invalid"
	ResultError     = "error"
)

// Token validation results.
const (
	ValidationValid   = "valid"
	ValidationInvalid = "invalid"
	ValidationExpired = "expired"
)

// Metrics records login attempts and token validations.
type Metrics struct {
	attempts    metric.Int64Counter
	validations metric.Int64Counter
}

// New registers the counters on meter.
func New(meter metric.Meter) (*Metrics, error) {
	attempts, err := meter.Int64Counter("auth_attempts_total",
		metric.WithDescription("Login attempts by result."),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	validations, err := meter.Int64Counter("jwt_validations_total",
		metric.WithDescription("Bearer token validations by result."),
		metric.WithUnit("{validation}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{attempts: attempts, validations: validations}, nil
}

// NewGlobal registers the counters on the global MeterProvider.
func NewGlobal() (*Metrics, error) {
	return New(otel.Meter(instrumentationName))
}

// Noop returns Metrics that record nothing.
func Noop() *Metrics {
	m, _ := New(noop.NewMeterProvider().Meter(instrumentationName))
	return m
}

// LoginAttempt counts one login attempt with the given result.
func (m *Metrics) LoginAttempt(ctx context.Context, result string) {
	m.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// TokenValidation counts one token validation with the given result.
func (m *Metrics) TokenValidation(ctx context.Context, result string) {
	m.validations.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// InstrumentVerifier counts every verification v performs.
func (m *Metrics) InstrumentVerifier(v jwtx.Verifier) jwtx.Verifier {
	return instrumentedVerifier{next: v, m: m}
}

type instrumentedVerifier struct {
	next jwtx.Verifier
	m    *Metrics
}

func (v instrumentedVerifier) Verify(token string) (jwtx.Claims, error) {
	claims, err := v.next.Verify(token)
	switch {
	case err == nil:
		v.m.TokenValidation(context.Background(), ValidationValid)
	case errors.Is(err, jwtx.ErrExpired):
		v.m.TokenValidation(context.Background(), ValidationExpired)
	default:
		v.m.TokenValidation(context.Background(), ValidationInvalid)
	}
	return claims, err
}
