// Package ratelimit implements fixed-window attempt counters keyed by client.
// Counters live in a Store, either Redis for deployments with several
// replicas or process memory.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/dirauth/pkg/slogx"
)

// ErrStoreUnavailable wraps failures of the backing counter store.
var ErrStoreUnavailable = errors.New("ratelimit: store unavailable")

// Store counts hits per key in fixed windows. Increment must be atomic: it
// adds one to the counter for key, starting a new window of the given length
// when none is active, and reports the new count and the time left in the
// window.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
	Ping(ctx context.Context) error
}

// Config holds the limiter tuning parameters.
type Config struct {
	Enabled bool
	Max     int64
	Window  time.Duration
}

// Decision is the outcome of a single check.
type Decision struct {
	Allowed   bool
	Remaining int64

	// RetryAfter is the time until the current window closes. Only set when
	// the request is refused.
	RetryAfter time.Duration
}

// Limiter gates attempts per key. It fails open: a store error allows the
// attempt and is logged as a warning.
type Limiter struct {
	cfg   Config
	store Store
}

// New creates a Limiter over store.
func New(store Store, cfg Config) *Limiter {
	return &Limiter{cfg: cfg, store: store}
}

// Enabled reports whether checks are enforced.
func (l *Limiter) Enabled() bool { return l.cfg.Enabled }

// Check counts one attempt for key. The first Max attempts in a window are
// allowed; every further attempt in the same window is refused.
func (l *Limiter) Check(ctx context.Context, key string) Decision {
	if !l.cfg.Enabled {
		return Decision{Allowed: true, Remaining: l.cfg.Max}
	}

	count, ttl, err := l.store.Increment(ctx, key, l.cfg.Window)
	if err != nil {
		slogx.FromContext(ctx).Warn("rate limit store failed, allowing request",
			"key", key,
			"err", err,
		)
		return Decision{Allowed: true, Remaining: l.cfg.Max}
	}

	if count > l.cfg.Max {
		if ttl <= 0 {
			ttl = l.cfg.Window
		}
		return Decision{Allowed: false, RetryAfter: ttl}
	}

	return Decision{Allowed: true, Remaining: l.cfg.Max - count}
}

// Ping checks the backing store.
func (l *Limiter) Ping(ctx context.Context) error {
	return l.store.Ping(ctx)
}

// LoginKey is the counter key for login attempts from a client address.
func LoginKey(clientIP string) string {
	return "login:" + clientIP
}
