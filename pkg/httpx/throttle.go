package httpx

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/dirauth/pkg/slogx"
	"golang.org/x/time/rate"
)

// ThrottleConfig defines a token bucket refilled at RequestsPerWindow per
// Window, holding at most Burst tokens.
type ThrottleConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

// APIThrottle is the default bucket for authenticated API calls.
// Override with RATELIMIT_API_REQUESTS, RATELIMIT_API_WINDOW_SEC, RATELIMIT_API_BURST.
var APIThrottle = ThrottleConfig{
	RequestsPerWindow: 120,
	Window:            time.Minute,
	Burst:             30,
}

// ThrottleFromEnv overlays RATELIMIT_{profile}_{REQUESTS,WINDOW_SEC,BURST} on
// def. Unparseable or non-positive values are ignored.
func ThrottleFromEnv(profile string, def ThrottleConfig) ThrottleConfig {
	cfg := def
	prefix := "RATELIMIT_" + strings.ToUpper(profile) + "_"

	if n, ok := positiveEnvInt(prefix + "REQUESTS"); ok {
		cfg.RequestsPerWindow = n
	}
	if n, ok := positiveEnvInt(prefix + "WINDOW_SEC"); ok {
		cfg.Window = time.Duration(n) * time.Second
	}
	if n, ok := positiveEnvInt(prefix + "BURST"); ok {
		cfg.Burst = n
	}
	return cfg
}

func positiveEnvInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// KeyFunc derives the bucket key for a request. An empty key skips throttling.
type KeyFunc func(*http.Request) string

// SubjectOrIP keys authenticated requests by token subject and everything
// else by socket address. Use TrustedProxies.SubjectOrIP behind a proxy.
func SubjectOrIP(r *http.Request) string {
	var p *TrustedProxies
	return p.SubjectOrIP(r)
}

type buckets struct {
	limit rate.Limit
	burst int

	entries sync.Map // map[string]*rate.Limiter

	mu        sync.Mutex
	lastSweep time.Time
}

func (b *buckets) get(key string) *rate.Limiter {
	if l, ok := b.entries.Load(key); ok {
		return l.(*rate.Limiter)
	}

	actual, _ := b.entries.LoadOrStore(key, rate.NewLimiter(b.limit, b.burst))
	b.sweep()
	return actual.(*rate.Limiter)
}

// sweep drops idle buckets at most every five minutes. A full bucket has not
// been used for at least Burst/limit seconds and is indistinguishable from a
// new one.
func (b *buckets) sweep() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if time.Since(b.lastSweep) < 5*time.Minute {
		return
	}
	b.lastSweep = time.Now()

	b.entries.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(b.burst) {
			b.entries.Delete(key)
		}
		return true
	})
}

// Throttle applies a per-key token bucket. Rejected requests get 429 with
// Retry-After and no counter details.
func Throttle(cfg ThrottleConfig, key KeyFunc) Middleware {
	b := &buckets{
		limit:     rate.Limit(float64(cfg.RequestsPerWindow) / cfg.Window.Seconds()),
		burst:     cfg.Burst,
		lastSweep: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				slogx.FromContext(r.Context()).Warn("throttle: no key for request, allowing")
				next.ServeHTTP(w, r)
				return
			}

			l := b.get(k)
			if l.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			res := l.Reserve()
			delay := res.Delay()
			res.Cancel()

			WriteTooManyRequests(w, delay)
			slogx.FromContext(r.Context()).Warn("request throttled",
				"key", k,
				"path", r.URL.Path,
			)
		})
	}
}

// WriteTooManyRequests writes a 429 carrying only a Retry-After hint, rounded
// up to whole seconds and never below one.
func WriteTooManyRequests(w http.ResponseWriter, retryAfter time.Duration) {
	secs := max(int((retryAfter+time.Second-1)/time.Second), 1)
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	WriteJSON(w, http.StatusTooManyRequests, map[string]string{
		"error":             "rate_limit_exceeded",
		"error_description": "Too many requests. Please try again later.",
	})
}
