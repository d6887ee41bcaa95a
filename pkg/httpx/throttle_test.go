package httpx_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/dirauth/pkg/httpx"
	"github.com/aussiebroadwan/dirauth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestSubjectOrIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1"
	require.Equal(t, "ip:10.0.0.1", httpx.SubjectOrIP(req))

	ctx := httpx.ContextWithClaims(req.Context(), jwtx.Claims{SubjectID: 7, Username: "alice"})
	require.Equal(t, "user:7", httpx.SubjectOrIP(req.WithContext(ctx)))
}

func TestThrottle(t *testing.T) {
	serve := func(h http.Handler, addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("blocks requests over burst", func(t *testing.T) {
		h := httpx.Throttle(httpx.ThrottleConfig{RequestsPerWindow: 3, Window: time.Minute, Burst: 3}, httpx.ClientIP)(okHandler)

		for i := range 3 {
			require.Equal(t, http.StatusOK, serve(h, "192.168.1.1:1").Code, "request %d should succeed", i+1)
		}

		rec := serve(h, "192.168.1.1:1")
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
		require.Contains(t, rec.Body.String(), "rate_limit_exceeded")
	})

	t.Run("different keys are tracked separately", func(t *testing.T) {
		h := httpx.Throttle(httpx.ThrottleConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}, httpx.ClientIP)(okHandler)

		require.Equal(t, http.StatusOK, serve(h, "192.168.1.1:1").Code)
		require.Equal(t, http.StatusTooManyRequests, serve(h, "192.168.1.1:1").Code)
		require.Equal(t, http.StatusOK, serve(h, "192.168.1.2:1").Code)
	})

	t.Run("empty key skips throttling", func(t *testing.T) {
		empty := func(*http.Request) string { return "" }
		h := httpx.Throttle(httpx.ThrottleConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}, empty)(okHandler)

		for range 3 {
			require.Equal(t, http.StatusOK, serve(h, "192.168.1.1:1").Code)
		}
	})
}

func TestWriteTooManyRequests(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "1"},
		{300 * time.Millisecond, "1"},
		{time.Second, "1"},
		{1500 * time.Millisecond, "2"},
		{42 * time.Second, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			httpx.WriteTooManyRequests(rec, tt.in)
			require.Equal(t, http.StatusTooManyRequests, rec.Code)
			require.Equal(t, tt.want, rec.Header().Get("Retry-After"))
		})
	}
}

func TestThrottleFromEnv(t *testing.T) {
	def := httpx.ThrottleConfig{RequestsPerWindow: 10, Window: time.Minute, Burst: 10}

	t.Run("no env uses defaults", func(t *testing.T) {
		require.Equal(t, def, httpx.ThrottleFromEnv("TEST", def))
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("RATELIMIT_TEST_REQUESTS", "50")
		t.Setenv("RATELIMIT_TEST_WINDOW_SEC", "30")
		t.Setenv("RATELIMIT_TEST_BURST", "5")

		got := httpx.ThrottleFromEnv("test", def)
		require.Equal(t, 50, got.RequestsPerWindow)
		require.Equal(t, 30*time.Second, got.Window)
		require.Equal(t, 5, got.Burst)
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		t.Setenv("RATELIMIT_TEST_REQUESTS", "lots")
		t.Setenv("RATELIMIT_TEST_BURST", "-1")
		require.Equal(t, def, httpx.ThrottleFromEnv("TEST", def))
	})
}

func BenchmarkThrottleManyIPs(b *testing.B) {
	h := httpx.Throttle(httpx.ThrottleConfig{RequestsPerWindow: 1000000, Window: time.Minute, Burst: 1000}, httpx.ClientIP)(okHandler)

	for i := 0; b.Loop(); i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = fmt.Sprintf("192.168.%d.%d:12345", i%255, (i/255)%255)
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
}
