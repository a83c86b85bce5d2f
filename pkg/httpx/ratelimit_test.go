package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimitByIP(t *testing.T) {
	cfg := RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}

	handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), RateLimitByIP(cfg))

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":12345"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, do("10.0.0.1"))
	require.Equal(t, http.StatusOK, do("10.0.0.1"))
	require.Equal(t, http.StatusTooManyRequests, do("10.0.0.1"))

	// A different key gets its own bucket.
	require.Equal(t, http.StatusOK, do("10.0.0.2"))
}

func TestRateLimitSetsRetryHeaders(t *testing.T) {
	cfg := RateLimitConfig{RequestsPerWindow: 1, Window: time.Minute, Burst: 1}

	handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), RateLimitByIP(cfg))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.1.1:1"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
}

func TestIPKeyExtractorPrefersForwardedHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:9999"

	require.Equal(t, "127.0.0.1", IPKeyExtractor(req))

	req.Header.Set("X-Real-IP", "203.0.113.9")
	require.Equal(t, "203.0.113.9", IPKeyExtractor(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.4, 203.0.113.9")
	require.Equal(t, "198.51.100.4", IPKeyExtractor(req))
}
