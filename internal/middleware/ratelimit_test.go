package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitAllowsWithinBudget(t *testing.T) {
	handler := NewRateLimitMiddleware(100, 10).Handler(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/pokemons", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimitBlocksBurstOverflow(t *testing.T) {
	handler := NewRateLimitMiddleware(3, 10).Handler(okHandler())

	var blocked int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/pokemons", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			blocked++
			assert.Equal(t, "60", rec.Header().Get("Retry-After"))
			assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
		}
	}

	assert.Equal(t, 3, blocked)
}

func TestRateLimitGenerateBucketIsStricter(t *testing.T) {
	handler := NewRateLimitMiddleware(100, 2).Handler(okHandler())

	var blocked int
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/generate", nil)
		req.RemoteAddr = "10.0.0.3:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			blocked++
		}
	}
	assert.Equal(t, 2, blocked)

	// The general bucket for the same client is untouched.
	req := httptest.NewRequest(http.MethodGet, "/api/pokemons", nil)
	req.RemoteAddr = "10.0.0.3:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitClientsAreIndependent(t *testing.T) {
	handler := NewRateLimitMiddleware(1, 10).Handler(okHandler())

	for _, addr := range []string{"10.0.1.1:1", "10.0.1.2:1", "10.0.1.3:1"} {
		req := httptest.NewRequest(http.MethodGet, "/api/pokemons", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "first request from %s", addr)
	}
}

func TestExtractClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:4567"
	assert.Equal(t, "192.168.1.5", extractClientIP(req))

	req.Header.Set("X-Real-IP", "203.0.113.7")
	assert.Equal(t, "203.0.113.7", extractClientIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
	assert.Equal(t, "198.51.100.4", extractClientIP(req))
}
