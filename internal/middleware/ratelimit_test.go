package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_BurstThenDeny(t *testing.T) {
	l := NewLimiter(3, 1)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("client-a"), "request %d within burst", i+1)
	}
	assert.False(t, l.Allow("client-a"), "burst exhausted")
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := NewLimiter(1, 1)

	assert.True(t, l.Allow("client-a"))
	assert.False(t, l.Allow("client-a"))
	assert.True(t, l.Allow("client-b"), "client-b has its own bucket")
}

func TestLimiter_RefillsOverTime(t *testing.T) {
	l := NewLimiter(2, 10)

	assert.True(t, l.Allow("client-a"))
	assert.True(t, l.Allow("client-a"))
	assert.False(t, l.Allow("client-a"))

	time.Sleep(250 * time.Millisecond)
	assert.True(t, l.Allow("client-a"), "tokens come back at the refill rate")
}

func TestRateLimit_Returns429WhenDrained(t *testing.T) {
	handler := RateLimit(1, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/jobs", nil)
	req.RemoteAddr = "10.1.2.3:55000"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimit_SeparateAddressesSeparateBuckets(t *testing.T) {
	handler := RateLimit(1, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRequest(http.MethodGet, "/v1/jobs", nil)
	first.RemoteAddr = "10.1.2.3:55000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, first)
	require.Equal(t, http.StatusOK, rec.Code)

	second := httptest.NewRequest(http.MethodGet, "/v1/jobs", nil)
	second.RemoteAddr = "10.9.9.9:55000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, second)
	assert.Equal(t, http.StatusOK, rec.Code, "a different caller is not throttled")
}

func TestRateLimit_ProbesAreExempt(t *testing.T) {
	handler := RateLimit(1, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/health", "/live"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "10.1.2.3:55000"

		for i := 0; i < 5; i++ {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code, "%s probe %d", path, i+1)
		}
	}
}
