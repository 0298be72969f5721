package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedHandler(l *Limiter) http.Handler {
	return l.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func send(h http.Handler, method, client string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/months/2025/3/remittances", nil)
	req.Header.Set("X-Client", client)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func byHeader(r *http.Request) string { return r.Header.Get("X-Client") }

func TestOnlyWritesAreLimited(t *testing.T) {
	l := New(Config{Writes: 1, Window: time.Minute}, byHeader, nil)
	h := limitedHandler(l)

	rec := send(h, http.MethodPost, "a")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))

	rec = send(h, http.MethodDelete, "a")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = send(h, http.MethodGet, "a")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))

	assert.Equal(t, int64(1), l.Rejected())
}

func TestClientsAreLimitedIndependently(t *testing.T) {
	h := limitedHandler(New(Config{Writes: 2, Window: time.Minute}, byHeader, nil))

	assert.Equal(t, http.StatusNoContent, send(h, http.MethodPost, "a").Code)
	assert.Equal(t, http.StatusNoContent, send(h, http.MethodPut, "a").Code)
	assert.Equal(t, http.StatusTooManyRequests, send(h, http.MethodPatch, "a").Code)
	assert.Equal(t, http.StatusNoContent, send(h, http.MethodPost, "b").Code)
}

func TestCustomLimitResponse(t *testing.T) {
	called := false
	l := New(Config{Writes: 1, Window: time.Minute}, byHeader, func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"slow down"}`))
	})
	h := limitedHandler(l)

	send(h, http.MethodPost, "a")
	rec := send(h, http.MethodPost, "a")
	assert.True(t, called)
	assert.JSONEq(t, `{"error":"slow down"}`, rec.Body.String())
}

func TestDefaults(t *testing.T) {
	l := New(Config{}, byHeader, nil)
	assert.Equal(t, DefaultConfig(), l.cfg)
}
