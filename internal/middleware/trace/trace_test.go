package trace

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remitledger/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	tr := New(func(*http.Request) string { return "203.0.113.7" }, log.Discard())

	var seen string
	h := tr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/months", nil))

	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, int64(1), tr.Stats().Requests)
}

func TestMiddlewareReusesIncomingID(t *testing.T) {
	tr := New(nil, log.Discard())
	h := tr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc-123", RequestIDFromRequest(r))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "bad id; drop table")
	rec := httptest.NewRecorder()
	tr.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rec, req)
	assert.NotEqual(t, "bad id; drop table", rec.Header().Get(RequestIDHeader))
}

func TestMiddlewareCountsServerErrors(t *testing.T) {
	tr := New(nil, log.Discard())
	h := tr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	stats := tr.Stats()
	assert.Equal(t, int64(2), stats.Requests)
	assert.Equal(t, int64(2), stats.ServerErrors)
}

func TestRequestIDWithoutMiddleware(t *testing.T) {
	assert.Empty(t, RequestIDFromRequest(httptest.NewRequest(http.MethodGet, "/", nil)))
}
