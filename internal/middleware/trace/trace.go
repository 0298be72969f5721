// Package trace tags every request with an id, echoes it to the caller and
// writes the one log line per request.
package trace

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"remitledger/internal/log"
)

// RequestIDHeader carries the id in both directions.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// Tracer is the request id and access log middleware.
type Tracer struct {
	clientIP func(*http.Request) string
	access   *log.StructuredLogger

	requests     atomic.Int64
	serverErrors atomic.Int64
	lastLatency  atomic.Int64 // microseconds
}

// Stats is a point-in-time copy of the tracer counters.
type Stats struct {
	Requests     int64
	ServerErrors int64
	LastLatency  time.Duration
}

// New builds a Tracer. clientIP may be nil.
func New(clientIP func(*http.Request) string, logger *log.Logger) *Tracer {
	return &Tracer{
		clientIP: clientIP,
		access:   log.NewStructuredLogger(logger),
	}
}

// Middleware reuses a well-formed incoming X-Request-ID so ids survive a
// proxy hop; otherwise it mints a UUID.
func (t *Tracer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		t.requests.Add(1)

		id := r.Header.Get(RequestIDHeader)
		if !wellFormed(id) {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		t.lastLatency.Store(elapsed.Microseconds())
		if status >= http.StatusInternalServerError {
			t.serverErrors.Add(1)
		}

		var ip string
		if t.clientIP != nil {
			ip = t.clientIP(r)
		}
		t.access.LogHTTPEnd(r.Context(), r, id, status, elapsed.Milliseconds(), ip)
	})
}

func (t *Tracer) Stats() Stats {
	return Stats{
		Requests:     t.requests.Load(),
		ServerErrors: t.serverErrors.Load(),
		LastLatency:  time.Duration(t.lastLatency.Load()) * time.Microsecond,
	}
}

// wellFormed accepts up to 64 ASCII letters, digits, '-' and '_'.
func wellFormed(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, c := range id {
		switch {
		case c == '-', c == '_':
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		default:
			return false
		}
	}
	return true
}

// RequestID returns the id stored by Middleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestIDFromRequest adapts RequestID for log.RequestIDMiddleware.
func RequestIDFromRequest(r *http.Request) string {
	return RequestID(r.Context())
}
