// Package ratelimit caps how many ledger writes a single client may make per
// window. Reads are never limited.
package ratelimit

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/httprate"
)

type Config struct {
	// Writes is the number of mutating requests a client may make per Window.
	Writes int
	Window time.Duration
}

func DefaultConfig() Config {
	return Config{Writes: 60, Window: time.Minute}
}

// Limiter counts writes per client key with httprate's sliding window and
// answers over-budget writes with onLimit. The X-RateLimit-* and
// Retry-After headers come from httprate.
type Limiter struct {
	cfg      Config
	writes   *httprate.RateLimiter
	rejected atomic.Int64
}

// New builds a Limiter. clientKey identifies the caller; a nil onLimit
// writes a plain-text 429.
func New(cfg Config, clientKey func(*http.Request) string, onLimit http.HandlerFunc) *Limiter {
	def := DefaultConfig()
	if cfg.Writes <= 0 {
		cfg.Writes = def.Writes
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if onLimit == nil {
		onLimit = func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "too many writes, slow down", http.StatusTooManyRequests)
		}
	}

	l := &Limiter{cfg: cfg}
	l.writes = httprate.NewRateLimiter(cfg.Writes, cfg.Window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return clientKey(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			l.rejected.Add(1)
			onLimit(w, r)
		}),
	)
	return l
}

// Handler applies the limit to POST, PUT, PATCH and DELETE only.
func (l *Limiter) Handler(next http.Handler) http.Handler {
	limited := l.writes.Handler(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if mutates(r.Method) {
			limited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Rejected counts writes refused since start.
func (l *Limiter) Rejected() int64 {
	return l.rejected.Load()
}

func mutates(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
