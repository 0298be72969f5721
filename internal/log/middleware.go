package log

import (
	"context"
	"log/slog"
	"net/http"
)

type loggerKey struct{}

// Middleware stores a request-scoped logger in every request context. When
// requestID is non-nil its value is attached to every line that logger
// writes, so handler logs join up with the access log.
func Middleware(base *Logger, requestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := base
			if requestID != nil {
				if id := requestID(r); id != "" {
					l = base.With(FieldRequestID, id)
				}
			}
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), l)))
		})
	}
}

func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the logger stored by Middleware, or one over the slog
// default tagged as component "unknown".
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return l
	}
	return wrap(slog.Default(), "unknown")
}

// StructuredLogger writes the access log line for each request.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger.WithComponent(ComponentHTTP)}
}

// LogHTTPEnd logs at INFO below 400, WARN for client errors and ERROR for
// server errors.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, requestID string, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
		WithStatus(statusCode, durationMs).
		WithClientIP(clientIP)
	if requestID != "" {
		fields[FieldRequestID] = requestID
	}

	sl.logger.Log(ctx, level, "HTTP request completed", fields.Args()...)
}
