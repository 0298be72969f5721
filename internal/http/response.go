package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"remitledger/internal/core"
	"remitledger/internal/log"
	"remitledger/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode JSON response", log.FieldError, err)
	}
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusBadRequest, log.ErrorTypeValidation
	case errors.Is(err, store.ErrPeriodNotFound):
		return http.StatusConflict, log.ErrorTypeConflict
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, log.ErrorTypeNotFound
	case errors.Is(err, store.ErrStore):
		return http.StatusInternalServerError, log.ErrorTypeDatabase
	default:
		return http.StatusInternalServerError, log.ErrorTypeInternal
	}
}

// writeError answers with the mapped status. Client errors carry their
// message; server errors are logged and answered generically.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, errorType := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldError, err,
			log.FieldErrorType, errorType,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
