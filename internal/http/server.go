package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"

	"remitledger/internal/core"
	"remitledger/internal/log"
	"remitledger/internal/middleware/ratelimit"
	"remitledger/internal/middleware/security"
	"remitledger/internal/middleware/trace"
	"remitledger/internal/services"
)

// LedgerAPI is the service surface the HTTP layer needs.
type LedgerAPI interface {
	SubmitSalary(ctx context.Context, year, month int, in services.SalaryInput) (core.MonthlyPeriod, error)
	AddRemittance(ctx context.Context, year, month int, in services.RemittanceInput) (core.Remittance, error)
	AddExpense(ctx context.Context, year, month int, in services.ExpenseInput) (core.OtherExpense, error)
	AddTransaction(ctx context.Context, year, month int, in services.TransactionInput) (core.OtherTransaction, error)
	DeleteRemittance(ctx context.Context, id string) error
	DeleteExpense(ctx context.Context, id string) error
	DeleteTransaction(ctx context.Context, id string) error
	DeletePeriod(ctx context.Context, id string) error
	MonthView(ctx context.Context, year, month int) (services.MonthView, error)
	AllMonths(ctx context.Context) (services.Portfolio, error)
	PreviewRate(amountUSD, amountINR decimal.Decimal) (decimal.Decimal, error)
}

type Server struct {
	http.Server
	router   chi.Router
	ledger   LedgerAPI
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Tracer

	corsOrigins []string

	shutdownOnce sync.Once
	shutdownErr  error
}

// Option customises a Server.
type Option func(*Server)

// WithCORSOrigins enables CORS for the given origins. Without it no CORS
// headers are sent.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// NewServer configures middleware and routes, returning a ready-to-run server.
func NewServer(addr string, ledger LedgerAPI, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	detector := security.NewDetector()

	s := &Server{
		router:   chi.NewRouter(),
		ledger:   ledger,
		logger:   logger.WithComponent(log.ComponentHTTP),
		detector: detector,
		tracer:   trace.New(detector.ClientIP, logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(s.tracer.Middleware)
	s.router.Use(log.Middleware(s.logger, trace.RequestIDFromRequest))
	s.router.Use(middleware.Recoverer)
	if len(s.corsOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}
	s.router.Use(security.APIHeaders().Handler)
	s.router.Use(s.detector.Middleware(s.logger))
	s.limiter = ratelimit.New(ratelimit.DefaultConfig(), s.detector.ClientIP, s.handleRateLimited)
	s.router.Use(s.limiter.Handler)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", handleHealth)
	s.router.Get("/readyz", s.handleReady)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/rate", s.handlePreviewRate)

		r.Route("/months", func(r chi.Router) {
			r.Get("/", s.handleAllMonths)
			r.Route("/{year}/{month}", func(r chi.Router) {
				r.Get("/", s.handleMonthView)
				r.Put("/salary", s.handleSubmitSalary)
				r.Post("/remittances", s.handleAddRemittance)
				r.Post("/expenses", s.handleAddExpense)
				r.Post("/transactions", s.handleAddTransaction)
			})
		})

		r.Delete("/periods/{id}", s.handleDelete(s.ledger.DeletePeriod))
		r.Delete("/remittances/{id}", s.handleDelete(s.ledger.DeleteRemittance))
		r.Delete("/expenses/{id}", s.handleDelete(s.ledger.DeleteExpense))
		r.Delete("/transactions/{id}", s.handleDelete(s.ledger.DeleteTransaction))
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})
}

// Shutdown drains the HTTP server. Repeated calls return the first result.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.shutdownErr = s.Server.Shutdown(ctx)
	})
	return s.shutdownErr
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded, try again later"})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports ready once the store answers a full read.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := s.ledger.AllMonths(ctx); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Readiness check failed",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeDatabase)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
