package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"remitledger/internal/core"
)

// GET /api/months
func (s *Server) handleAllMonths(w http.ResponseWriter, r *http.Request) {
	portfolio, err := s.ledger.AllMonths(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, portfolio)
}

// GET /api/months/{year}/{month}
func (s *Server) handleMonthView(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.ledger.MonthView(r.Context(), year, month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// PUT /api/months/{year}/{month}/salary
func (s *Server) handleSubmitSalary(w http.ResponseWriter, r *http.Request) {
	var req salaryRequest
	year, month, err := parseBody(w, r, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	period, err := s.ledger.SubmitSalary(r.Context(), year, month, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, period)
}

// POST /api/months/{year}/{month}/remittances
func (s *Server) handleAddRemittance(w http.ResponseWriter, r *http.Request) {
	var req remittanceRequest
	year, month, err := parseBody(w, r, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rem, err := s.ledger.AddRemittance(r.Context(), year, month, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rem)
}

// POST /api/months/{year}/{month}/expenses
func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	year, month, err := parseBody(w, r, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	exp, err := s.ledger.AddExpense(r.Context(), year, month, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, exp)
}

// POST /api/months/{year}/{month}/transactions
func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	year, month, err := parseBody(w, r, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tx, err := s.ledger.AddTransaction(r.Context(), year, month, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// handleDelete serves DELETE /api/{collection}/{id}.
func (s *Server) handleDelete(del func(ctx context.Context, id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := del(r.Context(), chi.URLParam(r, "id")); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type ratePreview struct {
	EffectiveRate string `json:"effective_rate"`
	Display       string `json:"display"`
}

// GET /api/rate?usd=&inr=
func (s *Server) handlePreviewRate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	usd, err := amount(q.Get("usd")).required("usd")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	inr, err := amount(q.Get("inr")).required("inr")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rate, err := s.ledger.PreviewRate(usd, inr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ratePreview{
		EffectiveRate: rate.String(),
		Display:       core.FormatRate(rate),
	})
}

// parseBody resolves the month path parameters and decodes the JSON body.
func parseBody(w http.ResponseWriter, r *http.Request, dst any) (year, month int, err error) {
	year, month, err = parseYearMonth(r)
	if err != nil {
		return 0, 0, err
	}
	if err := decodeJSON(w, r, dst); err != nil {
		return 0, 0, err
	}
	return year, month, nil
}
