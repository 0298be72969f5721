package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remitledger/internal/core"
)

func TestAmountUnmarshal(t *testing.T) {
	var body struct {
		A amount `json:"a"`
		B amount `json:"b"`
		C amount `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": "12.30", "b": 0.1, "c": null}`), &body))
	assert.Equal(t, amount("12.30"), body.A)
	assert.Equal(t, amount("0.1"), body.B)
	assert.Equal(t, amount(""), body.C)

	d, err := body.B.required("b")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("0.1")))

	_, err = body.C.required("c")
	assert.ErrorIs(t, err, core.ErrValidation)

	opt, err := body.C.optional("c")
	require.NoError(t, err)
	assert.False(t, opt.Valid)
}

func TestParseYearMonth(t *testing.T) {
	route := func(year, month string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("year", year)
		rctx.URLParams.Add("month", month)
		return req.WithContext(contextWithRoute(req, rctx))
	}

	y, m, err := parseYearMonth(route("2025", "03"))
	require.NoError(t, err)
	assert.Equal(t, 2025, y)
	assert.Equal(t, 3, m)

	_, _, err = parseYearMonth(route("2025", "march"))
	assert.ErrorIs(t, err, core.ErrInvalidMonth)
	_, _, err = parseYearMonth(route("", "3"))
	assert.ErrorIs(t, err, core.ErrInvalidYear)
}

func TestDecodeJSON(t *testing.T) {
	decodeBody := func(body string) error {
		var dst salaryRequest
		req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
		return decodeJSON(httptest.NewRecorder(), req, &dst)
	}
	assert.NoError(t, decodeBody(`{"total_salary_usd": "1"}`))
	assert.ErrorIs(t, decodeBody(``), core.ErrValidation)
	assert.ErrorIs(t, decodeBody(`{"total_salary_usd": "1"} {"x": 1}`), core.ErrValidation)
	assert.ErrorIs(t, decodeBody(`[1, 2]`), core.ErrValidation)
	assert.ErrorIs(t, decodeBody(`{"total_salary_usd": "1"`+strings.Repeat(" ", maxBodyBytes)+`}`), core.ErrValidation)
}

func TestTransactionRequestToInput(t *testing.T) {
	in, err := transactionRequest{
		Type:         "owes_me",
		Currency:     " inr ",
		Amount:       "2500",
		Category:     "Loan\x00",
		Description:  "  Cousin  ",
		ExpectedDate: "2025-06-30",
	}.toInput()
	require.NoError(t, err)
	assert.Equal(t, core.INR, in.Currency)
	assert.Equal(t, "Loan", in.Category)
	assert.Equal(t, "Cousin", in.Description)
	require.NotNil(t, in.ExpectedDate)
	assert.Equal(t, "2025-06-30", in.ExpectedDate.String())
	assert.Nil(t, in.TransactionDate)

	_, err = transactionRequest{Amount: "1", TransactionDate: "yesterday"}.toInput()
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestExpenseRequestToInput(t *testing.T) {
	in, err := expenseRequest{Category: "Car", AmountINR: "12000,50", Description: "Service"}.toInput()
	require.NoError(t, err)
	assert.False(t, in.AmountUSD.Valid)
	require.True(t, in.AmountINR.Valid)
	assert.True(t, in.AmountINR.Decimal.Equal(decimal.RequireFromString("12000.50")))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "a\tb\nc", sanitizeInput("  a\tb\nc\x07 "))
	assert.Equal(t, "", sanitizeInput("\x01\x02"))
}

func contextWithRoute(req *http.Request, rctx *chi.Context) context.Context {
	return context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
}
