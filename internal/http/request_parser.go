// Package http provides the JSON API over the ledger service.
//
// This file turns request bodies and path parameters into service inputs.
// Every parse failure wraps core.ErrValidation so it surfaces as a 400.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"remitledger/internal/core"
	"remitledger/internal/services"
)

const maxBodyBytes = 64 << 10

// amount accepts a JSON string ("1234.50") or a bare number (1234.5) and
// keeps the literal text so no float conversion ever touches it.
type amount string

func (a *amount) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "null":
		*a = ""
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*a = amount(str)
	default:
		*a = amount(s)
	}
	return nil
}

func (a amount) required(field string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(string(a))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

func (a amount) optional(field string) (decimal.NullDecimal, error) {
	d, err := core.ParseOptionalAmount(string(a))
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

type (
	salaryRequest struct {
		DaysWorked            int    `json:"days_worked"`
		TotalSalaryUSD        amount `json:"total_salary_usd"`
		ExchangeRateReference amount `json:"exchange_rate_reference"`
	}

	remittanceRequest struct {
		AmountUSD        amount `json:"amount_usd"`
		AmountINR        amount `json:"amount_inr"`
		Purpose          string `json:"purpose"`
		TransferMethod   string `json:"transfer_method"`
		RecipientAccount string `json:"recipient_account"`
		Description      string `json:"description"`
		TransferDate     string `json:"transfer_date"`
	}

	expenseRequest struct {
		Category    string `json:"category"`
		AmountUSD   amount `json:"amount_usd"`
		AmountINR   amount `json:"amount_inr"`
		Description string `json:"description"`
		ExpenseDate string `json:"expense_date"`
	}

	transactionRequest struct {
		Type            string `json:"type"`
		Currency        string `json:"currency"`
		Amount          amount `json:"amount"`
		AmountINR       amount `json:"amount_inr"`
		Category        string `json:"category"`
		Description     string `json:"description"`
		Source          string `json:"source"`
		Notes           string `json:"notes"`
		TransactionDate string `json:"transaction_date"`
		DebtStatus      string `json:"debt_status"`
		ExpectedDate    string `json:"expected_date"`
	}
)

// decodeJSON reads a single JSON object into dst, rejecting unknown fields
// and trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", core.ErrValidation)
		}
		return fmt.Errorf("%w: malformed JSON body: %v", core.ErrValidation, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must hold a single JSON object", core.ErrValidation)
	}
	return nil
}

// parseYearMonth reads the {year} and {month} path parameters. Range checks
// are left to the service.
func parseYearMonth(r *http.Request) (year, month int, err error) {
	year, err = strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return 0, 0, core.ErrInvalidYear
	}
	month, err = strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		return 0, 0, core.ErrInvalidMonth
	}
	return year, month, nil
}

func (req salaryRequest) toInput() (services.SalaryInput, error) {
	salary, err := req.TotalSalaryUSD.required("total_salary_usd")
	if err != nil {
		return services.SalaryInput{}, err
	}
	rate, err := req.ExchangeRateReference.optional("exchange_rate_reference")
	if err != nil {
		return services.SalaryInput{}, err
	}
	return services.SalaryInput{
		DaysWorked:            req.DaysWorked,
		TotalSalaryUSD:        salary,
		ExchangeRateReference: rate,
	}, nil
}

func (req remittanceRequest) toInput() (services.RemittanceInput, error) {
	usd, err := req.AmountUSD.required("amount_usd")
	if err != nil {
		return services.RemittanceInput{}, err
	}
	inr, err := req.AmountINR.required("amount_inr")
	if err != nil {
		return services.RemittanceInput{}, err
	}
	date, err := core.ParseOptionalDate(req.TransferDate)
	if err != nil {
		return services.RemittanceInput{}, err
	}
	return services.RemittanceInput{
		AmountUSD:        usd,
		AmountINR:        inr,
		Purpose:          core.Purpose(req.Purpose),
		TransferMethod:   core.TransferMethod(req.TransferMethod),
		RecipientAccount: sanitizeInput(req.RecipientAccount),
		Description:      sanitizeInput(req.Description),
		TransferDate:     date,
	}, nil
}

func (req expenseRequest) toInput() (services.ExpenseInput, error) {
	usd, err := req.AmountUSD.optional("amount_usd")
	if err != nil {
		return services.ExpenseInput{}, err
	}
	inr, err := req.AmountINR.optional("amount_inr")
	if err != nil {
		return services.ExpenseInput{}, err
	}
	date, err := core.ParseOptionalDate(req.ExpenseDate)
	if err != nil {
		return services.ExpenseInput{}, err
	}
	return services.ExpenseInput{
		Category:    core.ExpenseCategory(req.Category),
		AmountUSD:   usd,
		AmountINR:   inr,
		Description: sanitizeInput(req.Description),
		ExpenseDate: date,
	}, nil
}

func (req transactionRequest) toInput() (services.TransactionInput, error) {
	amt, err := req.Amount.required("amount")
	if err != nil {
		return services.TransactionInput{}, err
	}
	inr, err := req.AmountINR.optional("amount_inr")
	if err != nil {
		return services.TransactionInput{}, err
	}
	txDate, err := core.ParseOptionalDate(req.TransactionDate)
	if err != nil {
		return services.TransactionInput{}, err
	}
	expected, err := core.ParseOptionalDate(req.ExpectedDate)
	if err != nil {
		return services.TransactionInput{}, err
	}
	return services.TransactionInput{
		Type:            core.TransactionType(req.Type),
		Currency:        core.Currency(strings.ToUpper(strings.TrimSpace(req.Currency))),
		Amount:          amt,
		AmountINR:       inr,
		Category:        sanitizeInput(req.Category),
		Description:     sanitizeInput(req.Description),
		Source:          sanitizeInput(req.Source),
		Notes:           sanitizeInput(req.Notes),
		TransactionDate: txDate,
		DebtStatus:      core.DebtStatus(req.DebtStatus),
		ExpectedDate:    expected,
	}, nil
}
