package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const maxDescriptionLen = 500

// ErrValidation is the root of every input validation failure. Callers
// check it with errors.Is to map to a client error.
var ErrValidation = errors.New("validation error")

var (
	ErrInvalidMonth       = fmt.Errorf("%w: month must be between 1 and 12", ErrValidation)
	ErrInvalidYear        = fmt.Errorf("%w: year out of range", ErrValidation)
	ErrInvalidDaysWorked  = fmt.Errorf("%w: days worked cannot be negative", ErrValidation)
	ErrInvalidSalary      = fmt.Errorf("%w: salary cannot be negative", ErrValidation)
	ErrInvalidRateRef     = fmt.Errorf("%w: exchange rate reference must be positive", ErrValidation)
	ErrInvalidAmount      = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrMissingAmount      = fmt.Errorf("%w: amount is required", ErrValidation)
	ErrEmptyDescription   = fmt.Errorf("%w: empty description", ErrValidation)
	ErrDescriptionTooLong = fmt.Errorf("%w: description too long (max %d characters)", ErrValidation, maxDescriptionLen)
	ErrEmptyCategory      = fmt.Errorf("%w: empty category", ErrValidation)
	ErrInvalidPurpose     = fmt.Errorf("%w: invalid purpose", ErrValidation)
	ErrInvalidMethod      = fmt.Errorf("%w: invalid transfer method", ErrValidation)
	ErrInvalidCategory    = fmt.Errorf("%w: invalid expense category", ErrValidation)
	ErrInvalidType        = fmt.Errorf("%w: invalid transaction type", ErrValidation)
	ErrInvalidCurrency    = fmt.Errorf("%w: invalid currency", ErrValidation)
	ErrInvalidDebtStatus  = fmt.Errorf("%w: invalid debt status", ErrValidation)
	ErrDebtFieldsOnDebt   = fmt.Errorf("%w: debt status and expected date only apply to debt transactions", ErrValidation)
)

// ValidateYearMonth checks a (year, month) pair.
func ValidateYearMonth(year, month int) error {
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	if year < 2000 || year > 2100 {
		return ErrInvalidYear
	}
	return nil
}

func (p MonthlyPeriod) Validate() error {
	if err := ValidateYearMonth(p.Year, p.Month); err != nil {
		return err
	}
	if p.DaysWorked < 0 {
		return ErrInvalidDaysWorked
	}
	if p.TotalSalaryUSD.IsNegative() {
		return ErrInvalidSalary
	}
	if !p.ExchangeRateReference.IsPositive() {
		return ErrInvalidRateRef
	}
	return nil
}

func (r Remittance) Validate() error {
	if !r.AmountUSD.IsPositive() || !r.AmountINR.IsPositive() {
		return fmt.Errorf("%w: USD and INR amounts must be positive", ErrInvalidAmount)
	}
	if !r.Purpose.IsValid() {
		return ErrInvalidPurpose
	}
	if !r.TransferMethod.IsValid() {
		return ErrInvalidMethod
	}
	if len(r.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

func (e OtherExpense) Validate() error {
	if !e.Category.IsValid() {
		return ErrInvalidCategory
	}
	if err := validateDescription(e.Description); err != nil {
		return err
	}
	if negative(e.AmountUSD) || negative(e.AmountINR) {
		return ErrInvalidAmount
	}
	return nil
}

func (t OtherTransaction) Validate() error {
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	if !t.Currency.IsValid() {
		return ErrInvalidCurrency
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if err := validateDescription(t.Description); err != nil {
		return err
	}
	if !t.AmountUSD.Valid && !t.AmountINR.Valid {
		return ErrMissingAmount
	}
	if negative(t.AmountUSD) || negative(t.AmountINR) {
		return ErrInvalidAmount
	}
	if t.Type.IsDebt() {
		if t.DebtStatus != "" && !t.DebtStatus.IsValid() {
			return ErrInvalidDebtStatus
		}
	} else if t.DebtStatus != "" || t.ExpectedDate != nil {
		return ErrDebtFieldsOnDebt
	}
	return nil
}

func validateDescription(desc string) error {
	if strings.TrimSpace(desc) == "" {
		return ErrEmptyDescription
	}
	if len(desc) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

func negative(d decimal.NullDecimal) bool {
	return d.Valid && d.Decimal.IsNegative()
}
