// Package core provides the ledger record types and money handling utilities.
//
// This file contains functions for parsing monetary amounts from user input
// and formatting them for display. Amounts are decimal.Decimal end to end;
// rounding only happens in the Format helpers.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user supplied decimal string to a decimal value.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs,
// exponents and thousands separators are rejected. Zero is accepted; callers
// that need a positive amount check it themselves.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	dots := 0
	for _, r := range s {
		switch {
		case r == '.':
			dots++
		case !unicode.IsDigit(r):
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if dots > 1 || s == "." {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseOptionalAmount parses s, returning an invalid NullDecimal for blank input.
func ParseOptionalAmount(s string) (decimal.NullDecimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// OrZero returns the amount when present and zero otherwise.
func OrZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

// FormatUSD renders an amount with two decimals, e.g. "$1234.50" or "-$50.00".
func FormatUSD(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// FormatINR renders an amount rounded to whole rupees, e.g. "₹166000".
func FormatINR(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-₹" + d.Neg().StringFixed(0)
	}
	return "₹" + d.StringFixed(0)
}

// FormatRate renders an exchange rate with two decimals, e.g. "₹83.25".
func FormatRate(d decimal.Decimal) string {
	return "₹" + d.StringFixed(2)
}
