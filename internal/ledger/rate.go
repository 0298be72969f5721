// Package ledger turns fetched ledger records into derived monthly figures.
//
// Everything here is a pure function of its arguments: no I/O, no package
// state, no goroutines. Amounts are summed as decimals and never rounded;
// rounding for display belongs to the caller.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"remitledger/internal/core"
)

// RatePrecision is the number of decimal places kept for an effective rate.
const RatePrecision = 8

// ErrInvalidRate is returned when an effective rate cannot be derived.
var ErrInvalidRate = fmt.Errorf("%w: USD amount must be positive to derive a rate", core.ErrValidation)

// EffectiveRate returns the INR received per USD sent for one remittance.
// It is computed once, when the remittance is created, and stored with it.
func EffectiveRate(amountUSD, amountINR decimal.Decimal) (decimal.Decimal, error) {
	if !amountUSD.IsPositive() {
		return decimal.Zero, ErrInvalidRate
	}
	return amountINR.DivRound(amountUSD, RatePrecision), nil
}
