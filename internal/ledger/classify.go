package ledger

import (
	"github.com/shopspring/decimal"

	"remitledger/internal/core"
)

// Classified is the partition of a transaction list into the two buckets
// that feed a month's income and outflow.
type Classified struct {
	IncomeLike  []core.OtherTransaction
	ExpenseLike []core.OtherTransaction
}

// DebtTotals sums the USD amount of debt transactions per settlement state.
type DebtTotals struct {
	Pending decimal.Decimal `json:"pending"`
	Partial decimal.Decimal `json:"partial"`
	Settled decimal.Decimal `json:"settled"`
}

// DebtSummary is informational only. Debt records already count toward
// income/outflow in full when entered, whatever their status.
type DebtSummary struct {
	OwedToMe DebtTotals `json:"owed_to_me"`
	IOwe     DebtTotals `json:"i_owe"`
}

// IsIncomeLike reports whether a transaction type adds to income.
// owes_me counts as income as soon as it is recorded.
func IsIncomeLike(t core.TransactionType) bool {
	return t == core.TypeIncome || t == core.TypeOwesMe
}

// Classify splits transactions into income-like (income, owes_me) and
// expense-like (everything else: expense, i_owe). Order within each bucket
// follows the input. Debt status plays no part.
func Classify(txs []core.OtherTransaction) Classified {
	var c Classified
	for _, tx := range txs {
		if IsIncomeLike(tx.Type) {
			c.IncomeLike = append(c.IncomeLike, tx)
		} else {
			c.ExpenseLike = append(c.ExpenseLike, tx)
		}
	}
	return c
}

// USDAmount is the amount a transaction contributes to USD totals. Entries
// recorded only in INR contribute zero; no conversion is attempted.
func USDAmount(tx core.OtherTransaction) decimal.Decimal {
	return core.OrZero(tx.AmountUSD)
}

// SumUSD folds USDAmount over txs.
func SumUSD(txs []core.OtherTransaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(USDAmount(tx))
	}
	return total
}

// Debts totals owes_me and i_owe transactions by debt status. A debt with
// no status recorded is treated as pending.
func Debts(txs []core.OtherTransaction) DebtSummary {
	s := DebtSummary{OwedToMe: zeroDebtTotals(), IOwe: zeroDebtTotals()}
	for _, tx := range txs {
		var bucket *DebtTotals
		switch tx.Type {
		case core.TypeOwesMe:
			bucket = &s.OwedToMe
		case core.TypeIOwe:
			bucket = &s.IOwe
		default:
			continue
		}
		bucket.add(tx.DebtStatus, USDAmount(tx))
	}
	return s
}

func zeroDebtTotals() DebtTotals {
	return DebtTotals{Pending: decimal.Zero, Partial: decimal.Zero, Settled: decimal.Zero}
}

func (d *DebtTotals) add(status core.DebtStatus, amount decimal.Decimal) {
	switch status {
	case core.DebtSettled:
		d.Settled = d.Settled.Add(amount)
	case core.DebtPartial:
		d.Partial = d.Partial.Add(amount)
	default:
		d.Pending = d.Pending.Add(amount)
	}
}

// Outstanding is what is still open: pending plus partially paid.
func (d DebtTotals) Outstanding() decimal.Decimal {
	return d.Pending.Add(d.Partial)
}

func (d DebtTotals) plus(o DebtTotals) DebtTotals {
	return DebtTotals{
		Pending: d.Pending.Add(o.Pending),
		Partial: d.Partial.Add(o.Partial),
		Settled: d.Settled.Add(o.Settled),
	}
}
