package ledger

import (
	"github.com/shopspring/decimal"

	"remitledger/internal/core"
)

// MonthSummary holds the derived figures for one month. It is never stored.
type MonthSummary struct {
	Salary             decimal.Decimal `json:"salary"`
	TotalRemittanceUSD decimal.Decimal `json:"total_remittance_usd"`
	TotalRemittanceINR decimal.Decimal `json:"total_remittance_inr"`
	TotalBigExpenseUSD decimal.Decimal `json:"total_big_expense_usd"`
	OtherIncome        decimal.Decimal `json:"other_income"`
	OtherExpense       decimal.Decimal `json:"other_expense"`
	TotalIncome        decimal.Decimal `json:"total_income"`
	TotalOutflow       decimal.Decimal `json:"total_outflow"`
	Balance            decimal.Decimal `json:"balance"`
	// TotalINR mirrors TotalRemittanceINR. INR never enters Balance.
	TotalINR decimal.Decimal `json:"total_inr"`
	Debts    DebtSummary     `json:"debts"`

	RemittanceCount  int `json:"remittance_count"`
	ExpenseCount     int `json:"expense_count"`
	TransactionCount int `json:"transaction_count"`
}

// Summarize folds one month's records into a MonthSummary. period may be
// nil when no salary was recorded; salary then counts as zero and the child
// records are still summarized.
func Summarize(period *core.MonthlyPeriod, remittances []core.Remittance, expenses []core.OtherExpense, txs []core.OtherTransaction) MonthSummary {
	s := MonthSummary{
		Salary:             decimal.Zero,
		TotalRemittanceUSD: decimal.Zero,
		TotalRemittanceINR: decimal.Zero,
		TotalBigExpenseUSD: decimal.Zero,
		RemittanceCount:    len(remittances),
		ExpenseCount:       len(expenses),
		TransactionCount:   len(txs),
	}
	if period != nil {
		s.Salary = period.TotalSalaryUSD
	}

	for _, r := range remittances {
		s.TotalRemittanceUSD = s.TotalRemittanceUSD.Add(r.AmountUSD)
		s.TotalRemittanceINR = s.TotalRemittanceINR.Add(r.AmountINR)
	}
	for _, e := range expenses {
		s.TotalBigExpenseUSD = s.TotalBigExpenseUSD.Add(core.OrZero(e.AmountUSD))
	}

	c := Classify(txs)
	s.OtherIncome = SumUSD(c.IncomeLike)
	s.OtherExpense = SumUSD(c.ExpenseLike)
	s.Debts = Debts(txs)

	s.derive()
	return s
}

// derive fills the totals that follow from the component sums.
func (s *MonthSummary) derive() {
	s.TotalIncome = s.Salary.Add(s.OtherIncome)
	s.TotalOutflow = s.TotalRemittanceUSD.Add(s.TotalBigExpenseUSD).Add(s.OtherExpense)
	s.Balance = s.TotalIncome.Sub(s.TotalOutflow)
	s.TotalINR = s.TotalRemittanceINR
}

// Plus returns the component-wise sum of two summaries.
func (s MonthSummary) Plus(o MonthSummary) MonthSummary {
	out := MonthSummary{
		Salary:             s.Salary.Add(o.Salary),
		TotalRemittanceUSD: s.TotalRemittanceUSD.Add(o.TotalRemittanceUSD),
		TotalRemittanceINR: s.TotalRemittanceINR.Add(o.TotalRemittanceINR),
		TotalBigExpenseUSD: s.TotalBigExpenseUSD.Add(o.TotalBigExpenseUSD),
		OtherIncome:        s.OtherIncome.Add(o.OtherIncome),
		OtherExpense:       s.OtherExpense.Add(o.OtherExpense),
		Debts: DebtSummary{
			OwedToMe: s.Debts.OwedToMe.plus(o.Debts.OwedToMe),
			IOwe:     s.Debts.IOwe.plus(o.Debts.IOwe),
		},
		RemittanceCount:  s.RemittanceCount + o.RemittanceCount,
		ExpenseCount:     s.ExpenseCount + o.ExpenseCount,
		TransactionCount: s.TransactionCount + o.TransactionCount,
	}
	out.derive()
	return out
}

// Empty returns a summary with every amount set to zero.
func Empty() MonthSummary {
	return Summarize(nil, nil, nil, nil)
}
