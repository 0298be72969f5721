package ledger

import "remitledger/internal/core"

// PeriodSummary is one row of the all-months rollup: the period, its
// children and the figures derived from them.
type PeriodSummary struct {
	Period       core.MonthlyPeriod      `json:"period"`
	Summary      MonthSummary            `json:"summary"`
	Remittances  []core.Remittance       `json:"remittances"`
	Expenses     []core.OtherExpense     `json:"expenses"`
	Transactions []core.OtherTransaction `json:"transactions"`
}

// Aggregate builds one PeriodSummary per period, in the order periods are
// given. Child records are grouped by MonthlyPeriodID in a single pass per
// collection; records pointing at a period that is not in periods are
// ignored. A period with no children still yields a row.
func Aggregate(periods []core.MonthlyPeriod, remittances []core.Remittance, expenses []core.OtherExpense, txs []core.OtherTransaction) []PeriodSummary {
	remByPeriod := make(map[string][]core.Remittance, len(periods))
	for _, r := range remittances {
		remByPeriod[r.MonthlyPeriodID] = append(remByPeriod[r.MonthlyPeriodID], r)
	}
	expByPeriod := make(map[string][]core.OtherExpense, len(periods))
	for _, e := range expenses {
		expByPeriod[e.MonthlyPeriodID] = append(expByPeriod[e.MonthlyPeriodID], e)
	}
	txByPeriod := make(map[string][]core.OtherTransaction, len(periods))
	for _, tx := range txs {
		txByPeriod[tx.MonthlyPeriodID] = append(txByPeriod[tx.MonthlyPeriodID], tx)
	}

	rows := make([]PeriodSummary, 0, len(periods))
	for i := range periods {
		p := periods[i]
		rem, exp, tx := orEmpty(remByPeriod[p.ID]), orEmpty(expByPeriod[p.ID]), orEmpty(txByPeriod[p.ID])
		rows = append(rows, PeriodSummary{
			Period:       p,
			Summary:      Summarize(&p, rem, exp, tx),
			Remittances:  rem,
			Expenses:     exp,
			Transactions: tx,
		})
	}
	return rows
}

// orEmpty keeps rows without children encoding as [] rather than null.
func orEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

// Totals sums every row into a single cross-month summary.
func Totals(rows []PeriodSummary) MonthSummary {
	total := Empty()
	for _, row := range rows {
		total = total.Plus(row.Summary)
	}
	return total
}
