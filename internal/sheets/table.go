package sheets

import (
	"strconv"

	"remitledger/internal/core"
	"remitledger/internal/ledger"
)

// Header is the first row of the exported ledger table.
var Header = []any{
	"Month",
	"Days Worked",
	"Salary",
	"Rate Reference",
	"Remitted (USD)",
	"Remitted (INR)",
	"Big Expenses",
	"Other Income",
	"Other Expense",
	"Total Income",
	"Total Outflow",
	"Balance",
	"Owed To Me",
	"I Owe",
}

// TotalLabel marks the cross-month totals row.
const TotalLabel = "TOTAL"

// BuildTable renders the rollup as sheet rows: the header, one row per
// period in the given order, then the totals row. Amounts are rounded for
// display only; the figures themselves are computed exactly upstream.
func BuildTable(rows []ledger.PeriodSummary, totals ledger.MonthSummary) [][]any {
	out := make([][]any, 0, len(rows)+2)
	out = append(out, Header)
	for _, row := range rows {
		p := row.Period
		out = append(out, summaryRow(
			core.MonthName(p.Month)+" "+strconv.Itoa(p.Year),
			strconv.Itoa(p.DaysWorked),
			core.FormatRate(p.ExchangeRateReference),
			row.Summary,
		))
	}
	out = append(out, summaryRow(TotalLabel, "", "", totals))
	return out
}

func summaryRow(label, days, rate string, s ledger.MonthSummary) []any {
	return []any{
		label,
		days,
		core.FormatUSD(s.Salary),
		rate,
		core.FormatUSD(s.TotalRemittanceUSD),
		core.FormatINR(s.TotalRemittanceINR),
		core.FormatUSD(s.TotalBigExpenseUSD),
		core.FormatUSD(s.OtherIncome),
		core.FormatUSD(s.OtherExpense),
		core.FormatUSD(s.TotalIncome),
		core.FormatUSD(s.TotalOutflow),
		core.FormatUSD(s.Balance),
		core.FormatUSD(s.Debts.OwedToMe.Outstanding()),
		core.FormatUSD(s.Debts.IOwe.Outstanding()),
	}
}

// ColumnLetter returns the A1 column name for a 1-based column index.
func ColumnLetter(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}
