package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remitledger/internal/core"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nd(s string) decimal.NullDecimal { return decimal.NewNullDecimal(d(s)) }

func assertDec(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func period(id string, year, month int, salary string) core.MonthlyPeriod {
	return core.MonthlyPeriod{ID: id, Year: year, Month: month, DaysWorked: 20, TotalSalaryUSD: d(salary), ExchangeRateReference: d("83.5")}
}

func TestEffectiveRate(t *testing.T) {
	rate, err := EffectiveRate(d("200"), d("200000"))
	require.NoError(t, err)
	assertDec(t, "1000", rate, "rate")

	rate, err = EffectiveRate(d("3"), d("250"))
	require.NoError(t, err)
	assertDec(t, "83.33333333", rate, "rate")

	for _, usd := range []string{"0", "-10"} {
		for _, inr := range []string{"0", "1", "166000"} {
			_, err := EffectiveRate(d(usd), d(inr))
			assert.ErrorIs(t, err, ErrInvalidRate)
			assert.ErrorIs(t, err, core.ErrValidation)
		}
	}
}

func TestClassifyPartitionsEveryType(t *testing.T) {
	types := []core.TransactionType{core.TypeIncome, core.TypeExpense, core.TypeOwesMe, core.TypeIOwe}
	var txs []core.OtherTransaction
	for i := 0; i < 3; i++ {
		for _, typ := range types {
			txs = append(txs, core.OtherTransaction{Type: typ, AmountUSD: nd("10")})
		}
	}

	c := Classify(txs)
	assert.Equal(t, len(txs), len(c.IncomeLike)+len(c.ExpenseLike))
	for _, tx := range c.IncomeLike {
		assert.Contains(t, []core.TransactionType{core.TypeIncome, core.TypeOwesMe}, tx.Type)
	}
	for _, tx := range c.ExpenseLike {
		assert.Contains(t, []core.TransactionType{core.TypeExpense, core.TypeIOwe}, tx.Type)
	}
	assert.Len(t, c.IncomeLike, 6)
}

func TestClassifyIgnoresDebtStatus(t *testing.T) {
	txs := []core.OtherTransaction{
		{Type: core.TypeOwesMe, AmountUSD: nd("100"), DebtStatus: core.DebtSettled},
		{Type: core.TypeOwesMe, AmountUSD: nd("50"), DebtStatus: core.DebtPending},
		{Type: core.TypeIOwe, AmountUSD: nd("20"), DebtStatus: core.DebtPartial},
	}
	c := Classify(txs)
	assertDec(t, "150", SumUSD(c.IncomeLike), "income")
	assertDec(t, "20", SumUSD(c.ExpenseLike), "expense")
}

func TestINROnlyTransactionsContributeZero(t *testing.T) {
	txs := []core.OtherTransaction{
		{Type: core.TypeIncome, Currency: core.INR, AmountINR: nd("5000")},
		{Type: core.TypeExpense, Currency: core.INR, AmountINR: nd("700")},
	}
	s := Summarize(nil, nil, nil, txs)
	assertDec(t, "0", s.OtherIncome, "other income")
	assertDec(t, "0", s.OtherExpense, "other expense")
	assertDec(t, "0", s.Balance, "balance")
}

func TestDebts(t *testing.T) {
	txs := []core.OtherTransaction{
		{Type: core.TypeOwesMe, AmountUSD: nd("100"), DebtStatus: core.DebtPending},
		{Type: core.TypeOwesMe, AmountUSD: nd("40"), DebtStatus: core.DebtPartial},
		{Type: core.TypeOwesMe, AmountUSD: nd("10")},
		{Type: core.TypeIOwe, AmountUSD: nd("25"), DebtStatus: core.DebtSettled},
		{Type: core.TypeIncome, AmountUSD: nd("999")},
	}
	s := Debts(txs)
	assertDec(t, "110", s.OwedToMe.Pending, "owed pending")
	assertDec(t, "40", s.OwedToMe.Partial, "owed partial")
	assertDec(t, "150", s.OwedToMe.Outstanding(), "owed outstanding")
	assertDec(t, "25", s.IOwe.Settled, "i owe settled")
	assertDec(t, "0", s.IOwe.Outstanding(), "i owe outstanding")
}

func TestSummarizeSalaryOnly(t *testing.T) {
	for _, salary := range []string{"0", "0.01", "5000", "123456.789"} {
		p := period("p", 2025, 1, salary)
		s := Summarize(&p, nil, nil, nil)
		assertDec(t, salary, s.TotalIncome, "total income")
		assertDec(t, "0", s.TotalOutflow, "total outflow")
		assertDec(t, salary, s.Balance, "balance")
	}
}

func TestSummarizeScenarioA(t *testing.T) {
	p := period("p1", 2025, 3, "5000")
	rem := []core.Remittance{{MonthlyPeriodID: "p1", AmountUSD: d("2000"), AmountINR: d("166000")}}
	exp := []core.OtherExpense{{MonthlyPeriodID: "p1", AmountUSD: nd("500")}}
	txs := []core.OtherTransaction{{MonthlyPeriodID: "p1", Type: core.TypeOwesMe, AmountUSD: nd("300"), DebtStatus: core.DebtPending}}

	s := Summarize(&p, rem, exp, txs)
	assertDec(t, "5300", s.TotalIncome, "total income")
	assertDec(t, "2500", s.TotalOutflow, "total outflow")
	assertDec(t, "2800", s.Balance, "balance")
	assertDec(t, "166000", s.TotalINR, "total inr")
	assertDec(t, "300", s.Debts.OwedToMe.Pending, "debts")
	assert.Equal(t, 1, s.RemittanceCount)
}

func TestSummarizeScenarioBWithoutPeriod(t *testing.T) {
	txs := []core.OtherTransaction{{Type: core.TypeExpense, AmountUSD: nd("50")}}
	s := Summarize(nil, nil, nil, txs)
	assertDec(t, "0", s.TotalIncome, "total income")
	assertDec(t, "50", s.TotalOutflow, "total outflow")
	assertDec(t, "-50", s.Balance, "balance")
}

func TestSummarizeExpensesWithoutUSD(t *testing.T) {
	exp := []core.OtherExpense{
		{AmountINR: nd("20000")},
		{AmountUSD: nd("0")},
		{AmountUSD: nd("12.5"), AmountINR: nd("1000")},
	}
	s := Summarize(nil, nil, exp, nil)
	assertDec(t, "12.5", s.TotalBigExpenseUSD, "big expense")
}

func TestSummarizeKeepsFullPrecision(t *testing.T) {
	var rem []core.Remittance
	for i := 0; i < 3; i++ {
		rem = append(rem, core.Remittance{AmountUSD: d("0.333"), AmountINR: d("27.7")})
	}
	s := Summarize(nil, rem, nil, nil)
	assertDec(t, "0.999", s.TotalRemittanceUSD, "usd")
	assertDec(t, "83.1", s.TotalRemittanceINR, "inr")
}

func TestSummarizeIsIdempotent(t *testing.T) {
	p := period("p1", 2025, 3, "5000")
	rem := []core.Remittance{{AmountUSD: d("2000"), AmountINR: d("166000")}}
	txs := []core.OtherTransaction{{Type: core.TypeIncome, AmountUSD: nd("1.1")}}

	first := Summarize(&p, rem, nil, txs)
	second := Summarize(&p, rem, nil, txs)
	assert.Equal(t, first, second)
}

func TestAggregatePreservesOrderAndGroups(t *testing.T) {
	periods := []core.MonthlyPeriod{
		period("mar", 2025, 3, "5000"),
		period("feb", 2025, 2, "4000"),
		period("jan", 2025, 1, "3000"),
	}
	rem := []core.Remittance{
		{MonthlyPeriodID: "feb", AmountUSD: d("1000"), AmountINR: d("83000")},
		{MonthlyPeriodID: "mar", AmountUSD: d("500"), AmountINR: d("41500")},
		{MonthlyPeriodID: "feb", AmountUSD: d("100"), AmountINR: d("8300")},
	}
	exp := []core.OtherExpense{{MonthlyPeriodID: "mar", AmountUSD: nd("250")}}
	txs := []core.OtherTransaction{
		{MonthlyPeriodID: "feb", Type: core.TypeIncome, AmountUSD: nd("10")},
		{MonthlyPeriodID: "gone", Type: core.TypeIncome, AmountUSD: nd("1000000")},
	}

	rows := Aggregate(periods, rem, exp, txs)
	require.Len(t, rows, 3)
	assert.Equal(t, "mar", rows[0].Period.ID)
	assert.Equal(t, "feb", rows[1].Period.ID)
	assert.Equal(t, "jan", rows[2].Period.ID)

	assertDec(t, "4250", rows[0].Summary.Balance, "mar balance")
	assertDec(t, "2910", rows[1].Summary.Balance, "feb balance")
	assert.Len(t, rows[1].Remittances, 2)

	jan := rows[2]
	assertDec(t, "3000", jan.Summary.Balance, "jan balance")
	assert.Empty(t, jan.Remittances)
	assert.Equal(t, 0, jan.Summary.TransactionCount)

	totals := Totals(rows)
	assertDec(t, "12010", totals.TotalIncome, "totals income")
	assertDec(t, "1850", totals.TotalOutflow, "totals outflow")
	assertDec(t, "10160", totals.Balance, "totals balance")
	assertDec(t, "132800", totals.TotalINR, "totals inr")
	assert.Equal(t, 3, totals.RemittanceCount)
}

func TestAggregateCrossMonthIndependence(t *testing.T) {
	periods := []core.MonthlyPeriod{period("a", 2025, 2, "1000"), period("b", 2025, 1, "2000")}
	base := []core.OtherTransaction{{MonthlyPeriodID: "a", Type: core.TypeExpense, AmountUSD: nd("100")}}
	before := Aggregate(periods, nil, nil, base)

	extra := append(append([]core.OtherTransaction{}, base...),
		core.OtherTransaction{MonthlyPeriodID: "b", Type: core.TypeIOwe, AmountUSD: nd("700")})
	after := Aggregate(periods, []core.Remittance{{MonthlyPeriodID: "b", AmountUSD: d("5"), AmountINR: d("400")}}, nil, extra)

	assert.Equal(t, before[0].Summary, after[0].Summary)
	assert.NotEqual(t, before[1].Summary, after[1].Summary)
}

func TestTotalsOfNothing(t *testing.T) {
	total := Totals(nil)
	assertDec(t, "0", total.Balance, "balance")
	assert.Equal(t, Empty(), total)
}
