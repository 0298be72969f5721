package storage

import (
	"context"
	"database/sql"
	"time"

	"cloud.google.com/go/civil"

	"remitledger/internal/core"
)

// timestampLayout is fixed width so created_at sorts lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type scanner interface {
	Scan(dest ...any) error
}

const periodColumns = `id, month, year, days_worked, total_salary_usd, exchange_rate_reference, created_at`

const upsertPeriod = `INSERT INTO monthly_periods (` + periodColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (month, year) DO UPDATE SET
    days_worked = excluded.days_worked,
    total_salary_usd = excluded.total_salary_usd,
    exchange_rate_reference = excluded.exchange_rate_reference
RETURNING ` + periodColumns

func (q *Queries) UpsertPeriod(ctx context.Context, id string, p core.MonthlyPeriod, createdAt time.Time) (core.MonthlyPeriod, error) {
	row := q.db.QueryRowContext(ctx, upsertPeriod,
		id, p.Month, p.Year, p.DaysWorked,
		p.TotalSalaryUSD, p.ExchangeRateReference,
		createdAt.UTC().Format(timestampLayout),
	)
	return scanPeriod(row)
}

const getPeriod = `SELECT ` + periodColumns + ` FROM monthly_periods WHERE id = ?`

func (q *Queries) GetPeriod(ctx context.Context, id string) (core.MonthlyPeriod, error) {
	return scanPeriod(q.db.QueryRowContext(ctx, getPeriod, id))
}

const findPeriod = `SELECT ` + periodColumns + ` FROM monthly_periods WHERE year = ? AND month = ?`

func (q *Queries) FindPeriod(ctx context.Context, year, month int) (core.MonthlyPeriod, error) {
	return scanPeriod(q.db.QueryRowContext(ctx, findPeriod, year, month))
}

const listPeriods = `SELECT ` + periodColumns + ` FROM monthly_periods ORDER BY year DESC, month DESC`

func (q *Queries) ListPeriods(ctx context.Context) ([]core.MonthlyPeriod, error) {
	rows, err := q.db.QueryContext(ctx, listPeriods)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []core.MonthlyPeriod{}
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const periodExists = `SELECT 1 FROM monthly_periods WHERE id = ?`

func (q *Queries) PeriodExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := q.db.QueryRowContext(ctx, periodExists, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (q *Queries) DeleteByPeriod(ctx context.Context, table, periodID string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE monthly_period_id = ?`, periodID)
	return err
}

// DeleteByID returns the number of rows removed.
func (q *Queries) DeleteByID(ctx context.Context, table, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanPeriod(row scanner) (core.MonthlyPeriod, error) {
	var (
		p         core.MonthlyPeriod
		createdAt string
	)
	err := row.Scan(&p.ID, &p.Month, &p.Year, &p.DaysWorked, &p.TotalSalaryUSD, &p.ExchangeRateReference, &createdAt)
	if err != nil {
		return core.MonthlyPeriod{}, err
	}
	p.CreatedAt, err = time.Parse(timestampLayout, createdAt)
	return p, err
}

const remittanceColumns = `id, monthly_period_id, amount_usd, amount_inr, effective_rate, purpose, transfer_method, recipient_account, description, transfer_date, created_at`

const createRemittance = `INSERT INTO remittances (` + remittanceColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateRemittance(ctx context.Context, r core.Remittance) error {
	_, err := q.db.ExecContext(ctx, createRemittance,
		r.ID, r.MonthlyPeriodID, r.AmountUSD, r.AmountINR, r.EffectiveRate,
		string(r.Purpose), string(r.TransferMethod), r.RecipientAccount, r.Description,
		dateValue(r.TransferDate), r.CreatedAt.UTC().Format(timestampLayout),
	)
	return err
}

func (q *Queries) ListRemittances(ctx context.Context, periodID string) ([]core.Remittance, error) {
	return q.listRemittances(ctx, `SELECT `+remittanceColumns+` FROM remittances WHERE monthly_period_id = ? ORDER BY created_at, rowid`, periodID)
}

func (q *Queries) ListAllRemittances(ctx context.Context) ([]core.Remittance, error) {
	return q.listRemittances(ctx, `SELECT `+remittanceColumns+` FROM remittances ORDER BY created_at, rowid`)
}

func (q *Queries) listRemittances(ctx context.Context, query string, args ...any) ([]core.Remittance, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []core.Remittance{}
	for rows.Next() {
		var (
			r                        core.Remittance
			purpose, method, created string
			transferDate             sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.MonthlyPeriodID, &r.AmountUSD, &r.AmountINR, &r.EffectiveRate,
			&purpose, &method, &r.RecipientAccount, &r.Description, &transferDate, &created); err != nil {
			return nil, err
		}
		r.Purpose = core.Purpose(purpose)
		r.TransferMethod = core.TransferMethod(method)
		if r.TransferDate, err = parseDate(transferDate); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = time.Parse(timestampLayout, created); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const expenseColumns = `id, monthly_period_id, category, amount_usd, amount_inr, description, expense_date, created_at`

const createExpense = `INSERT INTO other_expenses (` + expenseColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateExpense(ctx context.Context, e core.OtherExpense) error {
	_, err := q.db.ExecContext(ctx, createExpense,
		e.ID, e.MonthlyPeriodID, string(e.Category), e.AmountUSD, e.AmountINR,
		e.Description, dateValue(e.ExpenseDate), e.CreatedAt.UTC().Format(timestampLayout),
	)
	return err
}

func (q *Queries) ListExpenses(ctx context.Context, periodID string) ([]core.OtherExpense, error) {
	return q.listExpenses(ctx, `SELECT `+expenseColumns+` FROM other_expenses WHERE monthly_period_id = ? ORDER BY created_at, rowid`, periodID)
}

func (q *Queries) ListAllExpenses(ctx context.Context) ([]core.OtherExpense, error) {
	return q.listExpenses(ctx, `SELECT `+expenseColumns+` FROM other_expenses ORDER BY created_at, rowid`)
}

func (q *Queries) listExpenses(ctx context.Context, query string, args ...any) ([]core.OtherExpense, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []core.OtherExpense{}
	for rows.Next() {
		var (
			e                 core.OtherExpense
			category, created string
			expenseDate       sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.MonthlyPeriodID, &category, &e.AmountUSD, &e.AmountINR,
			&e.Description, &expenseDate, &created); err != nil {
			return nil, err
		}
		e.Category = core.ExpenseCategory(category)
		if e.ExpenseDate, err = parseDate(expenseDate); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = time.Parse(timestampLayout, created); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const transactionColumns = `id, monthly_period_id, type, amount_usd, amount_inr, currency, category, description, source, notes, transaction_date, debt_status, expected_date, created_at`

const createTransaction = `INSERT INTO other_transactions (` + transactionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateTransaction(ctx context.Context, t core.OtherTransaction) error {
	var status sql.NullString
	if t.DebtStatus != "" {
		status = sql.NullString{String: string(t.DebtStatus), Valid: true}
	}
	_, err := q.db.ExecContext(ctx, createTransaction,
		t.ID, t.MonthlyPeriodID, string(t.Type), t.AmountUSD, t.AmountINR, string(t.Currency),
		t.Category, t.Description, t.Source, t.Notes, dateValue(t.TransactionDate),
		status, dateValue(t.ExpectedDate), t.CreatedAt.UTC().Format(timestampLayout),
	)
	return err
}

func (q *Queries) ListTransactions(ctx context.Context, periodID string) ([]core.OtherTransaction, error) {
	return q.listTransactions(ctx, `SELECT `+transactionColumns+` FROM other_transactions WHERE monthly_period_id = ? ORDER BY created_at, rowid`, periodID)
}

func (q *Queries) ListAllTransactions(ctx context.Context) ([]core.OtherTransaction, error) {
	return q.listTransactions(ctx, `SELECT `+transactionColumns+` FROM other_transactions ORDER BY created_at, rowid`)
}

func (q *Queries) listTransactions(ctx context.Context, query string, args ...any) ([]core.OtherTransaction, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []core.OtherTransaction{}
	for rows.Next() {
		var (
			t                           core.OtherTransaction
			typ, currency, created      string
			txDate, status, expectedDay sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.MonthlyPeriodID, &typ, &t.AmountUSD, &t.AmountINR, &currency,
			&t.Category, &t.Description, &t.Source, &t.Notes, &txDate, &status, &expectedDay, &created); err != nil {
			return nil, err
		}
		t.Type = core.TransactionType(typ)
		t.Currency = core.Currency(currency)
		t.DebtStatus = core.DebtStatus(status.String)
		if t.TransactionDate, err = parseDate(txDate); err != nil {
			return nil, err
		}
		if t.ExpectedDate, err = parseDate(expectedDay); err != nil {
			return nil, err
		}
		if t.CreatedAt, err = time.Parse(timestampLayout, created); err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func dateValue(d *civil.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseDate(s sql.NullString) (*civil.Date, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
