package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"remitledger/internal/core"
	"remitledger/internal/log"
	"remitledger/internal/store"

	_ "modernc.org/sqlite"
)

const (
	tableRemittances  = "remittances"
	tableExpenses     = "other_expenses"
	tableTransactions = "other_transactions"
	tablePeriods      = "monthly_periods"
)

// SQLiteRepository implements store.Store on a single SQLite file.
type SQLiteRepository struct {
	db            *sql.DB
	queries       *Queries
	now           func() time.Time
	schemaVersion uint
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY between
	// our own goroutines.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := MigrateLedger(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("Ledger database ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{
		db:            db,
		queries:       New(db),
		now:           func() time.Time { return time.Now().UTC() },
		schemaVersion: version,
	}, nil
}

// SchemaVersion is the migration version the database was opened at.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.schemaVersion
}

func dsn(dbPath string) string {
	return dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, store.ErrStore, err)
}

func (r *SQLiteRepository) UpsertPeriod(ctx context.Context, p core.MonthlyPeriod) (core.MonthlyPeriod, error) {
	saved, err := r.queries.UpsertPeriod(ctx, uuid.NewString(), p, r.now())
	if err != nil {
		return core.MonthlyPeriod{}, storeErr("upsert period", err)
	}
	slog.InfoContext(ctx, "Monthly period saved to SQLite",
		log.FieldRecordID, saved.ID,
		"year", saved.Year,
		"month", saved.Month)
	return saved, nil
}

func (r *SQLiteRepository) GetPeriod(ctx context.Context, id string) (core.MonthlyPeriod, error) {
	p, err := r.queries.GetPeriod(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthlyPeriod{}, fmt.Errorf("period %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return core.MonthlyPeriod{}, storeErr("get period", err)
	}
	return p, nil
}

func (r *SQLiteRepository) FindPeriod(ctx context.Context, year, month int) (core.MonthlyPeriod, error) {
	p, err := r.queries.FindPeriod(ctx, year, month)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthlyPeriod{}, fmt.Errorf("period %s: %w", core.PeriodKey(year, month), store.ErrNotFound)
	}
	if err != nil {
		return core.MonthlyPeriod{}, storeErr("find period", err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListPeriods(ctx context.Context) ([]core.MonthlyPeriod, error) {
	periods, err := r.queries.ListPeriods(ctx)
	if err != nil {
		return nil, storeErr("list periods", err)
	}
	return periods, nil
}

// DeletePeriodCascade deletes children before the period inside one
// transaction. The foreign keys cascade too, but the explicit deletes keep
// databases created without foreign_keys enabled consistent.
func (r *SQLiteRepository) DeletePeriodCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin delete period", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	for _, table := range []string{tableRemittances, tableExpenses, tableTransactions} {
		if err := q.DeleteByPeriod(ctx, table, id); err != nil {
			return storeErr("delete "+table, err)
		}
	}
	n, err := q.DeleteByID(ctx, tablePeriods, id)
	if err != nil {
		return storeErr("delete period", err)
	}
	if n == 0 {
		return fmt.Errorf("period %s: %w", id, store.ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return storeErr("commit delete period", err)
	}

	slog.InfoContext(ctx, "Monthly period deleted with children", log.FieldRecordID, id)
	return nil
}

// insertChild runs insert in a transaction that first checks the parent
// period exists.
func (r *SQLiteRepository) insertChild(ctx context.Context, op, periodID string, insert func(*Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin "+op, err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	ok, err := q.PeriodExists(ctx, periodID)
	if err != nil {
		return storeErr(op, err)
	}
	if !ok {
		return fmt.Errorf("period %s: %w", periodID, store.ErrPeriodNotFound)
	}
	if err := insert(q); err != nil {
		return storeErr(op, err)
	}
	if err := tx.Commit(); err != nil {
		return storeErr("commit "+op, err)
	}
	return nil
}

func (r *SQLiteRepository) deleteChild(ctx context.Context, table, kind, id string) error {
	n, err := r.queries.DeleteByID(ctx, table, id)
	if err != nil {
		return storeErr("delete "+kind, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, store.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) CreateRemittance(ctx context.Context, rem core.Remittance) (core.Remittance, error) {
	rem.ID = uuid.NewString()
	rem.CreatedAt = r.now()
	err := r.insertChild(ctx, "create remittance", rem.MonthlyPeriodID, func(q *Queries) error {
		return q.CreateRemittance(ctx, rem)
	})
	if err != nil {
		return core.Remittance{}, err
	}
	slog.InfoContext(ctx, "Remittance saved to SQLite",
		log.FieldRecordID, rem.ID,
		"period_id", rem.MonthlyPeriodID,
		"amount_usd", rem.AmountUSD.String())
	return rem, nil
}

func (r *SQLiteRepository) ListRemittances(ctx context.Context, periodID string) ([]core.Remittance, error) {
	items, err := r.queries.ListRemittances(ctx, periodID)
	if err != nil {
		return nil, storeErr("list remittances", err)
	}
	return items, nil
}

func (r *SQLiteRepository) ListAllRemittances(ctx context.Context) ([]core.Remittance, error) {
	items, err := r.queries.ListAllRemittances(ctx)
	if err != nil {
		return nil, storeErr("list all remittances", err)
	}
	return items, nil
}

func (r *SQLiteRepository) DeleteRemittance(ctx context.Context, id string) error {
	return r.deleteChild(ctx, tableRemittances, "remittance", id)
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.OtherExpense) (core.OtherExpense, error) {
	e.ID = uuid.NewString()
	e.CreatedAt = r.now()
	err := r.insertChild(ctx, "create expense", e.MonthlyPeriodID, func(q *Queries) error {
		return q.CreateExpense(ctx, e)
	})
	if err != nil {
		return core.OtherExpense{}, err
	}
	slog.InfoContext(ctx, "Expense saved to SQLite",
		log.FieldRecordID, e.ID,
		"period_id", e.MonthlyPeriodID,
		"category", e.Category)
	return e, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, periodID string) ([]core.OtherExpense, error) {
	items, err := r.queries.ListExpenses(ctx, periodID)
	if err != nil {
		return nil, storeErr("list expenses", err)
	}
	return items, nil
}

func (r *SQLiteRepository) ListAllExpenses(ctx context.Context) ([]core.OtherExpense, error) {
	items, err := r.queries.ListAllExpenses(ctx)
	if err != nil {
		return nil, storeErr("list all expenses", err)
	}
	return items, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id string) error {
	return r.deleteChild(ctx, tableExpenses, "expense", id)
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.OtherTransaction) (core.OtherTransaction, error) {
	t.ID = uuid.NewString()
	t.CreatedAt = r.now()
	err := r.insertChild(ctx, "create transaction", t.MonthlyPeriodID, func(q *Queries) error {
		return q.CreateTransaction(ctx, t)
	})
	if err != nil {
		return core.OtherTransaction{}, err
	}
	slog.InfoContext(ctx, "Transaction saved to SQLite",
		log.FieldRecordID, t.ID,
		"period_id", t.MonthlyPeriodID,
		"type", t.Type)
	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, periodID string) ([]core.OtherTransaction, error) {
	items, err := r.queries.ListTransactions(ctx, periodID)
	if err != nil {
		return nil, storeErr("list transactions", err)
	}
	return items, nil
}

func (r *SQLiteRepository) ListAllTransactions(ctx context.Context) ([]core.OtherTransaction, error) {
	items, err := r.queries.ListAllTransactions(ctx)
	if err != nil {
		return nil, storeErr("list all transactions", err)
	}
	return items, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	return r.deleteChild(ctx, tableTransactions, "transaction", id)
}
