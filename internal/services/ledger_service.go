package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"remitledger/internal/amqp"
	"remitledger/internal/core"
	"remitledger/internal/ledger"
	"remitledger/internal/log"
	"remitledger/internal/store"
)

// EventPublisher receives a notice after every committed mutation.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error
}

type (
	SalaryInput struct {
		DaysWorked     int
		TotalSalaryUSD decimal.Decimal
		// ExchangeRateReference falls back to the configured default when
		// absent or zero.
		ExchangeRateReference decimal.NullDecimal
	}

	RemittanceInput struct {
		AmountUSD        decimal.Decimal
		AmountINR        decimal.Decimal
		Purpose          core.Purpose
		TransferMethod   core.TransferMethod
		RecipientAccount string
		Description      string
		TransferDate     *civil.Date
	}

	ExpenseInput struct {
		Category    core.ExpenseCategory
		AmountUSD   decimal.NullDecimal
		AmountINR   decimal.NullDecimal
		Description string
		ExpenseDate *civil.Date
	}

	// TransactionInput carries a single Amount in Currency. For USD entries
	// AmountINR optionally records the rupee value as well.
	TransactionInput struct {
		Type            core.TransactionType
		Currency        core.Currency
		Amount          decimal.Decimal
		AmountINR       decimal.NullDecimal
		Category        string
		Description     string
		Source          string
		Notes           string
		TransactionDate *civil.Date
		DebtStatus      core.DebtStatus
		ExpectedDate    *civil.Date
	}

	// MonthView is one calendar month with its records and derived figures.
	// Period is nil when no salary has been recorded for the month.
	MonthView struct {
		Year         int                     `json:"year"`
		Month        int                     `json:"month"`
		Period       *core.MonthlyPeriod     `json:"period"`
		Remittances  []core.Remittance       `json:"remittances"`
		Expenses     []core.OtherExpense     `json:"expenses"`
		Transactions []core.OtherTransaction `json:"transactions"`
		Summary      ledger.MonthSummary     `json:"summary"`
	}

	// Portfolio is the all-months rollup, newest month first.
	Portfolio struct {
		Months []ledger.PeriodSummary `json:"months"`
		Totals ledger.MonthSummary    `json:"totals"`
	}
)

// LedgerService is the boundary between callers and the record store. It
// validates input, shapes records, runs the aggregation engine and emits
// ledger events.
type LedgerService struct {
	store       store.Store
	publisher   EventPublisher
	defaultRate decimal.Decimal
	logger      *log.Logger
}

func NewLedgerService(st store.Store, publisher EventPublisher, defaultRate decimal.Decimal, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &LedgerService{
		store:       st,
		publisher:   publisher,
		defaultRate: defaultRate,
		logger:      logger.WithComponent(log.ComponentLedger),
	}
}

// SubmitSalary creates the period for (year, month) or updates it in place.
func (s *LedgerService) SubmitSalary(ctx context.Context, year, month int, in SalaryInput) (core.MonthlyPeriod, error) {
	rate := s.defaultRate
	if in.ExchangeRateReference.Valid && !in.ExchangeRateReference.Decimal.IsZero() {
		rate = in.ExchangeRateReference.Decimal
	}
	p := core.MonthlyPeriod{
		Year:                  year,
		Month:                 month,
		DaysWorked:            in.DaysWorked,
		TotalSalaryUSD:        in.TotalSalaryUSD,
		ExchangeRateReference: rate,
	}
	if err := p.Validate(); err != nil {
		return core.MonthlyPeriod{}, err
	}

	kind := amqp.KindUpdated
	if _, err := s.store.FindPeriod(ctx, year, month); errors.Is(err, store.ErrNotFound) {
		kind = amqp.KindCreated
	} else if err != nil {
		return core.MonthlyPeriod{}, s.storeFailure(ctx, "find period", err)
	}

	saved, err := s.store.UpsertPeriod(ctx, p)
	if err != nil {
		return core.MonthlyPeriod{}, s.storeFailure(ctx, "upsert period", err)
	}

	s.logger.InfoContext(ctx, "Salary saved",
		log.FieldOperation, kind,
		log.FieldPeriodID, saved.ID,
		log.FieldYear, year,
		log.FieldMonth, month)
	s.publish(ctx, amqp.NewLedgerEventMessage(kind, amqp.EntityPeriod, saved.ID, saved.ID, year, month))
	return saved, nil
}

// requirePeriod resolves the period a new child record attaches to.
func (s *LedgerService) requirePeriod(ctx context.Context, year, month int) (core.MonthlyPeriod, error) {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return core.MonthlyPeriod{}, err
	}
	p, err := s.store.FindPeriod(ctx, year, month)
	if errors.Is(err, store.ErrNotFound) {
		return core.MonthlyPeriod{}, fmt.Errorf("%w: add salary information for %s first", store.ErrPeriodNotFound, core.PeriodKey(year, month))
	}
	if err != nil {
		return core.MonthlyPeriod{}, s.storeFailure(ctx, "find period", err)
	}
	return p, nil
}

// AddRemittance records a transfer and freezes its effective rate.
func (s *LedgerService) AddRemittance(ctx context.Context, year, month int, in RemittanceInput) (core.Remittance, error) {
	rate, err := ledger.EffectiveRate(in.AmountUSD, in.AmountINR)
	if err != nil {
		return core.Remittance{}, err
	}
	r := core.Remittance{
		AmountUSD:        in.AmountUSD,
		AmountINR:        in.AmountINR,
		EffectiveRate:    rate,
		Purpose:          in.Purpose,
		TransferMethod:   in.TransferMethod,
		RecipientAccount: strings.TrimSpace(in.RecipientAccount),
		Description:      strings.TrimSpace(in.Description),
		TransferDate:     in.TransferDate,
	}
	if err := r.Validate(); err != nil {
		return core.Remittance{}, err
	}

	p, err := s.requirePeriod(ctx, year, month)
	if err != nil {
		return core.Remittance{}, err
	}
	r.MonthlyPeriodID = p.ID

	saved, err := s.store.CreateRemittance(ctx, r)
	if err != nil {
		return core.Remittance{}, s.createFailure(ctx, "create remittance", err)
	}

	s.logger.InfoContext(ctx, "Remittance added",
		log.FieldOperation, log.OpCreate,
		log.FieldPeriodID, p.ID,
		log.FieldAmountUSD, saved.AmountUSD.String(),
		log.FieldRate, saved.EffectiveRate.String())
	s.publish(ctx, amqp.NewLedgerEventMessage(amqp.KindCreated, amqp.EntityRemittance, saved.ID, p.ID, year, month))
	return saved, nil
}

func (s *LedgerService) AddExpense(ctx context.Context, year, month int, in ExpenseInput) (core.OtherExpense, error) {
	e := core.OtherExpense{
		Category:    in.Category,
		AmountUSD:   in.AmountUSD,
		AmountINR:   in.AmountINR,
		Description: strings.TrimSpace(in.Description),
		ExpenseDate: in.ExpenseDate,
	}
	if err := e.Validate(); err != nil {
		return core.OtherExpense{}, err
	}

	p, err := s.requirePeriod(ctx, year, month)
	if err != nil {
		return core.OtherExpense{}, err
	}
	e.MonthlyPeriodID = p.ID

	saved, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.OtherExpense{}, s.createFailure(ctx, "create expense", err)
	}

	s.logger.InfoContext(ctx, "Expense added",
		log.FieldOperation, log.OpCreate,
		log.FieldPeriodID, p.ID,
		log.FieldCategory, string(saved.Category))
	s.publish(ctx, amqp.NewLedgerEventMessage(amqp.KindCreated, amqp.EntityExpense, saved.ID, p.ID, year, month))
	return saved, nil
}

// ShapeTransaction maps a single-amount input onto the stored USD and INR
// columns. Debt fields are dropped for non-debt types and a debt without a
// status starts as pending.
func ShapeTransaction(in TransactionInput) core.OtherTransaction {
	t := core.OtherTransaction{
		Type:            in.Type,
		Currency:        in.Currency,
		Category:        strings.TrimSpace(in.Category),
		Description:     strings.TrimSpace(in.Description),
		Source:          strings.TrimSpace(in.Source),
		Notes:           strings.TrimSpace(in.Notes),
		TransactionDate: in.TransactionDate,
	}

	switch in.Currency {
	case core.INR:
		t.AmountINR = decimal.NewNullDecimal(in.Amount)
	default:
		t.AmountUSD = decimal.NewNullDecimal(in.Amount)
		t.AmountINR = in.AmountINR
	}

	if in.Type.IsDebt() {
		t.DebtStatus = in.DebtStatus
		if t.DebtStatus == "" {
			t.DebtStatus = core.DebtPending
		}
		t.ExpectedDate = in.ExpectedDate
	}
	return t
}

func (s *LedgerService) AddTransaction(ctx context.Context, year, month int, in TransactionInput) (core.OtherTransaction, error) {
	t := ShapeTransaction(in)
	if err := t.Validate(); err != nil {
		return core.OtherTransaction{}, err
	}

	p, err := s.requirePeriod(ctx, year, month)
	if err != nil {
		return core.OtherTransaction{}, err
	}
	t.MonthlyPeriodID = p.ID

	saved, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.OtherTransaction{}, s.createFailure(ctx, "create transaction", err)
	}

	s.logger.InfoContext(ctx, "Transaction added",
		log.FieldOperation, log.OpCreate,
		log.FieldPeriodID, p.ID,
		log.FieldTransactionType, string(saved.Type),
		log.FieldCurrency, string(saved.Currency))
	s.publish(ctx, amqp.NewLedgerEventMessage(amqp.KindCreated, amqp.EntityTransaction, saved.ID, p.ID, year, month))
	return saved, nil
}

func (s *LedgerService) DeleteRemittance(ctx context.Context, id string) error {
	return s.deleteChild(ctx, amqp.EntityRemittance, id, s.store.DeleteRemittance)
}

func (s *LedgerService) DeleteExpense(ctx context.Context, id string) error {
	return s.deleteChild(ctx, amqp.EntityExpense, id, s.store.DeleteExpense)
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	return s.deleteChild(ctx, amqp.EntityTransaction, id, s.store.DeleteTransaction)
}

func (s *LedgerService) deleteChild(ctx context.Context, entity, id string, del func(context.Context, string) error) error {
	if err := del(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return s.storeFailure(ctx, "delete "+entity, err)
	}
	s.logger.InfoContext(ctx, "Record deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldEntity, entity,
		log.FieldRecordID, id)
	s.publish(ctx, amqp.NewLedgerEventMessage(amqp.KindDeleted, entity, id, "", 0, 0))
	return nil
}

// DeletePeriod removes a period together with every record attached to it.
func (s *LedgerService) DeletePeriod(ctx context.Context, id string) error {
	p, err := s.store.GetPeriod(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return err
	}
	if err != nil {
		return s.storeFailure(ctx, "get period", err)
	}
	if err := s.store.DeletePeriodCascade(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return s.storeFailure(ctx, "delete period", err)
	}

	s.logger.InfoContext(ctx, "Period deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldPeriodID, id,
		log.FieldYear, p.Year,
		log.FieldMonth, p.Month)
	s.publish(ctx, amqp.NewLedgerEventMessage(amqp.KindDeleted, amqp.EntityPeriod, id, id, p.Year, p.Month))
	return nil
}

// MonthView loads one month. A month without a salary record still yields
// a view with empty lists and a zero summary.
func (s *LedgerService) MonthView(ctx context.Context, year, month int) (MonthView, error) {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return MonthView{}, err
	}
	view := MonthView{
		Year:         year,
		Month:        month,
		Remittances:  []core.Remittance{},
		Expenses:     []core.OtherExpense{},
		Transactions: []core.OtherTransaction{},
	}

	p, err := s.store.FindPeriod(ctx, year, month)
	switch {
	case errors.Is(err, store.ErrNotFound):
		view.Summary = ledger.Summarize(nil, nil, nil, nil)
		return view, nil
	case err != nil:
		return MonthView{}, s.storeFailure(ctx, "find period", err)
	}
	view.Period = &p

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		view.Remittances, err = s.store.ListRemittances(gctx, p.ID)
		return err
	})
	g.Go(func() (err error) {
		view.Expenses, err = s.store.ListExpenses(gctx, p.ID)
		return err
	})
	g.Go(func() (err error) {
		view.Transactions, err = s.store.ListTransactions(gctx, p.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return MonthView{}, s.storeFailure(ctx, "load month", err)
	}

	view.Summary = ledger.Summarize(view.Period, view.Remittances, view.Expenses, view.Transactions)
	return view, nil
}

// AllMonths loads every collection concurrently and folds them into one row
// per period plus grand totals.
func (s *LedgerService) AllMonths(ctx context.Context) (Portfolio, error) {
	var (
		periods      []core.MonthlyPeriod
		remittances  []core.Remittance
		expenses     []core.OtherExpense
		transactions []core.OtherTransaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		periods, err = s.store.ListPeriods(gctx)
		return err
	})
	g.Go(func() (err error) {
		remittances, err = s.store.ListAllRemittances(gctx)
		return err
	})
	g.Go(func() (err error) {
		expenses, err = s.store.ListAllExpenses(gctx)
		return err
	})
	g.Go(func() (err error) {
		transactions, err = s.store.ListAllTransactions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Portfolio{}, s.storeFailure(ctx, "load all months", err)
	}

	rows := ledger.Aggregate(periods, remittances, expenses, transactions)
	return Portfolio{Months: rows, Totals: ledger.Totals(rows)}, nil
}

// PreviewRate computes the rate a remittance of these amounts would freeze.
func (s *LedgerService) PreviewRate(amountUSD, amountINR decimal.Decimal) (decimal.Decimal, error) {
	return ledger.EffectiveRate(amountUSD, amountINR)
}

// createFailure passes through a period that vanished after requirePeriod
// found it; anything else is a store failure.
func (s *LedgerService) createFailure(ctx context.Context, op string, err error) error {
	if errors.Is(err, store.ErrPeriodNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return s.storeFailure(ctx, op, err)
}

// storeFailure logs a store error once and returns it wrapped.
func (s *LedgerService) storeFailure(ctx context.Context, op string, err error) error {
	s.logger.ErrorContext(ctx, "Store operation failed",
		log.FieldOperation, op,
		log.FieldErrorType, log.ErrorTypeDatabase,
		log.FieldError, err)
	if errors.Is(err, store.ErrStore) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, store.ErrStore, err)
}

func (s *LedgerService) publish(ctx context.Context, msg *amqp.LedgerEventMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger event",
			log.FieldEntity, msg.Entity,
			log.FieldRecordID, msg.ID,
			log.FieldError, err)
	}
}

// Close releases the store and publisher when they hold resources.
func (s *LedgerService) Close() error {
	var errs []error
	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}
