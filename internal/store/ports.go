// Package store defines the record store the ledger service talks to.
package store

import (
	"context"
	"errors"

	"remitledger/internal/core"
)

var (
	// ErrNotFound is returned when a record id does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrPeriodNotFound is returned when a child record references a
	// period that does not exist.
	ErrPeriodNotFound = errors.New("monthly period not found")
	// ErrStore wraps failures of the underlying storage engine.
	ErrStore = errors.New("store failure")
)

// Ports for outbound adapters.
type (
	PeriodStore interface {
		// UpsertPeriod creates the period for (p.Year, p.Month) or updates the
		// existing one in place, keeping its id. At most one period exists per
		// (year, month).
		UpsertPeriod(ctx context.Context, p core.MonthlyPeriod) (core.MonthlyPeriod, error)
		GetPeriod(ctx context.Context, id string) (core.MonthlyPeriod, error)
		// FindPeriod returns ErrNotFound when no salary has been recorded
		// for the month.
		FindPeriod(ctx context.Context, year, month int) (core.MonthlyPeriod, error)
		// ListPeriods orders by year descending, then month descending.
		ListPeriods(ctx context.Context) ([]core.MonthlyPeriod, error)
		// DeletePeriodCascade removes the period and every child record
		// referencing it in one atomic step.
		DeletePeriodCascade(ctx context.Context, id string) error
	}

	RemittanceStore interface {
		CreateRemittance(ctx context.Context, r core.Remittance) (core.Remittance, error)
		// ListRemittances returns a period's remittances in creation order.
		ListRemittances(ctx context.Context, periodID string) ([]core.Remittance, error)
		ListAllRemittances(ctx context.Context) ([]core.Remittance, error)
		DeleteRemittance(ctx context.Context, id string) error
	}

	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.OtherExpense) (core.OtherExpense, error)
		ListExpenses(ctx context.Context, periodID string) ([]core.OtherExpense, error)
		ListAllExpenses(ctx context.Context) ([]core.OtherExpense, error)
		DeleteExpense(ctx context.Context, id string) error
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.OtherTransaction) (core.OtherTransaction, error)
		ListTransactions(ctx context.Context, periodID string) ([]core.OtherTransaction, error)
		ListAllTransactions(ctx context.Context) ([]core.OtherTransaction, error)
		DeleteTransaction(ctx context.Context, id string) error
	}

	// Store is everything the ledger service needs.
	Store interface {
		PeriodStore
		RemittanceStore
		ExpenseStore
		TransactionStore
	}
)
