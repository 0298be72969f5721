// Package memory is an in-process implementation of store.Store. It is
// the default backend for local runs and the fixture for service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"remitledger/internal/core"
	"remitledger/internal/store"
)

type Store struct {
	mu           sync.Mutex
	now          func() time.Time
	periods      map[string]core.MonthlyPeriod
	byKey        map[string]string // "YYYY-MM" -> period id
	remittances  []core.Remittance
	expenses     []core.OtherExpense
	transactions []core.OtherTransaction
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:     func() time.Time { return time.Now().UTC() },
		periods: make(map[string]core.MonthlyPeriod),
		byKey:   make(map[string]string),
	}
}

// UpsertPeriod creates or updates the period for its (year, month).
func (s *Store) UpsertPeriod(_ context.Context, p core.MonthlyPeriod) (core.MonthlyPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := p.Key()
	if id, ok := s.byKey[key]; ok {
		existing := s.periods[id]
		existing.DaysWorked = p.DaysWorked
		existing.TotalSalaryUSD = p.TotalSalaryUSD
		existing.ExchangeRateReference = p.ExchangeRateReference
		s.periods[id] = existing
		return existing, nil
	}

	p.ID = uuid.NewString()
	p.CreatedAt = s.now()
	s.periods[p.ID] = p
	s.byKey[key] = p.ID
	return p, nil
}

func (s *Store) GetPeriod(_ context.Context, id string) (core.MonthlyPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.periods[id]
	if !ok {
		return core.MonthlyPeriod{}, fmt.Errorf("period %s: %w", id, store.ErrNotFound)
	}
	return p, nil
}

func (s *Store) FindPeriod(_ context.Context, year, month int) (core.MonthlyPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byKey[core.PeriodKey(year, month)]
	if !ok {
		return core.MonthlyPeriod{}, fmt.Errorf("period %s: %w", core.PeriodKey(year, month), store.ErrNotFound)
	}
	return s.periods[id], nil
}

func (s *Store) ListPeriods(_ context.Context) ([]core.MonthlyPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.MonthlyPeriod, 0, len(s.periods))
	for _, p := range s.periods {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return out, nil
}

// DeletePeriodCascade removes the period and its children under one lock,
// so no reader observes a partial delete.
func (s *Store) DeletePeriodCascade(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.periods[id]
	if !ok {
		return fmt.Errorf("period %s: %w", id, store.ErrNotFound)
	}
	s.remittances = without(s.remittances, func(r core.Remittance) bool { return r.MonthlyPeriodID == id })
	s.expenses = without(s.expenses, func(e core.OtherExpense) bool { return e.MonthlyPeriodID == id })
	s.transactions = without(s.transactions, func(t core.OtherTransaction) bool { return t.MonthlyPeriodID == id })
	delete(s.byKey, p.Key())
	delete(s.periods, id)
	return nil
}

func (s *Store) CreateRemittance(_ context.Context, r core.Remittance) (core.Remittance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requirePeriod(r.MonthlyPeriodID); err != nil {
		return core.Remittance{}, err
	}
	r.ID = uuid.NewString()
	r.CreatedAt = s.now()
	s.remittances = append(s.remittances, r)
	return r, nil
}

func (s *Store) ListRemittances(_ context.Context, periodID string) ([]core.Remittance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter(s.remittances, func(r core.Remittance) bool { return r.MonthlyPeriodID == periodID }), nil
}

func (s *Store) ListAllRemittances(_ context.Context) ([]core.Remittance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Remittance(nil), s.remittances...), nil
}

func (s *Store) DeleteRemittance(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.remittances)
	s.remittances = without(s.remittances, func(r core.Remittance) bool { return r.ID == id })
	if len(s.remittances) == n {
		return fmt.Errorf("remittance %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) CreateExpense(_ context.Context, e core.OtherExpense) (core.OtherExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requirePeriod(e.MonthlyPeriodID); err != nil {
		return core.OtherExpense{}, err
	}
	e.ID = uuid.NewString()
	e.CreatedAt = s.now()
	s.expenses = append(s.expenses, e)
	return e, nil
}

func (s *Store) ListExpenses(_ context.Context, periodID string) ([]core.OtherExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter(s.expenses, func(e core.OtherExpense) bool { return e.MonthlyPeriodID == periodID }), nil
}

func (s *Store) ListAllExpenses(_ context.Context) ([]core.OtherExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.OtherExpense(nil), s.expenses...), nil
}

func (s *Store) DeleteExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.expenses)
	s.expenses = without(s.expenses, func(e core.OtherExpense) bool { return e.ID == id })
	if len(s.expenses) == n {
		return fmt.Errorf("expense %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.OtherTransaction) (core.OtherTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requirePeriod(t.MonthlyPeriodID); err != nil {
		return core.OtherTransaction{}, err
	}
	t.ID = uuid.NewString()
	t.CreatedAt = s.now()
	s.transactions = append(s.transactions, t)
	return t, nil
}

func (s *Store) ListTransactions(_ context.Context, periodID string) ([]core.OtherTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter(s.transactions, func(t core.OtherTransaction) bool { return t.MonthlyPeriodID == periodID }), nil
}

func (s *Store) ListAllTransactions(_ context.Context) ([]core.OtherTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.OtherTransaction(nil), s.transactions...), nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.transactions)
	s.transactions = without(s.transactions, func(t core.OtherTransaction) bool { return t.ID == id })
	if len(s.transactions) == n {
		return fmt.Errorf("transaction %s: %w", id, store.ErrNotFound)
	}
	return nil
}

// requirePeriod must be called with s.mu held.
func (s *Store) requirePeriod(id string) error {
	if _, ok := s.periods[id]; !ok {
		return fmt.Errorf("period %s: %w", id, store.ErrPeriodNotFound)
	}
	return nil
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0)
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func without[T any](in []T, drop func(T) bool) []T {
	return filter(in, func(v T) bool { return !drop(v) })
}
