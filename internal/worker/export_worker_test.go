package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remitledger/internal/amqp"
	"remitledger/internal/ledger"
	"remitledger/internal/log"
	"remitledger/internal/services"
	"remitledger/internal/sheets"
	sheetsmem "remitledger/internal/sheets/memory"
	"remitledger/internal/store/memory"
)

type stubSource struct {
	calls     atomic.Int32
	portfolio services.Portfolio
	err       error
}

func (s *stubSource) AllMonths(context.Context) (services.Portfolio, error) {
	s.calls.Add(1)
	return s.portfolio, s.err
}

type failingExporter struct{}

func (failingExporter) ExportLedger(context.Context, []ledger.PeriodSummary, ledger.MonthSummary) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestExportWritesRollup(t *testing.T) {
	ctx := context.Background()
	svc := services.NewLedgerService(memory.New(), nil, decimal.RequireFromString("83.5"), log.Discard())
	_, err := svc.SubmitSalary(ctx, 2025, 3, services.SalaryInput{
		DaysWorked:     20,
		TotalSalaryUSD: decimal.RequireFromString("10000"),
	})
	require.NoError(t, err)

	exporter := sheetsmem.New()
	w := NewExportWorker(svc, exporter, log.Discard())
	require.NoError(t, w.Export(ctx))

	table := exporter.Table()
	require.Len(t, table, 3)
	assert.Equal(t, sheets.Header, table[0])
	assert.Equal(t, "March 2025", table[1][0])
	assert.Equal(t, "$10000.00", table[2][2])
	assert.False(t, w.LastExport().IsZero())
}

func TestHandleLedgerEvent(t *testing.T) {
	src := &stubSource{portfolio: services.Portfolio{Totals: ledger.Empty()}}
	exporter := sheetsmem.New()
	w := NewExportWorker(src, exporter, nil)
	ctx := context.Background()

	msg := amqp.NewLedgerEventMessage(amqp.KindCreated, amqp.EntityRemittance, "r1", "p1", 2025, 3)
	msg.Timestamp = time.Now().Add(-time.Minute)
	require.NoError(t, w.HandleLedgerEvent(ctx, msg))
	assert.Equal(t, 1, exporter.Exports())

	// Already covered by the export that just ran.
	require.NoError(t, w.HandleLedgerEvent(ctx, msg))
	assert.Equal(t, 1, exporter.Exports())

	fresh := amqp.NewLedgerEventMessage(amqp.KindDeleted, amqp.EntityRemittance, "r1", "p1", 2025, 3)
	fresh.Timestamp = time.Now().Add(time.Minute)
	require.NoError(t, w.HandleLedgerEvent(ctx, fresh))
	assert.Equal(t, 2, exporter.Exports())
}

func TestExportErrors(t *testing.T) {
	ctx := context.Background()

	src := &stubSource{err: errors.New("disk gone")}
	err := NewExportWorker(src, sheetsmem.New(), nil).Export(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load ledger")

	w := NewExportWorker(&stubSource{portfolio: services.Portfolio{Totals: ledger.Empty()}}, failingExporter{}, nil)
	err = w.Export(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.True(t, w.LastExport().IsZero())
}

func TestRunPeriodic(t *testing.T) {
	src := &stubSource{portfolio: services.Portfolio{Totals: ledger.Empty()}}
	exporter := sheetsmem.New()
	w := NewExportWorker(src, exporter, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.RunPeriodic(ctx, 5*time.Millisecond) }()

	require.Eventually(t, func() bool { return exporter.Exports() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRunScheduled(t *testing.T) {
	src := &stubSource{portfolio: services.Portfolio{Totals: ledger.Empty()}}
	exporter := sheetsmem.New()
	w := NewExportWorker(src, exporter, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.RunScheduled(ctx, "@every 1s") }()

	require.Eventually(t, func() bool { return exporter.Exports() >= 1 }, 3*time.Second, 20*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRunScheduledRejectsBadSchedule(t *testing.T) {
	w := NewExportWorker(&stubSource{}, sheetsmem.New(), nil)
	err := w.RunScheduled(context.Background(), "whenever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register export schedule")
}
