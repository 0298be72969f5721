package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"remitledger/internal/amqp"
	"remitledger/internal/log"
	"remitledger/internal/services"
	"remitledger/internal/sheets"
)

// PortfolioSource loads the all-months rollup.
type PortfolioSource interface {
	AllMonths(ctx context.Context) (services.Portfolio, error)
}

// ExportWorker keeps the exported ledger sheet in step with the store.
// Every ledger event triggers a full re-export; the periodic pass covers
// events lost while the worker was down.
type ExportWorker struct {
	source   PortfolioSource
	exporter sheets.LedgerExporter
	logger   *log.Logger

	mu         sync.Mutex
	lastExport time.Time
}

func NewExportWorker(source PortfolioSource, exporter sheets.LedgerExporter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExportWorker{
		source:   source,
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleLedgerEvent processes a single ledger event from AMQP. Events whose
// timestamp predates the last completed export are already reflected in the
// sheet and are acknowledged without work.
func (w *ExportWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		"kind", msg.Kind,
		log.FieldEntity, msg.Entity,
		log.FieldRecordID, msg.ID,
		log.FieldPeriodID, msg.PeriodID)

	if !msg.Timestamp.IsZero() && msg.Timestamp.Before(w.LastExport()) {
		w.logger.DebugContext(ctx, "Ledger event already exported", log.FieldRecordID, msg.ID)
		return nil
	}
	return w.Export(ctx)
}

// Export loads the rollup and replaces the exported table. Exports are
// serialized so the consumer and the ticker never write concurrently.
func (w *ExportWorker) Export(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	started := time.Now()
	portfolio, err := w.source.AllMonths(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	ref, err := w.exporter.ExportLedger(ctx, portfolio.Months, portfolio.Totals)
	if err != nil {
		return fmt.Errorf("export ledger: %w", err)
	}
	w.lastExport = started

	w.logger.InfoContext(ctx, "Ledger exported",
		log.FieldOperation, log.OpExport,
		log.FieldSheetsRange, ref,
		"periods", len(portfolio.Months),
		log.FieldDuration, time.Since(started).Milliseconds())
	return nil
}

// LastExport returns the start time of the last successful export.
func (w *ExportWorker) LastExport() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastExport
}

// RunPeriodic exports on every tick until ctx is cancelled. Failures are
// logged and retried on the next tick.
func (w *ExportWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Export(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic export failed",
					log.FieldError, err,
					log.FieldErrorType, log.ErrorTypeNetwork)
			}
		}
	}
}

// RunScheduled exports on a cron schedule (standard five-field syntax or
// descriptors such as "@every 10m") until ctx is cancelled.
func (w *ExportWorker) RunScheduled(ctx context.Context, schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := w.Export(ctx); err != nil {
			w.logger.ErrorContext(ctx, "Scheduled export failed",
				log.FieldError, err,
				log.FieldErrorType, log.ErrorTypeNetwork,
				"schedule", schedule)
		}
	})
	if err != nil {
		return fmt.Errorf("register export schedule %q: %w", schedule, err)
	}

	c.Start()
	w.logger.InfoContext(ctx, "Export schedule registered", "schedule", schedule)

	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}
