package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"remitledger/internal/amqp"
	"remitledger/internal/backend"
	"remitledger/internal/cli"
	"remitledger/internal/log"
	"remitledger/internal/sheets"
	gsheet "remitledger/internal/sheets/google"
	sheetsmem "remitledger/internal/sheets/memory"
	"remitledger/internal/worker"
)

func main() {
	logger, cfg := cli.Boot()
	logger.Info("Starting remitledger-worker")

	opts, err := backend.OptionsFromConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	if opts.Kind != backend.KindSQLite {
		logger.Error("The export worker reads the shared SQLite store; set DATA_BACKEND=sqlite",
			"backend", cfg.DataBackend)
		os.Exit(1)
	}

	// The worker only reads; it must not publish events of its own.
	opts.Events = backend.Events{}
	ledger, err := backend.Open(context.Background(), opts, logger)
	if err != nil {
		logger.Error("Failed to open ledger store", log.FieldError, err)
		os.Exit(1)
	}
	defer ledger.Close()

	var exporter sheets.LedgerExporter
	if cfg.SheetsEnabled() {
		client, err := gsheet.NewFromConfig(context.Background(), cfg)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets export enabled",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	} else {
		exporter = sheetsmem.New()
		logger.Info("Google Sheets disabled - exports stay in memory")
	}

	exportWorker := worker.NewExportWorker(ledger.Service, exporter, logger)

	ctx, wait := cli.OnSignal(logger, 30*time.Second, nil)

	if err := exportWorker.Export(ctx); err != nil {
		logger.Error("Startup export failed", log.FieldError, err, log.FieldOperation, log.OpStartup)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if cfg.ExportSchedule != "" {
			return exportWorker.RunScheduled(gctx, cfg.ExportSchedule)
		}
		return exportWorker.RunPeriodic(gctx, cfg.ExportInterval)
	})

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			return amqpClient.ConsumeLedgerEvents(gctx, exportWorker.HandleLedgerEvent)
		})
	} else {
		logger.Info("AMQP disabled - relying on periodic export", "interval", cfg.ExportInterval)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	wait()
	logger.Info("Worker shutdown complete")
}
