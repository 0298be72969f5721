package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"remitledger/internal/backend"
	"remitledger/internal/cli"
	apphttp "remitledger/internal/http"
	"remitledger/internal/log"
)

func main() {
	logger, cfg := cli.Boot()

	opts, err := backend.OptionsFromConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	ledger, err := backend.Open(context.Background(), opts, logger)
	if err != nil {
		logger.Error("Failed to open ledger store", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, ledger.Service, logger,
		apphttp.WithCORSOrigins(cfg.CORSAllowedOrigins))
	srv.MaxHeaderBytes = 1 << 16

	_, wait := cli.OnSignal(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := ledger.Close(); err != nil {
			logger.Error("Ledger store close error", log.FieldError, err)
		}
	})

	logger.Info("Starting remitledger server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	wait()
	logger.Info("Server stopped gracefully")
}
