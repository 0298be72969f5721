// Package cli holds the start-up and shutdown steps shared by the binaries
// under cmd/.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"remitledger/internal/config"
	"remitledger/internal/log"
)

// SetupLogger builds the process logger and installs its handler as the
// slog default, so packages logging through slog directly share it.
func SetupLogger(level slog.Level) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = level
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env files if present; production sets the environment
// directly.
func LoadEnvFile(filenames ...string) {
	_ = godotenv.Load(filenames...)
}

func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Boot runs the common start-up sequence: .env, configuration, then a logger
// at the configured level. Invalid configuration ends the process.
func Boot() (*log.Logger, *config.Config) {
	LoadEnvFile()
	logger := SetupLogger(slog.LevelInfo)

	cfg, err := LoadConfig()
	if err != nil {
		logger.Error("Configuration validation failed",
			log.FieldError, err,
			log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return SetupLogger(cfg.Level()), cfg
}

// OnSignal returns a context cancelled by SIGINT or SIGTERM. After the
// signal, cleanup runs with a context bounded by timeout. wait blocks until
// cleanup has returned.
func OnSignal(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (ctx context.Context, wait func()) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		<-ctx.Done()
		stop()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		deadline, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if cleanup != nil {
			cleanup(deadline)
		}
		if deadline.Err() != nil {
			logger.Warn("Shutdown timeout reached", "timeout", timeout)
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, func() { <-finished }
}
