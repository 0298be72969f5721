package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remitledger/internal/log"
)

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger(slog.LevelDebug)
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.Equal(t, log.ComponentApp, logger.Component())
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("REMITLEDGER_CLI_TEST=from-dotenv\n"), 0o600))
	t.Setenv("REMITLEDGER_CLI_TEST", "")
	require.NoError(t, os.Unsetenv("REMITLEDGER_CLI_TEST"))

	LoadEnvFile(path)
	assert.Equal(t, "from-dotenv", os.Getenv("REMITLEDGER_CLI_TEST"))

	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.DataBackend)

	t.Setenv("DATA_BACKEND", "postgres")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestOnSignal(t *testing.T) {
	cleaned := make(chan struct{})
	ctx, wait := OnSignal(log.Discard(), time.Second, func(ctx context.Context) {
		assert.NoError(t, ctx.Err())
		close(cleaned)
	})

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))

	finished := make(chan struct{})
	go func() {
		wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not complete")
	}
	<-cleaned
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
