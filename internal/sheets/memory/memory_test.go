package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remitledger/internal/ledger"
	"remitledger/internal/sheets"
)

func TestExporterKeepsLastTable(t *testing.T) {
	e := New()
	assert.Empty(t, e.Table())

	ref, err := e.ExportLedger(context.Background(), nil, ledger.Empty())
	require.NoError(t, err)
	assert.Equal(t, "mem:1:2", ref)

	table := e.Table()
	require.Len(t, table, 2)
	assert.Equal(t, sheets.Header, table[0])
	assert.Equal(t, sheets.TotalLabel, table[1][0])
	assert.Equal(t, 1, e.Exports())
}

func TestExporterHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().ExportLedger(ctx, nil, ledger.Empty())
	assert.ErrorIs(t, err, context.Canceled)
}
