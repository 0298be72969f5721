package sheets

import (
	"context"

	"remitledger/internal/ledger"
)

// Ports for outbound adapters.
type (
	// LedgerExporter replaces the exported ledger table with the given rollup.
	LedgerExporter interface {
		ExportLedger(ctx context.Context, rows []ledger.PeriodSummary, totals ledger.MonthSummary) (rangeRef string, err error)
	}
)
