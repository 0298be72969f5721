package memory

import (
	"context"
	"fmt"
	"sync"

	"remitledger/internal/ledger"
	ports "remitledger/internal/sheets"
)

// Exporter keeps the last exported table in memory. It stands in for the
// Sheets client when no spreadsheet is configured.
type Exporter struct {
	mu      sync.Mutex
	table   [][]any
	exports int
}

var _ ports.LedgerExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

// ExportLedger replaces the stored table and returns a synthetic reference.
func (e *Exporter) ExportLedger(ctx context.Context, rows []ledger.PeriodSummary, totals ledger.MonthSummary) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	table := ports.BuildTable(rows, totals)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.table = table
	e.exports++
	return fmt.Sprintf("mem:%d:%d", e.exports, len(table)), nil
}

// Table returns a copy of the last exported rows.
func (e *Exporter) Table() [][]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]any, len(e.table))
	copy(out, e.table)
	return out
}

// Exports reports how many times the ledger was exported.
func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports
}
