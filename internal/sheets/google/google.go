package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"remitledger/internal/config"
	"remitledger/internal/ledger"
	ports "remitledger/internal/sheets"
)

// Client writes the ledger rollup to one sheet of a spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var _ ports.LedgerExporter = (*Client)(nil)

// NewFromConfig creates a Sheets client authorised with the OAuth client
// and token produced by oauth-init. Inline JSON wins over files.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Client, error) {
	if strings.TrimSpace(cfg.GoogleSpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	clientJSON, err := inlineOrFile(cfg.GoogleOAuthClientJSON, cfg.GoogleOAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("oauth client: %w", err)
	}
	tokenJSON, err := inlineOrFile(cfg.GoogleOAuthTokenJSON, cfg.GoogleOAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}

	svc, err := newSheetsService(ctx, clientJSON, tokenJSON)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.GoogleSpreadsheetID,
		sheetName:     cfg.GoogleSheetName,
	}, nil
}

func inlineOrFile(inline, path string) ([]byte, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return []byte(s), nil
	}
	if path == "" {
		return nil, errors.New("neither inline JSON nor file configured")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

func newSheetsService(ctx context.Context, clientJSON, tokenJSON []byte) (*gsheet.Service, error) {
	oauthCfg, err := oauthgoogle.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}

	// Token refreshes and API calls share the pooled transport.
	base := context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	httpClient := oauth2.NewClient(base, oauthCfg.TokenSource(base, &tok))

	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "token_expiry", tok.Expiry)
	return svc, nil
}

// newHTTPClientWithPooling creates an HTTP client for the Sheets API with
// connection pooling and bounded timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		MaxConnsPerHost:       10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// ExportLedger writes the full table from A1 and then clears whatever an
// earlier, longer export left below it. A failed write leaves the previous
// export in place. The returned reference covers the written cells.
func (c *Client) ExportLedger(ctx context.Context, rows []ledger.PeriodSummary, totals ledger.MonthSummary) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	values := ports.BuildTable(rows, totals)
	lastCol := ports.ColumnLetter(len(ports.Header))

	writeRange := sheetRange(c.sheetName, fmt.Sprintf("A1:%s%d", lastCol, len(values)))
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", writeRange, err)
	}

	staleRange := sheetRange(c.sheetName, fmt.Sprintf("A%d:%s", len(values)+1, lastCol))
	_, err = c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, staleRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("clear %s: %w", staleRange, err)
	}

	slog.InfoContext(ctx, "Exported ledger to sheet",
		"range", writeRange,
		"periods", len(rows))
	return writeRange, nil
}

// sheetRange builds an A1 reference, quoting the sheet name so names with
// spaces or apostrophes survive.
func sheetRange(sheet, cells string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!" + cells
}
