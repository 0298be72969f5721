package google

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"remitledger/internal/config"
	"remitledger/internal/ledger"
	ports "remitledger/internal/sheets"
)

const testClientJSON = `{"installed":{"client_id":"id.apps.googleusercontent.com","client_secret":"secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost:8085/callback"]}}`

func TestNewFromConfig_MissingSpreadsheetID(t *testing.T) {
	_, err := NewFromConfig(context.Background(), &config.Config{})
	require.Error(t, err)
	assert.Equal(t, "missing GOOGLE_SPREADSHEET_ID", err.Error())
}

func TestNewFromConfig_InvalidClientJSON(t *testing.T) {
	cfg := &config.Config{
		GoogleSpreadsheetID:   "sheet-id",
		GoogleSheetName:       "Ledger",
		GoogleOAuthClientJSON: "invalid-json",
		GoogleOAuthTokenJSON:  `{"access_token":"test"}`,
	}
	_, err := NewFromConfig(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oauth config")
}

func TestNewFromConfig_InvalidToken(t *testing.T) {
	cfg := &config.Config{
		GoogleSpreadsheetID:   "sheet-id",
		GoogleSheetName:       "Ledger",
		GoogleOAuthClientJSON: testClientJSON,
		GoogleOAuthTokenJSON:  "{not json",
	}
	_, err := NewFromConfig(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse oauth token")
}

func TestNewFromConfig_FromFiles(t *testing.T) {
	dir := t.TempDir()
	clientFile := filepath.Join(dir, "client.json")
	tokenFile := filepath.Join(dir, "token.json")
	require.NoError(t, os.WriteFile(clientFile, []byte(testClientJSON), 0o600))
	require.NoError(t, os.WriteFile(tokenFile, []byte(`{"access_token":"abc","token_type":"Bearer"}`), 0o600))

	c, err := NewFromConfig(context.Background(), &config.Config{
		GoogleSpreadsheetID:   "sheet-id",
		GoogleSheetName:       "Ledger",
		GoogleOAuthClientFile: clientFile,
		GoogleOAuthTokenFile:  tokenFile,
	})
	require.NoError(t, err)
	assert.Equal(t, "sheet-id", c.spreadsheetID)
	assert.Equal(t, "Ledger", c.sheetName)
	assert.NotNil(t, c.svc)
}

func TestNewFromConfig_MissingTokenFile(t *testing.T) {
	_, err := NewFromConfig(context.Background(), &config.Config{
		GoogleSpreadsheetID:   "sheet-id",
		GoogleOAuthClientJSON: testClientJSON,
		GoogleOAuthTokenFile:  filepath.Join(t.TempDir(), "missing.json"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oauth token")
}

func TestExportLedger_Uninitialized(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: "Ledger"}
	_, err := c.ExportLedger(context.Background(), nil, ledger.Empty())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")
}

// fakeSheets records Values calls as "METHOD path" and fails updates when
// failUpdate is set.
type fakeSheets struct {
	mu         sync.Mutex
	calls      []string
	failUpdate bool
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	fail := f.failUpdate && r.Method == http.MethodPut
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"bad range"}}`))
		return
	}
	_, _ = w.Write([]byte(`{}`))
}

func newFakeClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return &Client{svc: svc, spreadsheetID: "sheet-id", sheetName: "Ledger"}
}

func TestExportLedger_WritesBeforeClearingTail(t *testing.T) {
	fake := &fakeSheets{}
	c := newFakeClient(t, fake)

	written, err := c.ExportLedger(context.Background(), nil, ledger.Empty())
	require.NoError(t, err)

	n := len(ports.BuildTable(nil, ledger.Empty()))
	assert.Equal(t, fmt.Sprintf("'Ledger'!A1:N%d", n), written)

	require.Len(t, fake.calls, 2)
	assert.True(t, strings.HasPrefix(fake.calls[0], "PUT "), fake.calls[0])
	assert.Contains(t, fake.calls[0], fmt.Sprintf("A1:N%d", n))
	assert.True(t, strings.HasPrefix(fake.calls[1], "POST "), fake.calls[1])
	assert.Contains(t, fake.calls[1], fmt.Sprintf("A%d:N:clear", n+1))
}

func TestExportLedger_FailedWriteKeepsPreviousExport(t *testing.T) {
	fake := &fakeSheets{failUpdate: true}
	c := newFakeClient(t, fake)

	_, err := c.ExportLedger(context.Background(), nil, ledger.Empty())
	require.Error(t, err)

	require.Len(t, fake.calls, 1)
	assert.True(t, strings.HasPrefix(fake.calls[0], "PUT "))
}

func TestSheetRange(t *testing.T) {
	assert.Equal(t, "'Ledger'!A1:N3", sheetRange("Ledger", "A1:N3"))
	assert.Equal(t, "'2025 Remit Log'!A:N", sheetRange("2025 Remit Log", "A:N"))
	assert.Equal(t, "'Mom''s'!A1", sheetRange("Mom's", "A1"))
}

func TestHTTPClientWithPooling(t *testing.T) {
	c := newHTTPClientWithPooling()
	require.NotNil(t, c.Transport)
	assert.Greater(t, c.Timeout.Seconds(), 0.0)
}
