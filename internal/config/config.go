package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

// DefaultExchangeRate seeds exchange_rate_reference when a salary is
// submitted without one.
const DefaultExchangeRate = "83.5"

type Config struct {
	Port               string
	CORSAllowedOrigins []string

	DataBackend  string
	SQLiteDBPath string

	// Optional ledger events.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleOAuthClientFile string
	GoogleOAuthTokenFile  string
	GoogleOAuthClientJSON string
	GoogleOAuthTokenJSON  string

	// Export worker. ExportSchedule is a cron expression that replaces the
	// fixed interval when set.
	ExportInterval time.Duration
	ExportSchedule string

	DefaultExchangeRate decimal.Decimal

	LogLevel string
}

// Load reads the environment. Unparseable values fall back to defaults,
// except the exchange rate, which Validate rejects.
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/remitledger.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "remitledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:       getEnv("GOOGLE_SHEET_NAME", "Ledger"),
		GoogleOAuthClientFile: getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthTokenFile:  getEnv("GOOGLE_OAUTH_TOKEN_FILE", ""),
		GoogleOAuthClientJSON: getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthTokenJSON:  getEnv("GOOGLE_OAUTH_TOKEN_JSON", ""),

		ExportInterval: getEnvDuration("EXPORT_INTERVAL", 15*time.Minute),
		ExportSchedule: getEnv("EXPORT_SCHEDULE", ""),

		DefaultExchangeRate: getEnvDecimal("DEFAULT_EXCHANGE_RATE", decimal.RequireFromString(DefaultExchangeRate)),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// problems accumulates validation failures so one run reports all of them.
type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

// Validate checks every setting and reports all problems at once. It also
// creates the SQLite directory when it is missing.
func (c *Config) Validate() error {
	var p problems
	c.validateServer(&p)
	c.validateStorage(&p)
	c.validateAMQP(&p)
	c.validateSheets(&p)
	c.validateExport(&p)

	if !c.DefaultExchangeRate.IsPositive() {
		p.addf("invalid default exchange rate %s: must be greater than zero", c.DefaultExchangeRate)
	}
	if _, ok := parseLevel(c.LogLevel); !ok {
		p.addf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel)
	}

	if len(p) == 0 {
		return nil
	}
	return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(p, "\n- "))
}

func (c *Config) validateServer(p *problems) {
	port, err := strconv.Atoi(c.Port)
	switch {
	case err != nil:
		p.addf("invalid port '%s': must be a number", c.Port)
	case port < 1 || port > 65535:
		p.addf("invalid port %d: must be between 1 and 65535", port)
	}

	for _, origin := range c.CORSAllowedOrigins {
		if origin == "*" {
			continue
		}
		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			p.addf("invalid CORS origin '%s': must be '*' or scheme://host", origin)
		}
	}
}

var backends = []string{"memory", "sqlite"}

func (c *Config) validateStorage(p *problems) {
	if !slices.Contains(backends, c.DataBackend) {
		p.addf("invalid data backend '%s': must be one of %v", c.DataBackend, backends)
		return
	}
	if c.DataBackend != "sqlite" {
		return
	}
	if c.SQLiteDBPath == "" {
		p.addf("SQLite database path cannot be empty when using sqlite backend")
		return
	}
	if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			p.addf("cannot create SQLite database directory '%s': %v", dir, err)
		}
	}
}

func (c *Config) validateAMQP(p *problems) {
	if c.AMQPURL == "" {
		return
	}
	u, err := url.Parse(c.AMQPURL)
	if err != nil {
		p.addf("invalid AMQP URL '%s': %v", c.AMQPURL, err)
	} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
		p.addf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme)
	}
	if c.AMQPExchange == "" {
		p.addf("AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	if c.AMQPQueue == "" {
		p.addf("AMQP queue name cannot be empty when AMQP URL is provided")
	}
}

// validateSheets only applies once a spreadsheet is named; credentials are
// then mandatory, inline or as files that exist.
func (c *Config) validateSheets(p *problems) {
	if !c.SheetsEnabled() {
		return
	}
	if c.GoogleSheetName == "" {
		p.addf("Google Sheet name is required when a spreadsheet ID is set")
	}
	credentials := []struct {
		what, file, inline, fileVar, inlineVar string
	}{
		{"client", c.GoogleOAuthClientFile, c.GoogleOAuthClientJSON, "GOOGLE_OAUTH_CLIENT_FILE", "GOOGLE_OAUTH_CLIENT_JSON"},
		{"token", c.GoogleOAuthTokenFile, c.GoogleOAuthTokenJSON, "GOOGLE_OAUTH_TOKEN_FILE", "GOOGLE_OAUTH_TOKEN_JSON"},
	}
	for _, cred := range credentials {
		if cred.file == "" {
			if cred.inline == "" {
				p.addf("either %s or %s must be provided for sheets export", cred.fileVar, cred.inlineVar)
			}
			continue
		}
		if _, err := os.Stat(cred.file); errors.Is(err, fs.ErrNotExist) {
			p.addf("Google OAuth %s file does not exist: %s", cred.what, cred.file)
		}
	}
}

func (c *Config) validateExport(p *problems) {
	switch {
	case c.ExportInterval < time.Minute:
		p.addf("invalid export interval %v: must be at least 1 minute", c.ExportInterval)
	case c.ExportInterval > 24*time.Hour:
		p.addf("invalid export interval %v: must be at most 24 hours", c.ExportInterval)
	}
	if c.ExportSchedule != "" {
		if _, err := cron.ParseStandard(c.ExportSchedule); err != nil {
			p.addf("invalid export schedule '%s': %v", c.ExportSchedule, err)
		}
	}
}

// SheetsEnabled reports whether a spreadsheet export target is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Level returns the slog level for LogLevel, falling back to info.
func (c *Config) Level() slog.Level {
	lvl, _ := parseLevel(c.LogLevel)
	return lvl
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvDecimal keeps invalid input as zero so Validate reports it instead
// of silently using the default.
func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero
	}
	return d
}
