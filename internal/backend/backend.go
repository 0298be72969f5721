// Package backend wires a LedgerService to the configured record store and,
// for the SQLite store, the optional ledger event publisher.
package backend

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"remitledger/internal/config"
	"remitledger/internal/services"
)

// Kind names a record store implementation.
type Kind string

const (
	KindMemory Kind = "memory"
	KindSQLite Kind = "sqlite"
)

// Kinds lists every supported store.
var Kinds = []Kind{KindMemory, KindSQLite}

// ParseKind accepts a store name case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown ledger store %q (want one of %v)", s, Kinds)
}

// Events locates the AMQP exchange ledger events are published to. An empty
// URL disables publishing.
type Events struct {
	URL      string
	Exchange string
	Queue    string
}

func (e Events) enabled() bool { return e.URL != "" }

// Options selects and configures the store behind a LedgerService.
type Options struct {
	Kind        Kind
	SQLitePath  string
	Events      Events
	DefaultRate decimal.Decimal
}

// OptionsFromConfig derives store options from the application config.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	if cfg == nil {
		return Options{}, fmt.Errorf("backend options: nil config")
	}
	kind, err := ParseKind(cfg.DataBackend)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Kind:       kind,
		SQLitePath: cfg.SQLiteDBPath,
		Events: Events{
			URL:      cfg.AMQPURL,
			Exchange: cfg.AMQPExchange,
			Queue:    cfg.AMQPQueue,
		},
		DefaultRate: cfg.DefaultExchangeRate,
	}, nil
}

func (o Options) validate() error {
	switch o.Kind {
	case KindMemory:
	case KindSQLite:
		if o.SQLitePath == "" {
			return fmt.Errorf("sqlite ledger store needs a database path")
		}
	default:
		return fmt.Errorf("unknown ledger store %q", o.Kind)
	}
	if !o.DefaultRate.IsPositive() {
		return fmt.Errorf("default exchange rate must be positive, got %s", o.DefaultRate)
	}
	if o.Events.enabled() && (o.Events.Exchange == "" || o.Events.Queue == "") {
		return fmt.Errorf("ledger events need both an exchange and a queue")
	}
	return nil
}

// Ledger is a ready LedgerService. Close releases its store and publisher.
type Ledger struct {
	Kind    Kind
	Service *services.LedgerService
	// Publishing is true when ledger events are being sent to AMQP.
	Publishing bool
}

func (l *Ledger) Close() error {
	if l == nil || l.Service == nil {
		return nil
	}
	return l.Service.Close()
}
