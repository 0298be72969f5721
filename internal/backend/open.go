package backend

import (
	"context"
	"fmt"

	"remitledger/internal/amqp"
	"remitledger/internal/log"
	"remitledger/internal/services"
	"remitledger/internal/storage"
	"remitledger/internal/store"
	"remitledger/internal/store/memory"
)

// Open builds the store named by opts and a LedgerService on top of it.
// An unreachable broker is logged and the ledger runs without events.
func Open(ctx context.Context, opts Options, logger *log.Logger) (*Ledger, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("backend options: %w", err)
	}

	var st store.Store
	switch opts.Kind {
	case KindSQLite:
		repo, err := storage.NewSQLiteRepository(opts.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite ledger store: %w", err)
		}
		st = repo
	default:
		st = memory.New()
	}

	var publisher services.EventPublisher
	if opts.Events.enabled() {
		if opts.Kind == KindMemory {
			logger.WarnContext(ctx, "Ledger events ignored for the in-memory store; no worker can read it")
		} else if client, err := amqp.NewClient(opts.Events.URL, opts.Events.Exchange, opts.Events.Queue); err != nil {
			logger.WarnContext(ctx, "AMQP unavailable, ledger events disabled",
				log.FieldError, err,
				log.FieldErrorType, log.ErrorTypeNetwork)
		} else {
			publisher = client
		}
	}

	l := &Ledger{
		Kind:       opts.Kind,
		Service:    services.NewLedgerService(st, publisher, opts.DefaultRate, logger),
		Publishing: publisher != nil,
	}
	logger.InfoContext(ctx, "Ledger store opened",
		"store", opts.Kind,
		"sqlite_path", opts.SQLitePath,
		"events", l.Publishing)
	return l, nil
}
