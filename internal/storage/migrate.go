package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var ledgerMigrations embed.FS

// ErrDirtySchema means a previous migration stopped half way and the
// database needs manual repair before the ledger can use it.
var ErrDirtySchema = errors.New("ledger schema is dirty")

// MigrateLedger applies every pending ledger migration to the database at
// dbPath and returns the schema version it ends on. Running it against an
// up-to-date database is a no-op.
func MigrateLedger(dbPath string) (uint, error) {
	// The migrate driver closes its connection, so it gets its own handle.
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return 0, fmt.Errorf("open %s for migration: %w", dbPath, err)
	}
	defer conn.Close()

	m, err := newLedgerMigrator(conn)
	if err != nil {
		return 0, err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("apply ledger migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read ledger schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("%w at version %d", ErrDirtySchema, version)
	}
	return version, nil
}

func newLedgerMigrator(conn *sql.DB) (*migrate.Migrate, error) {
	target, err := sqlite.WithInstance(conn, &sqlite.Config{MigrationsTable: "ledger_schema_migrations"})
	if err != nil {
		return nil, fmt.Errorf("ledger migration target: %w", err)
	}
	source, err := iofs.New(ledgerMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("ledger migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", target)
	if err != nil {
		return nil, fmt.Errorf("ledger migrator: %w", err)
	}
	return m, nil
}
