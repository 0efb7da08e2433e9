// Package migrations holds the numbered SQL scripts of the filer database
// and applies them with golang-migrate.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/custodia-labs/filer-cli/internal/logger"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// Migrator moves the schema of an open database up or down.
type Migrator struct {
	db *sql.DB
}

// NewMigrator returns a migrator over db.
func NewMigrator(db *sql.DB) (*Migrator, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &Migrator{db: db}, nil
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) error {
	inst, done, err := m.instance(ctx)
	defer done()
	if err != nil {
		return err
	}

	err = inst.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	logger.Debug("migrations applied")
	return nil
}

// Down reverts every applied migration.
func (m *Migrator) Down(ctx context.Context) error {
	inst, done, err := m.instance(ctx)
	defer done()
	if err != nil {
		return err
	}

	err = inst.Down()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not revert migrations: %w", err)
	}

	logger.Debug("migrations reverted")
	return nil
}

// Version reports the applied schema version. A fresh database is version 0.
func (m *Migrator) Version(ctx context.Context) (version uint, dirty bool, err error) {
	inst, done, err := m.instance(ctx)
	defer done()
	if err != nil {
		return 0, false, err
	}

	version, dirty, err = inst.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// instance builds a migrate instance over the embedded scripts. The
// returned func releases the source; the database stays open.
func (m *Migrator) instance(_ context.Context) (instance *migrate.Migrate, done func(), err error) {
	done = func() {}

	driver, err := sqlite.WithInstance(m.db, &sqlite.Config{})
	if err != nil {
		return nil, done, fmt.Errorf("could not create driver: %w", err)
	}

	src, err := iofs.New(migrationFiles, "sql")
	if err != nil {
		return nil, done, fmt.Errorf("could not create fs: %w", err)
	}
	done = func() {
		if err := src.Close(); err != nil {
			logger.Warn("could not close migration source", "error", err)
		}
	}

	instance, err = migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, done, fmt.Errorf("could not create migration instance: %w", err)
	}
	return instance, done, nil
}
