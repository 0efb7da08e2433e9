package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/custodia-labs/filer-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
)

// dbFile is the database name inside the data directory.
const dbFile = "filer.db"

// WAL lets the bridge and CLI read while an import writes.
const pragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// Store owns the database handle and hands out the port implementations
// that share it.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating when needed) dataDir/filer.db and migrates it.
// An empty dataDir means ~/.filer/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".filer", "data")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	path := filepath.Join(dataDir, dbFile)
	db, err := sql.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db)
	if err == nil {
		err = migrator.Up(context.Background())
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Path is the database file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) RecordStore() driven.RecordStore {
	return &recordStore{store: s}
}

func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

func (s *Store) HistoryStore() driven.ImportHistoryStore {
	return &historyStore{store: s}
}

// VectorIndex shares the database; closing it leaves the store open.
func (s *Store) VectorIndex() driven.VectorIndex {
	return &vectorIndex{store: s}
}
