package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
)

// recordStore implements driven.RecordStore.
type recordStore struct {
	store *Store
}

var _ driven.RecordStore = (*recordStore)(nil)

const recordColumns = `id, source_path, staged_path, saved_path, directory, file_name,
	size, status, description, ingested_at, created_at, updated_at`

// SaveRecord creates or updates a record.
func (s *recordStore) SaveRecord(ctx context.Context, record *domain.FileRecord) error {
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = now
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO file_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_path = excluded.source_path,
			staged_path = excluded.staged_path,
			saved_path = excluded.saved_path,
			directory = excluded.directory,
			file_name = excluded.file_name,
			size = excluded.size,
			status = excluded.status,
			description = excluded.description,
			ingested_at = excluded.ingested_at,
			updated_at = excluded.updated_at
	`, record.ID, record.SourcePath, record.StagedPath, record.SavedPath, record.Directory,
		record.FileName, record.Size, string(record.Status), record.Description, nullTime(record.IngestedAt),
		record.CreatedAt.UTC(), record.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving record: %w", err)
	}
	return nil
}

// GetRecord retrieves a record by ID.
func (s *recordStore) GetRecord(ctx context.Context, id string) (*domain.FileRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM file_records WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return record, err
}

// ListRecords returns records, most recently updated first.
func (s *recordStore) ListRecords(ctx context.Context, status domain.RecordStatus, limit int) ([]domain.FileRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM file_records`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY updated_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []domain.FileRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

// DeleteRecord removes a record.
func (s *recordStore) DeleteRecord(ctx context.Context, id string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM file_records WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.FileRecord, error) {
	var record domain.FileRecord
	var status string
	var ingestedAt sql.NullTime
	if err := row.Scan(&record.ID, &record.SourcePath, &record.StagedPath, &record.SavedPath,
		&record.Directory, &record.FileName, &record.Size, &status, &record.Description,
		&ingestedAt, &record.CreatedAt, &record.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning record: %w", err)
	}
	record.Status = domain.RecordStatus(status)
	if ingestedAt.Valid {
		record.IngestedAt = ingestedAt.Time
	}
	return &record, nil
}
