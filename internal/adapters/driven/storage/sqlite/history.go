package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
)

// historyStore implements driven.ImportHistoryStore.
type historyStore struct {
	store *Store
}

var _ driven.ImportHistoryStore = (*historyStore)(nil)

// RecordImport logs a finished import and sets entry.ID.
func (s *historyStore) RecordImport(ctx context.Context, entry *domain.ImportHistoryEntry) error {
	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO import_history (task_id, path, origin, outcome, record_id, saved_path, message, error, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.TaskID, entry.Path, string(entry.Origin), string(entry.Outcome), entry.RecordID,
		entry.SavedPath, entry.Message, entry.Error, nullTime(entry.StartedAt), nullTime(entry.EndedAt))
	if err != nil {
		return fmt.Errorf("recording import: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading history id: %w", err)
	}
	entry.ID = id
	return nil
}

// ListImports returns recent entries, most recent first.
func (s *historyStore) ListImports(ctx context.Context, limit int) ([]domain.ImportHistoryEntry, error) {
	query := `
		SELECT id, task_id, path, origin, outcome, record_id, saved_path, message, error, started_at, ended_at
		FROM import_history ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []domain.ImportHistoryEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		var e domain.ImportHistoryEntry
		var origin, outcome string
		var startedAt, endedAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.TaskID, &e.Path, &origin, &outcome, &e.RecordID,
			&e.SavedPath, &e.Message, &e.Error, &startedAt, &endedAt); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		e.Origin = domain.ImportOrigin(origin)
		e.Outcome = domain.ImportOutcome(outcome)
		e.StartedAt = startedAt.Time
		e.EndedAt = endedAt.Time
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return entries, nil
}

// PruneImports keeps only the most recent 'keep' entries.
func (s *historyStore) PruneImports(ctx context.Context, keep int) error {
	if keep < 0 {
		return nil
	}
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM import_history
		WHERE id NOT IN (SELECT id FROM import_history ORDER BY id DESC LIMIT ?)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning history: %w", err)
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
