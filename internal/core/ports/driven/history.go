package driven

import (
	"context"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

// ImportHistoryStore persists finished imports.
type ImportHistoryStore interface {
	// RecordImport logs a finished import.
	RecordImport(ctx context.Context, entry *domain.ImportHistoryEntry) error

	// ListImports returns recent entries, most recent first.
	ListImports(ctx context.Context, limit int) ([]domain.ImportHistoryEntry, error)

	// PruneImports keeps only the most recent 'keep' entries.
	PruneImports(ctx context.Context, keep int) error
}
