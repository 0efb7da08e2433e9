package driving

import (
	"context"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

// ImportHistory exposes finished imports.
type ImportHistory interface {
	// Recent returns the latest entries, most recent first.
	Recent(ctx context.Context, limit int) ([]domain.ImportHistoryEntry, error)
}

// RecordService exposes tracked file records.
type RecordService interface {
	// List returns records filtered by status. An empty status returns all.
	List(ctx context.Context, status domain.RecordStatus, limit int) ([]domain.FileRecord, error)

	// Get retrieves a record by ID.
	Get(ctx context.Context, id string) (*domain.FileRecord, error)

	// RetryRequest builds an import that resumes a staged record.
	RetryRequest(ctx context.Context, id string) (domain.ImportRequest, error)
}

// KnowledgeSearch retrieves ingested content by meaning.
type KnowledgeSearch interface {
	// Search returns the k chunks most similar to query.
	// Returns domain.ErrEmbeddingUnavailable when no embedder is configured.
	Search(ctx context.Context, query string, k int) ([]domain.SearchHit, error)
}
