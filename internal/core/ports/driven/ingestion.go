package driven

import (
	"context"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

// KnowledgeIngestor indexes a saved file into the knowledge base.
type KnowledgeIngestor interface {
	// Ingest normalises, chunks and embeds the record's file.
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)
}
