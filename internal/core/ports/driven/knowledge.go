package driven

import (
	"context"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

// Normaliser extracts a document from the bytes of one family of formats.
type Normaliser interface {
	SupportedMIMETypes() []string

	// Priority picks between normalisers claiming the same MIME type.
	// Format-specific ones use 50-89, catch-alls 1-9.
	Priority() int

	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult carries the extracted document. Chunking happens later.
type NormaliseResult struct {
	Document domain.Document
}

// NormaliserRegistry dispatches on MIME type.
type NormaliserRegistry interface {
	// Normalise fails with domain.ErrUnsupportedType when no normaliser
	// claims raw.MIMEType.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
	Register(normaliser Normaliser)
	SupportedMIMETypes() []string
}

// PostProcessor is one step of the chunking pipeline. The first step gets
// nil chunks and creates them; later steps filter or rewrite.
type PostProcessor interface {
	Name() string
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline runs the configured processors in order.
type PostProcessorPipeline interface {
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}

// DocumentStore persists ingested documents and their chunks. A document
// shares its ID with the file record it came from.
type DocumentStore interface {
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks replaces the chunks of chunks[0].DocumentID.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunks returns chunks in position order.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// DeleteDocument also deletes its chunks.
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context) ([]domain.Document, error)
}

// VectorIndex stores one embedding per chunk and answers nearest-neighbour
// queries.
type VectorIndex interface {
	// Add replaces any existing vector for chunkID.
	Add(ctx context.Context, chunkID string, embedding []float32) error
	Delete(ctx context.Context, chunkID string) error

	// Search returns at most k hits, most similar first.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)
	Close() error
}

// VectorHit is a chunk and its cosine similarity to the query.
type VectorHit struct {
	ChunkID    string
	Similarity float64
}
