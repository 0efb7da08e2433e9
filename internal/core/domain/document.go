package domain

import "time"

// Document is the knowledge-base entry for an ingested file.
// It is the canonical text representation after normalisation.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// RecordID links to the FileRecord the document was built from.
	RecordID string

	// URI is the saved file path.
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full text content after normalisation.
	Content string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Chunk is a retrievable unit within a document.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// Embedding is the vector representation, nil when no embedder is configured.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// IngestRequest asks the knowledge base to index a saved record.
type IngestRequest struct {
	RecordID string

	// SkipDBWrite keeps the record's stored description; the caller already
	// persisted it. The record is still stamped as ingested.
	SkipDBWrite bool

	// Description is reused instead of describing the content again.
	Description string
}

// IngestResult summarises an ingestion.
type IngestResult struct {
	DocumentID string
	Chunks     int
	Embedded   bool
}

// SearchHit is a chunk returned by knowledge search.
type SearchHit struct {
	Chunk      Chunk
	Document   *Document
	Similarity float64
}
