package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driving"
	"github.com/custodia-labs/filer-cli/internal/logger"
)

// Ensure IngestionService implements the interfaces.
var (
	_ driven.KnowledgeIngestor = (*IngestionService)(nil)
	_ driving.KnowledgeSearch  = (*IngestionService)(nil)
)

// extensionMIMETypes covers extensions the platform MIME table may lack.
var extensionMIMETypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".log":      "text/plain",
	".csv":      "text/plain",
	".go":       "text/x-go",
	".py":       "text/x-python",
	".rs":       "text/x-rust",
	".java":     "text/x-java",
	".eml":      "message/rfc822",
	".html":     "text/html",
	".htm":      "text/html",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// IngestionService indexes saved files into the knowledge base and
// answers similarity queries over it.
type IngestionService struct {
	records     driven.RecordStore
	files       driven.FileStorage
	registry    driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
	docStore    driven.DocumentStore
	vectorIndex driven.VectorIndex
	embedder    driven.EmbeddingService
	now         func() time.Time
}

// NewIngestionService creates an ingestion service.
// vectorIndex and embedder are optional; without them chunks are stored
// without vectors and Search is unavailable.
func NewIngestionService(
	records driven.RecordStore,
	files driven.FileStorage,
	registry driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	docStore driven.DocumentStore,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
) *IngestionService {
	return &IngestionService{
		records:     records,
		files:       files,
		registry:    registry,
		pipeline:    pipeline,
		docStore:    docStore,
		vectorIndex: vectorIndex,
		embedder:    embedder,
		now:         time.Now,
	}
}

// Ingest normalises, chunks, embeds and stores a saved record.
// Re-ingesting a record replaces its previous document.
//
//nolint:gocyclo // Pipeline orchestration with sequential steps
func (s *IngestionService) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	// 1. LOAD RECORD
	record, err := s.records.GetRecord(ctx, req.RecordID)
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	if record.SavedPath == "" {
		return nil, domain.NewServiceError(domain.CodeSourceFileMissing, "record has not been saved", nil)
	}

	description := req.Description
	if description == "" {
		description = record.Description
	}

	// 2. READ (images are indexed through their description)
	raw, err := s.rawDocument(ctx, record, description)
	if err != nil {
		return nil, err
	}

	// 3. NORMALISE
	result, err := s.registry.Normalise(ctx, raw)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedType) {
			return nil, domain.NewServiceError(domain.CodeUnsupportedFileType,
				fmt.Sprintf("unsupported file type %s", raw.MIMEType), err)
		}
		return nil, domain.NewServiceError(domain.CodeConversionFailed, err.Error(), err)
	}

	doc := result.Document
	doc.ID = record.ID
	doc.RecordID = record.ID
	doc.URI = record.SavedPath
	if doc.Title == "" {
		doc.Title = record.FileName
	}
	if strings.TrimSpace(doc.Content) == "" {
		return nil, domain.NewServiceError(domain.CodeNoContent, "no text content extracted", nil)
	}
	if description != "" {
		if doc.Metadata == nil {
			doc.Metadata = make(map[string]any)
		}
		doc.Metadata["description"] = description
	}
	now := s.now()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	// 4. REPLACE PREVIOUS INGESTION
	if err := s.remove(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("remove previous document: %w", err)
	}

	// 5. CHUNK
	chunks, err := s.pipeline.Process(ctx, &doc)
	if err != nil {
		return nil, fmt.Errorf("post-process: %w", err)
	}

	// 6. EMBED (if service available)
	embedded := false
	if s.embedder != nil && len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i := range chunks {
			texts[i] = chunks[i].Content
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, domain.NewServiceError(domain.CodeEmbeddingError, err.Error(), err)
		}
		if len(vectors) != len(chunks) {
			return nil, domain.NewServiceError(domain.CodeEmbeddingError,
				fmt.Sprintf("expected %d embeddings, got %d", len(chunks), len(vectors)), nil)
		}
		for i := range chunks {
			chunks[i].Embedding = vectors[i]
		}
		embedded = true
	}

	// 7. STORE
	if err := s.docStore.SaveDocument(ctx, &doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("save chunks: %w", err)
	}

	// 8. INDEX VECTORS
	if embedded && s.vectorIndex != nil {
		for _, chunk := range chunks {
			if err := s.vectorIndex.Add(ctx, chunk.ID, chunk.Embedding); err != nil {
				return nil, fmt.Errorf("add vector: %w", err)
			}
		}
	}

	// 9. MARK RECORD
	record.IngestedAt = now
	record.UpdatedAt = now
	if !req.SkipDBWrite && record.Description == "" {
		record.Description = description
	}
	if err := s.records.SaveRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}

	logger.Info("record ingested", "record", record.ID, "chunks", len(chunks), "embedded", embedded)
	return &domain.IngestResult{DocumentID: doc.ID, Chunks: len(chunks), Embedded: embedded}, nil
}

// Search embeds query and returns the nearest chunks with their documents.
func (s *IngestionService) Search(ctx context.Context, query string, k int) ([]domain.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchHit{}, nil
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.vectorIndex == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if k <= 0 {
		k = 10
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	vhits, err := s.vectorIndex.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	docs := make(map[string]*domain.Document)
	hits := make([]domain.SearchHit, 0, len(vhits))
	for _, vh := range vhits {
		chunk, err := s.docStore.GetChunk(ctx, vh.ChunkID)
		if err != nil {
			logger.Debug("skipping orphaned vector", "chunk", vh.ChunkID, "error", err)
			continue
		}
		doc, ok := docs[chunk.DocumentID]
		if !ok {
			doc, err = s.docStore.GetDocument(ctx, chunk.DocumentID)
			if err != nil {
				logger.Debug("skipping chunk without document", "chunk", vh.ChunkID, "error", err)
				continue
			}
			docs[chunk.DocumentID] = doc
		}
		hits = append(hits, domain.SearchHit{Chunk: *chunk, Document: doc, Similarity: vh.Similarity})
	}
	return hits, nil
}

func (s *IngestionService) rawDocument(
	ctx context.Context, record *domain.FileRecord, description string,
) (*domain.RawDocument, error) {
	raw := &domain.RawDocument{
		RecordID: record.ID,
		URI:      record.SavedPath,
		Metadata: map[string]any{"title": record.FileName},
	}

	if _, isImage := imageMIMEType(record.SavedPath); isImage {
		if strings.TrimSpace(description) == "" {
			return nil, domain.NewServiceError(domain.CodeNoContent, "image has no description to index", nil)
		}
		raw.MIMEType = "text/plain"
		raw.Content = []byte(description)
		return raw, nil
	}

	content, err := s.files.ReadFile(ctx, record.SavedPath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	raw.MIMEType = contentType(record.SavedPath)
	raw.Content = content
	return raw, nil
}

// remove deletes a document, its chunks and vectors. Missing documents are ignored.
func (s *IngestionService) remove(ctx context.Context, documentID string) error {
	chunks, err := s.docStore.GetChunks(ctx, documentID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if s.vectorIndex != nil {
		for _, chunk := range chunks {
			if err := s.vectorIndex.Delete(ctx, chunk.ID); err != nil {
				logger.Debug("failed to delete vector", "chunk", chunk.ID, "error", err)
			}
		}
	}
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// contentType resolves a file's MIME type from its extension.
func contentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := extensionMIMETypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if mediaType, _, err := mime.ParseMediaType(t); err == nil {
			return mediaType
		}
		return t
	}
	return "application/octet-stream"
}
