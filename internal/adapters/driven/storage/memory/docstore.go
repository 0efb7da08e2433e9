package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
)

var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore keeps knowledge documents and their chunks in maps.
// Chunks saved before their document are kept and attached when it arrives.
type DocumentStore struct {
	mu      sync.RWMutex
	docs    map[string]domain.Document
	chunks  map[string][]domain.Chunk // by document ID, position order
	chunkOf map[string]string         // chunk ID -> document ID
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs:    make(map[string]domain.Document),
		chunks:  make(map[string][]domain.Chunk),
		chunkOf: make(map[string]string),
	}
}

func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	s.docs[doc.ID] = *doc
	s.mu.Unlock()
	return nil
}

// SaveChunks replaces the chunk set of chunks[0].DocumentID.
func (s *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	docID := chunks[0].DocumentID
	sorted := slices.Clone(chunks)
	slices.SortStableFunc(sorted, func(a, b domain.Chunk) int { return cmp.Compare(a.Position, b.Position) })

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropChunks(docID)
	s.chunks[docID] = sorted
	for _, c := range sorted {
		s.chunkOf[c.ID] = docID
	}
	return nil
}

func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if doc, ok := s.docs[id]; ok {
		return &doc, nil
	}
	return nil, domain.ErrNotFound
}

// GetChunks returns nil for unknown documents.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.chunks[documentID]), nil
}

func (s *DocumentStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.chunks[s.chunkOf[id]] {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	s.dropChunks(id)
	return nil
}

// ListDocuments orders by title.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, doc)
	}
	slices.SortFunc(out, func(a, b domain.Document) int { return cmp.Compare(a.Title, b.Title) })
	return out, nil
}

// dropChunks requires the write lock.
func (s *DocumentStore) dropChunks(docID string) {
	for _, c := range s.chunks[docID] {
		delete(s.chunkOf, c.ID)
	}
	delete(s.chunks, docID)
}
