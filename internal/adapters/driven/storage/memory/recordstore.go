package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
)

// Ensure stores implement the interfaces.
var (
	_ driven.RecordStore        = (*RecordStore)(nil)
	_ driven.ImportHistoryStore = (*HistoryStore)(nil)
)

// RecordStore is an in-memory implementation of driven.RecordStore.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]domain.FileRecord
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{records: make(map[string]domain.FileRecord)}
}

// SaveRecord creates or updates a record.
func (s *RecordStore) SaveRecord(_ context.Context, record *domain.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = *record
	return nil
}

// GetRecord retrieves a record by ID.
func (s *RecordStore) GetRecord(_ context.Context, id string) (*domain.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &record, nil
}

// ListRecords returns records filtered by status, most recently updated first.
func (s *RecordStore) ListRecords(_ context.Context, status domain.RecordStatus, limit int) ([]domain.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.FileRecord, 0, len(s.records))
	for id := range s.records {
		record := s.records[id]
		if status == "" || record.Status == status {
			result = append(result, record)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt.After(result[j].UpdatedAt) })

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// DeleteRecord removes a record.
func (s *RecordStore) DeleteRecord(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

// HistoryStore is an in-memory implementation of driven.ImportHistoryStore.
type HistoryStore struct {
	mu      sync.Mutex
	nextID  int64
	entries []domain.ImportHistoryEntry
}

// NewHistoryStore creates a new in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

// RecordImport appends an entry and assigns its ID.
func (s *HistoryStore) RecordImport(_ context.Context, entry *domain.ImportHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	entry.ID = s.nextID
	s.entries = append(s.entries, *entry)
	return nil
}

// ListImports returns the latest entries, most recent first.
func (s *HistoryStore) ListImports(_ context.Context, limit int) ([]domain.ImportHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]domain.ImportHistoryEntry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		result = append(result, s.entries[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// PruneImports keeps only the most recent keep entries.
func (s *HistoryStore) PruneImports(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if keep >= 0 && len(s.entries) > keep {
		s.entries = append([]domain.ImportHistoryEntry(nil), s.entries[len(s.entries)-keep:]...)
	}
	return nil
}
