package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driving"
)

// Ensure services implement the interfaces.
var (
	_ driving.ImportHistory = (*HistoryService)(nil)
	_ driving.RecordService = (*RecordService)(nil)
)

// HistoryService reads finished imports.
type HistoryService struct {
	store driven.ImportHistoryStore
}

// NewHistoryService creates a history service.
func NewHistoryService(store driven.ImportHistoryStore) *HistoryService {
	return &HistoryService{store: store}
}

// Recent returns the latest imports, most recent first.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]domain.ImportHistoryEntry, error) {
	if limit <= 0 || limit > HistoryLimit {
		limit = HistoryLimit
	}
	entries, err := s.store.ListImports(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	return entries, nil
}

// RecordService reads tracked file records and builds retry requests.
type RecordService struct {
	store driven.RecordStore
}

// NewRecordService creates a record service.
func NewRecordService(store driven.RecordStore) *RecordService {
	return &RecordService{store: store}
}

// List returns records filtered by status.
func (s *RecordService) List(ctx context.Context, status domain.RecordStatus, limit int) ([]domain.FileRecord, error) {
	records, err := s.store.ListRecords(ctx, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// Get retrieves a record by ID.
func (s *RecordService) Get(ctx context.Context, id string) (*domain.FileRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("record id: %w", domain.ErrInvalidInput)
	}
	return s.store.GetRecord(ctx, id)
}

// RetryRequest builds a retry import for a record that was staged but never saved.
func (s *RecordService) RetryRequest(ctx context.Context, id string) (domain.ImportRequest, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return domain.ImportRequest{}, err
	}
	if record.Status != domain.RecordStaged || record.StagedPath == "" {
		return domain.ImportRequest{}, fmt.Errorf("record %s is %s, only staged records can be retried: %w",
			record.ID, record.Status, domain.ErrInvalidInput)
	}
	return domain.ImportRequest{
		Path:             record.StagedPath,
		Mode:             domain.ImportModeRetry,
		ExistingRecordID: record.ID,
		DisplayName:      record.FileName,
		Origin:           domain.OriginManual,
	}, nil
}
