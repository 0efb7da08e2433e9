package driven

import (
	"context"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

// FileStorage moves files into and around the workspace.
// Semantic failures are returned as *domain.ServiceError.
type FileStorage interface {
	// StageToTemp copies the source into the staging area and creates a record.
	StageToTemp(ctx context.Context, sourcePath string) (*domain.StagedFile, error)

	// SaveFile persists a staged file into a workspace directory.
	SaveFile(ctx context.Context, req domain.SaveRequest) (*domain.SavedFile, error)

	// ReadFile returns a file's content.
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// RecordStore persists file records.
type RecordStore interface {
	// SaveRecord creates or updates a record.
	SaveRecord(ctx context.Context, record *domain.FileRecord) error

	// GetRecord retrieves a record by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetRecord(ctx context.Context, id string) (*domain.FileRecord, error)

	// ListRecords returns records, most recently updated first.
	// A zero limit returns all records.
	ListRecords(ctx context.Context, status domain.RecordStatus, limit int) ([]domain.FileRecord, error)

	// DeleteRecord removes a record.
	DeleteRecord(ctx context.Context, id string) error
}
