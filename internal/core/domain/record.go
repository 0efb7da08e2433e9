package domain

import "time"

// RecordStatus is the lifecycle state of a file record.
type RecordStatus string

const (
	RecordStaged RecordStatus = "staged"
	RecordSaved  RecordStatus = "saved"
)

// FileRecord tracks a file from staging to its final location.
type FileRecord struct {
	// ID is the stable record identifier.
	ID string

	// SourcePath is where the file was imported from.
	SourcePath string

	// StagedPath is the temporary copy, empty once saved.
	StagedPath string

	// SavedPath is the final absolute location.
	SavedPath string

	// Directory is the workspace-relative destination directory.
	Directory string

	// FileName is the original base name.
	FileName string

	// Size is the file size in bytes.
	Size int64

	// Status is staged or saved.
	Status RecordStatus

	// Description is the content description captured during import.
	Description string

	// IngestedAt is when the file was last indexed, zero if never.
	IngestedAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StagedFile is the result of staging a source.
type StagedFile struct {
	Path     string
	RecordID string
}

// SaveRequest persists a staged file into the workspace.
type SaveRequest struct {
	// StagedPath is the file to persist.
	StagedPath string

	// TargetDir is relative to the workspace root, or absolute inside it.
	TargetDir string

	// Overwrite replaces an existing destination instead of suffixing.
	Overwrite bool

	// RecordID is the staged record to update. Empty creates a new record.
	RecordID string

	// Description is stored on the record when set.
	Description string
}

// SavedFile is the result of a save.
type SavedFile struct {
	RecordID  string
	Path      string
	Directory string
}
