package domain

import "time"

// PipelineState is the working state of one in-flight import.
// It is created per dispatched task and never shared between tasks.
type PipelineState struct {
	// TaskID correlates notification events for this run.
	TaskID string

	Request   ImportRequest
	StartedAt time.Time

	// Config is resolved once when the pipeline starts.
	Config WorkspaceConfig

	// StagedPath and StagedRecordID are set once staging completes.
	StagedPath     string
	StagedRecordID string

	// DirectSave is true when the source already lies inside the workspace.
	DirectSave bool

	// Directories is the workspace listing used for recommendation.
	Directories []DirectoryEntry

	// ContentDescription is set only for images whose description succeeded.
	ContentDescription string

	Recommended  string
	Alternatives []string

	// Saved is set once the file has been persisted.
	Saved *SavedFile

	// Ingested is true when ingestion succeeded.
	Ingested bool
}

// PendingConfirmation is a snapshot of an import parked at the confirmation gate.
type PendingConfirmation struct {
	TaskID       string
	Path         string
	RecordID     string
	Recommended  string
	Alternatives []string
	Directories  []string
	ParkedAt     time.Time
}

// Snapshot captures the gate-facing view of the state.
func (s *PipelineState) Snapshot(parkedAt time.Time) PendingConfirmation {
	return PendingConfirmation{
		TaskID:       s.TaskID,
		Path:         s.Request.Path,
		RecordID:     s.StagedRecordID,
		Recommended:  s.Recommended,
		Alternatives: append([]string(nil), s.Alternatives...),
		Directories:  FolderPaths(s.Directories),
		ParkedAt:     parkedAt,
	}
}
