package domain

import "time"

// ImportHistoryEntry is a persisted record of a finished import.
type ImportHistoryEntry struct {
	ID        int64
	TaskID    string
	Path      string
	Origin    ImportOrigin
	Outcome   ImportOutcome
	RecordID  string
	SavedPath string
	Message   string
	// Error is the fatal error text for error outcomes.
	Error     string
	StartedAt time.Time
	EndedAt   time.Time
}

// Duration returns how long the import took.
func (e ImportHistoryEntry) Duration() time.Duration {
	return e.EndedAt.Sub(e.StartedAt)
}

// HistoryEntryFromResult converts a settled result into a history entry.
func HistoryEntryFromResult(origin ImportOrigin, r ImportResult) ImportHistoryEntry {
	entry := ImportHistoryEntry{
		TaskID:    r.TaskID,
		Path:      r.Path,
		Origin:    origin,
		Outcome:   r.Outcome,
		RecordID:  r.RecordID,
		SavedPath: r.SavedPath,
		Message:   r.Message,
		StartedAt: r.StartedAt,
		EndedAt:   r.EndedAt,
	}
	if r.Err != nil {
		entry.Error = r.Err.Error()
	}
	return entry
}
