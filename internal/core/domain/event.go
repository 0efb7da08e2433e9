package domain

import "time"

// Stage names an import pipeline stage in progress events.
type Stage string

// Pipeline stages, in execution order.
const (
	StageStageFile          Stage = "stage-file"
	StageListDirectory      Stage = "list-directory"
	StageDescribeContent    Stage = "describe-content"
	StageRecommendDirectory Stage = "recommend-directory"
	StageAwaitConfirmation  Stage = "await-confirmation"
	StageSaveFile           Stage = "save-file"
	StageIngestKnowledge    Stage = "ingest-knowledge"
)

// StageState is the state carried by a progress event.
type StageState string

// Stage states.
const (
	StateStart   StageState = "start"
	StateSuccess StageState = "success"
	// StateWarning marks a best-effort stage that failed without aborting the import.
	StateWarning StageState = "warning"
	// StateReselect marks a parked import reopened for manual directory selection.
	StateReselect StageState = "reselect"
)

// EventKind tags the StageEvent union.
type EventKind string

// Event kinds. Each task emits exactly one EventStart and exactly one
// terminal event (EventSuccess, EventError or EventCancelled).
const (
	EventStart     EventKind = "start"
	EventProgress  EventKind = "progress"
	EventSuccess   EventKind = "success"
	EventError     EventKind = "error"
	EventCancelled EventKind = "cancelled"
)

// IsTerminal returns true for success, error and cancelled.
func (k EventKind) IsTerminal() bool {
	return k == EventSuccess || k == EventError || k == EventCancelled
}

// StageEvent is a lifecycle notification for one import task.
// Fields beyond Kind and TaskID are populated per kind.
type StageEvent struct {
	Kind   EventKind
	TaskID string

	// Path is set on start events.
	Path string

	// Stage and State are set on progress events.
	Stage Stage
	State StageState

	// Message is an optional human-readable note.
	Message string

	// Err is the raw error on error events.
	Err error

	Time time.Time
}

// StartEvent creates a start event.
func StartEvent(taskID, path string) StageEvent {
	return StageEvent{Kind: EventStart, TaskID: taskID, Path: path, Time: time.Now()}
}

// ProgressEvent creates a progress event.
func ProgressEvent(taskID string, stage Stage, state StageState, message string) StageEvent {
	return StageEvent{
		Kind:    EventProgress,
		TaskID:  taskID,
		Stage:   stage,
		State:   state,
		Message: message,
		Time:    time.Now(),
	}
}

// SuccessEvent creates a terminal success event.
func SuccessEvent(taskID, message string) StageEvent {
	return StageEvent{Kind: EventSuccess, TaskID: taskID, Message: message, Time: time.Now()}
}

// ErrorEvent creates a terminal error event.
func ErrorEvent(taskID string, err error, message string) StageEvent {
	return StageEvent{Kind: EventError, TaskID: taskID, Err: err, Message: message, Time: time.Now()}
}

// CancelledEvent creates a terminal cancellation event.
func CancelledEvent(taskID, message string) StageEvent {
	return StageEvent{Kind: EventCancelled, TaskID: taskID, Message: message, Time: time.Now()}
}
