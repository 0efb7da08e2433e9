package domain

import (
	"context"
	"strings"
	"sync"
	"time"
)

// ImportMode distinguishes fresh imports from resumed ones.
type ImportMode string

const (
	// ImportModeNew stages the source before classification.
	ImportModeNew ImportMode = "new"

	// ImportModeRetry reuses a previously staged record.
	ImportModeRetry ImportMode = "retry"
)

// IsValid returns true if the mode is recognised.
func (m ImportMode) IsValid() bool {
	return m == ImportModeNew || m == ImportModeRetry
}

// ImportOrigin records which surface requested an import.
type ImportOrigin string

// Known import origins.
const (
	OriginManual ImportOrigin = "manual"
	OriginWatch  ImportOrigin = "watch"
	OriginBridge ImportOrigin = "bridge"
	OriginMCP    ImportOrigin = "mcp"
)

// ImportRequest is one request to import a file.
type ImportRequest struct {
	// Path is the absolute source path.
	Path string

	// Mode is new or retry. Empty means new.
	Mode ImportMode

	// ExistingRecordID identifies the unfinished record for retries.
	ExistingRecordID string

	// DisplayName is an optional human label used for reporting.
	DisplayName string

	// Origin is the surface that requested the import.
	Origin ImportOrigin

	// TaskID correlates the import's events. The queue assigns one when
	// empty, so callers that need to follow the task set it up front.
	TaskID string
}

// IsBlank returns true if the request carries no usable path.
func (r ImportRequest) IsBlank() bool {
	return strings.TrimSpace(r.Path) == ""
}

// Label returns the display name, falling back to the path.
func (r ImportRequest) Label() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.Path
}

// ImportOutcome is the terminal state of an import.
type ImportOutcome string

// Terminal outcomes.
const (
	OutcomeSuccess   ImportOutcome = "success"
	OutcomeError     ImportOutcome = "error"
	OutcomeCancelled ImportOutcome = "cancelled"
)

// ImportResult describes how an import finished.
type ImportResult struct {
	// TaskID correlates the result with the task's events. Empty for no-op imports.
	TaskID string

	// Path is the source path.
	Path string

	// Outcome is success, error or cancelled.
	Outcome ImportOutcome

	// RecordID is the saved record, if any.
	RecordID string

	// SavedPath is the file's final location, if saved.
	SavedPath string

	// Directory is the workspace-relative destination, if saved.
	Directory string

	// Ingested is true when knowledge-base ingestion succeeded.
	Ingested bool

	// Message is the human-readable summary surfaced to the user.
	Message string

	// Err is the fatal error for error outcomes.
	Err error

	// StartedAt is when the pipeline started.
	StartedAt time.Time

	// EndedAt is when the task settled.
	EndedAt time.Time
}

// Completion is the settle-once handle returned by Enqueue.
// It resolves on success or cancellation and rejects on a fatal error.
type Completion struct {
	once   sync.Once
	done   chan struct{}
	result ImportResult
}

// NewCompletion creates an unsettled completion handle.
func NewCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Settle records the result. Only the first call has any effect;
// it reports whether this call settled the handle.
func (c *Completion) Settle(result ImportResult) bool {
	settled := false
	c.once.Do(func() {
		c.result = result
		settled = true
		close(c.done)
	})
	return settled
}

// Done is closed once the handle settles.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Settled returns true if the handle has settled.
func (c *Completion) Settled() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Result returns the settled result. It must only be called after Done is closed.
func (c *Completion) Result() ImportResult {
	<-c.done
	return c.result
}

// Wait blocks until the handle settles or ctx is done. A settled result
// wins over an expired ctx.
// Cancellation is not an error; a fatal import failure is returned as err.
func (c *Completion) Wait(ctx context.Context) (ImportResult, error) {
	select {
	case <-c.done:
		return c.result, c.result.Err
	default:
	}

	select {
	case <-c.done:
		return c.result, c.result.Err
	case <-ctx.Done():
		return ImportResult{}, ctx.Err()
	}
}
