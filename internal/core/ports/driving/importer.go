package driving

import (
	"context"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

// ImportQueue serialises file imports and resolves confirmations.
// At most one import is in flight; pending imports run in FIFO order.
type ImportQueue interface {
	// Enqueue appends an import and returns its completion handle.
	// A blank path settles immediately as a no-op success.
	Enqueue(req domain.ImportRequest) *domain.Completion

	// Confirm resumes the parked import, saving it to dir.
	// An empty taskID targets whichever import is parked.
	Confirm(ctx context.Context, taskID, dir string) error

	// Cancel aborts the parked import without error.
	// An empty taskID targets whichever import is parked.
	Cancel(ctx context.Context, taskID string) error

	// Reselect returns the full workspace folder tree for manual selection.
	// The import stays parked until Confirm or Cancel.
	Reselect(ctx context.Context, taskID string) ([]string, error)

	// Pending returns the import parked at the confirmation gate, if any.
	Pending() (*domain.PendingConfirmation, bool)

	// Status returns a snapshot of the queue.
	Status() QueueStatus

	// Close stops dispatching, fails queued imports and cancels a parked one.
	Close() error
}

// QueueStatus is a point-in-time view of the import queue.
type QueueStatus struct {
	// Busy is true while an import is in flight or parked.
	Busy bool

	// Queued is the number of imports waiting to start.
	Queued int

	// CurrentPath is the in-flight import's source path.
	CurrentPath string

	// AwaitingConfirmation is true when the in-flight import is parked.
	AwaitingConfirmation bool

	// Processed counts settled imports since start.
	Processed int
}
