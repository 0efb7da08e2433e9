package services

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driving"
)

// ImportTracker follows one enqueued import through the event stream.
// It picks the task id before enqueueing, so events of other imports of the
// same path are never mistaken for its own.
type ImportTracker struct {
	taskID     string
	completion *domain.Completion
	onEvent    func(domain.StageEvent)

	parked      chan struct{}
	parkOnce    sync.Once
	unsubscribe func()
}

// TrackImport subscribes to events, then enqueues req.
// onEvent, when set, receives every event of the tracked task on the
// publishing goroutine.
func TrackImport(
	events driving.EventSubscriber,
	queue driving.ImportQueue,
	req domain.ImportRequest,
	onEvent func(domain.StageEvent),
) *ImportTracker {
	if req.TaskID == "" {
		req.TaskID = ulid.Make().String()
	}
	t := &ImportTracker{
		taskID:  req.TaskID,
		onEvent: onEvent,
		parked:  make(chan struct{}),
	}
	t.unsubscribe = events.Subscribe(t.observe)
	t.completion = queue.Enqueue(req)
	return t
}

func (t *ImportTracker) observe(ev domain.StageEvent) {
	if ev.TaskID != t.taskID {
		return
	}
	if t.onEvent != nil {
		t.onEvent(ev)
	}
	if ev.Kind == domain.EventProgress && ev.Stage == domain.StageAwaitConfirmation && ev.State == domain.StateStart {
		t.parkOnce.Do(func() { close(t.parked) })
	}
}

// TaskID returns the id the tracked import's events carry.
func (t *ImportTracker) TaskID() string {
	return t.taskID
}

// Completion returns the handle returned by Enqueue.
func (t *ImportTracker) Completion() *domain.Completion {
	return t.completion
}

// Wait blocks until the import settles or parks at the confirmation gate.
// parked is true in the latter case and the result is empty.
func (t *ImportTracker) Wait(ctx context.Context) (parked bool, result domain.ImportResult, err error) {
	select {
	case <-t.completion.Done():
		result, err = t.completion.Wait(ctx)
		return false, result, err
	default:
	}

	select {
	case <-t.completion.Done():
		result, err = t.completion.Wait(ctx)
		return false, result, err
	case <-t.parked:
		return true, domain.ImportResult{}, nil
	case <-ctx.Done():
		return false, domain.ImportResult{}, ctx.Err()
	}
}

// Close stops observing events. The import itself is unaffected.
func (t *ImportTracker) Close() {
	t.unsubscribe()
}
