package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driving"
	"github.com/custodia-labs/filer-cli/internal/logger"
)

// Ensure ImportQueue implements the interface.
var _ driving.ImportQueue = (*ImportQueue)(nil)

// HistoryLimit is the number of finished imports kept in history.
const HistoryLimit = 500

type queuedImport struct {
	req        domain.ImportRequest
	completion *domain.Completion
}

// ImportQueue is a single-consumer FIFO of import requests.
// At most one import runs or is parked at a time; the next one is
// dispatched when the current one settles, whatever its outcome.
type ImportQueue struct {
	executor *StageExecutor
	history  driven.ImportHistoryStore

	gate confirmationGate

	mu        sync.Mutex
	backlog   []*queuedImport
	current   *queuedImport
	busy      bool
	closed    bool
	processed int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewImportQueue creates a queue dispatching to executor.
// history may be nil, in which case finished imports are not recorded.
func NewImportQueue(executor *StageExecutor, history driven.ImportHistoryStore) *ImportQueue {
	ctx, cancel := context.WithCancel(context.Background())
	return &ImportQueue{
		executor: executor,
		history:  history,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Enqueue appends req to the backlog and returns its completion handle.
func (q *ImportQueue) Enqueue(req domain.ImportRequest) *domain.Completion {
	completion := domain.NewCompletion()

	if req.IsBlank() {
		now := time.Now()
		completion.Settle(domain.ImportResult{
			Outcome:   domain.OutcomeSuccess,
			Message:   "Nothing to import",
			StartedAt: now,
			EndedAt:   now,
		})
		return completion
	}
	if req.Mode == "" {
		req.Mode = domain.ImportModeNew
	}
	if req.Origin == "" {
		req.Origin = domain.OriginManual
	}
	req.Path = strings.TrimSpace(req.Path)

	item := &queuedImport{req: req, completion: completion}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.reject(item, domain.ErrQueueClosed)
		return completion
	}
	if item.req.TaskID == "" {
		item.req.TaskID = q.executor.newTaskID()
	}
	q.backlog = append(q.backlog, item)
	q.wg.Add(1)
	q.mu.Unlock()

	logger.Debug("import queued", "task", item.req.TaskID, "path", req.Path, "mode", req.Mode, "origin", req.Origin)

	go func() {
		defer q.wg.Done()
		q.runNext()
	}()
	return completion
}

// runNext dispatches backlog items until the queue is empty, busy or an
// import parks at the confirmation gate.
func (q *ImportQueue) runNext() {
	for {
		item, ok := q.claim()
		if !ok {
			return
		}

		state, res := q.executor.Run(q.ctx, item.req)
		if res == nil {
			q.park(item, state)
			return
		}
		q.finish(item, *res)
	}
}

func (q *ImportQueue) claim() (*queuedImport, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.busy || q.closed || len(q.backlog) == 0 {
		return nil, false
	}
	item := q.backlog[0]
	q.backlog[0] = nil
	q.backlog = q.backlog[1:]
	q.busy = true
	q.current = item
	return item, true
}

func (q *ImportQueue) park(item *queuedImport, state *domain.PipelineState) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.finish(item, q.executor.Abort(state, shutdownMessage))
		return
	}
	q.gate.park(&parkedImport{item: item, state: state, parkedAt: time.Now()})
	q.mu.Unlock()

	logger.Info("import awaiting confirmation",
		"task", state.TaskID, "path", item.req.Path, "recommended", state.Recommended)
}

// finish records and settles an import, then frees the worker slot.
func (q *ImportQueue) finish(item *queuedImport, res domain.ImportResult) {
	q.recordHistory(item.req.Origin, res)
	item.completion.Settle(res)

	q.mu.Lock()
	q.busy = false
	q.current = nil
	q.processed++
	q.mu.Unlock()
}

// Confirm resumes the parked import and saves it to dir.
func (q *ImportQueue) Confirm(_ context.Context, taskID, dir string) error {
	dir = strings.TrimSpace(dir)
	p, err := q.gate.take(taskID, func(p *parkedImport) error {
		if dir == "" {
			return domain.ErrNoDirectorySelected
		}
		if p.state.StagedRecordID == "" {
			return domain.ErrNoStagedRecord
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("import confirmed", "task", p.state.TaskID, "directory", dir)

	if !q.spawn(func() {
		q.finish(p.item, q.executor.Resume(q.ctx, p.state, dir))
		q.runNext()
	}) {
		q.finish(p.item, q.executor.Abort(p.state, shutdownMessage))
		return domain.ErrQueueClosed
	}
	return nil
}

// Cancel aborts the parked import. The completion resolves without error.
func (q *ImportQueue) Cancel(_ context.Context, taskID string) error {
	p, err := q.gate.take(taskID, nil)
	if err != nil {
		return err
	}

	q.finish(p.item, q.executor.Abort(p.state, cancelledMessage))
	q.spawn(q.runNext)
	return nil
}

// Reselect lists the full workspace folder tree for the parked import.
func (q *ImportQueue) Reselect(ctx context.Context, taskID string) ([]string, error) {
	p, err := q.gate.peek(taskID)
	if err != nil {
		return nil, err
	}
	return q.executor.Reselect(ctx, p.state)
}

// Pending returns the parked import, if any.
func (q *ImportQueue) Pending() (*domain.PendingConfirmation, bool) {
	return q.gate.snapshot()
}

// Status returns a snapshot of the queue.
func (q *ImportQueue) Status() driving.QueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	status := driving.QueueStatus{
		Busy:                 q.busy,
		Queued:               len(q.backlog),
		AwaitingConfirmation: q.gate.occupied(),
		Processed:            q.processed,
	}
	if q.current != nil {
		status.CurrentPath = q.current.req.Path
	}
	return status
}

// Close stops dispatching. Queued imports are rejected with
// domain.ErrQueueClosed and a parked import is cancelled.
// It waits for an in-flight import to reach a stage boundary.
func (q *ImportQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	backlog := q.backlog
	q.backlog = nil
	q.mu.Unlock()

	q.cancel()

	for _, item := range backlog {
		q.reject(item, domain.ErrQueueClosed)
	}
	if p, err := q.gate.take("", nil); err == nil {
		q.finish(p.item, q.executor.Abort(p.state, shutdownMessage))
	}

	q.wg.Wait()
	return nil
}

// spawn runs fn on a tracked goroutine unless the queue is closed.
func (q *ImportQueue) spawn(fn func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		fn()
	}()
	return true
}

// reject settles an import that never started.
func (q *ImportQueue) reject(item *queuedImport, err error) {
	now := time.Now()
	item.completion.Settle(domain.ImportResult{
		Path:      item.req.Path,
		Outcome:   domain.OutcomeError,
		Message:   "Import queue closed",
		Err:       err,
		StartedAt: now,
		EndedAt:   now,
	})
}

func (q *ImportQueue) recordHistory(origin domain.ImportOrigin, res domain.ImportResult) {
	if q.history == nil {
		return
	}
	ctx := context.WithoutCancel(q.ctx)
	entry := domain.HistoryEntryFromResult(origin, res)
	if err := q.history.RecordImport(ctx, &entry); err != nil {
		logger.Warn("failed to record import history", "task", res.TaskID, "error", err)
		return
	}
	if err := q.history.PruneImports(ctx, HistoryLimit); err != nil {
		logger.Warn("failed to prune import history", "error", err)
	}
}
