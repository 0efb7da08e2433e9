package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

const waitTimeout = 2 * time.Second

type fakeHistory struct {
	mu      sync.Mutex
	entries []domain.ImportHistoryEntry
	prunes  []int
}

func (h *fakeHistory) RecordImport(_ context.Context, entry *domain.ImportHistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, *entry)
	return nil
}

func (h *fakeHistory) ListImports(_ context.Context, _ int) ([]domain.ImportHistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.ImportHistoryEntry(nil), h.entries...), nil
}

func (h *fakeHistory) PruneImports(_ context.Context, keep int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.prunes = append(h.prunes, keep)
	return nil
}

func newTestQueue(t *testing.T, f *importFixture) *ImportQueue {
	t.Helper()
	q := NewImportQueue(f.executor, nil)
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func waitPending(t *testing.T, q *ImportQueue) *domain.PendingConfirmation {
	t.Helper()
	var pending *domain.PendingConfirmation
	require.Eventually(t, func() bool {
		p, ok := q.Pending()
		pending = p
		return ok
	}, waitTimeout, 5*time.Millisecond)
	return pending
}

func waitResult(t *testing.T, c *domain.Completion) (domain.ImportResult, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	select {
	case <-c.Done():
	case <-ctx.Done():
		t.Fatal("import did not settle")
	}
	return c.Wait(ctx)
}

func TestImportQueue_ConfirmScenario(t *testing.T) {
	f := newImportFixture(t)
	q := newTestQueue(t, f)
	src := f.outsideFile(t, "report.pdf")

	completion := q.Enqueue(domain.ImportRequest{Path: src})
	pending := waitPending(t, q)

	assert.False(t, completion.Settled())
	assert.Equal(t, src, pending.Path)
	assert.Equal(t, "docs/reports", pending.Recommended)
	assert.Equal(t, []string{"docs/misc"}, pending.Alternatives)
	assert.Equal(t, "rec-1", pending.RecordID)
	assert.Equal(t, []string{
		"start",
		"progress(stage-file,start)",
		"progress(stage-file,success)",
		"progress(list-directory,start)",
		"progress(list-directory,success)",
		"progress(recommend-directory,start)",
		"progress(recommend-directory,success)",
		"progress(await-confirmation,start)",
	}, f.events.labels())

	f.events.reset()
	require.NoError(t, q.Confirm(context.Background(), "", "docs/reports"))

	res, err := waitResult(t, completion)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSuccess, res.Outcome)
	assert.Equal(t, pending.TaskID, res.TaskID)
	assert.Equal(t, []string{
		"progress(save-file,start)",
		"progress(save-file,success)",
		"success",
	}, f.events.labels())
}

func TestImportQueue_DirectSaveScenario(t *testing.T) {
	f := newImportFixture(t)
	q := newTestQueue(t, f)
	src := f.insideFile(t, "notes/todo.md")

	res, err := waitResult(t, q.Enqueue(domain.ImportRequest{Path: src}))

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSuccess, res.Outcome)
	assert.Equal(t, []string{
		"start",
		"progress(save-file,start)",
		"progress(save-file,success)",
		"success",
	}, f.events.labels())
	_, parked := q.Pending()
	assert.False(t, parked)
}

func TestImportQueue_BlankPathIsNoOp(t *testing.T) {
	f := newImportFixture(t)
	q := newTestQueue(t, f)

	for _, path := range []string{"", "   "} {
		completion := q.Enqueue(domain.ImportRequest{Path: path})
		require.True(t, completion.Settled())

		res, err := completion.Wait(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, domain.OutcomeSuccess, res.Outcome)
	}
	assert.Empty(t, f.events.all())
	assert.Zero(t, q.Status().Processed)
}

func TestImportQueue_SerialFIFO(t *testing.T) {
	f := newImportFixture(t)
	f.setConfig(func(c *domain.WorkspaceConfig) { c.AutoClassify = true })
	f.classifier.delay = 10 * time.Millisecond
	q := newTestQueue(t, f)

	var paths []string
	var completions []*domain.Completion
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf"} {
		path := f.outsideFile(t, name)
		paths = append(paths, path)
		completions = append(completions, q.Enqueue(domain.ImportRequest{Path: path}))
	}

	for _, c := range completions {
		res, err := waitResult(t, c)
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeSuccess, res.Outcome)
	}

	assert.Equal(t, int32(1), f.classifier.maxInFlight.Load())

	var started []string
	current := ""
	for _, e := range f.events.all() {
		switch {
		case e.Kind == domain.EventStart:
			assert.Empty(t, current, "task started while another was in flight")
			current = e.TaskID
			started = append(started, e.Path)
		case e.Kind.IsTerminal():
			assert.Equal(t, current, e.TaskID)
			current = ""
		default:
			assert.Equal(t, current, e.TaskID, "events interleaved across tasks")
		}
	}
	assert.Equal(t, paths, started)

	require.Eventually(t, func() bool { return q.Status().Processed == 5 }, waitTimeout, 5*time.Millisecond)
	assert.False(t, q.Status().Busy)
}

func TestImportQueue_FailureDoesNotStopQueue(t *testing.T) {
	f := newImportFixture(t)
	f.setConfig(func(c *domain.WorkspaceConfig) { c.AutoClassify = true })
	q := newTestQueue(t, f)

	failing := q.Enqueue(domain.ImportRequest{Path: "/elsewhere/x.pdf", Mode: domain.ImportModeRetry})
	next := q.Enqueue(domain.ImportRequest{Path: f.outsideFile(t, "ok.pdf")})

	res, err := waitResult(t, failing)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, domain.OutcomeError, res.Outcome)

	res, err = waitResult(t, next)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeSuccess, res.Outcome)
}

func TestImportQueue_PendingImportsWaitForGate(t *testing.T) {
	f := newImportFixture(t)
	q := newTestQueue(t, f)

	first := q.Enqueue(domain.ImportRequest{Path: f.outsideFile(t, "first.pdf")})
	second := q.Enqueue(domain.ImportRequest{Path: f.outsideFile(t, "second.pdf")})

	pending := waitPending(t, q)
	assert.Contains(t, pending.Path, "first.pdf")

	status := q.Status()
	assert.True(t, status.Busy)
	assert.True(t, status.AwaitingConfirmation)
	assert.Equal(t, 1, status.Queued)
	assert.Contains(t, status.CurrentPath, "first.pdf")
	assert.False(t, second.Settled())

	require.NoError(t, q.Confirm(context.Background(), pending.TaskID, "docs/misc"))
	_, err := waitResult(t, first)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		p, ok := q.Pending()
		return ok && p.TaskID != pending.TaskID
	}, waitTimeout, 5*time.Millisecond)

	next, _ := q.Pending()
	assert.Contains(t, next.Path, "second.pdf")
	require.NoError(t, q.Cancel(context.Background(), next.TaskID))

	res, err := waitResult(t, second)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCancelled, res.Outcome)
}

func TestImportQueue_Cancel(t *testing.T) {
	f := newImportFixture(t)
	q := newTestQueue(t, f)

	completion := q.Enqueue(domain.ImportRequest{Path: f.outsideFile(t, "report.pdf")})
	waitPending(t, q)
	f.events.reset()

	require.NoError(t, q.Cancel(context.Background(), ""))

	res, err := waitResult(t, completion)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCancelled, res.Outcome)
	assert.Equal(t, cancelledMessage, res.Message)
	assert.Equal(t, []string{"cancelled"}, f.events.labels())
	assert.Empty(t, f.storage.saveRequests())
}

func TestImportQueue_ConfirmationIdempotence(t *testing.T) {
	f := newImportFixture(t)
	q := newTestQueue(t, f)

	completion := q.Enqueue(domain.ImportRequest{Path: f.outsideFile(t, "report.pdf")})
	pending := waitPending(t, q)

	require.NoError(t, q.Confirm(context.Background(), pending.TaskID, "docs/reports"))
	_, err := waitResult(t, completion)
	require.NoError(t, err)

	assert.ErrorIs(t, q.Cancel(context.Background(), pending.TaskID), domain.ErrNothingAwaitingConfirmation)
	assert.ErrorIs(t, q.Confirm(context.Background(), pending.TaskID, "docs/misc"), domain.ErrNothingAwaitingConfirmation)

	terminals := 0
	for _, e := range f.events.all() {
		if e.Kind.IsTerminal() {
			terminals++
		}
	}
	assert.Equal(t, 1, terminals)
	assert.Len(t, f.storage.saveRequests(), 1)
}

func TestImportQueue_StaleAndInvalidConfirmations(t *testing.T) {
	f := newImportFixture(t)
	q := newTestQueue(t, f)

	assert.ErrorIs(t, q.Confirm(context.Background(), "", "docs"), domain.ErrNothingAwaitingConfirmation)
	assert.ErrorIs(t, q.Cancel(context.Background(), ""), domain.ErrNothingAwaitingConfirmation)
	_, err := q.Reselect(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrNothingAwaitingConfirmation)

	completion := q.Enqueue(domain.ImportRequest{Path: f.outsideFile(t, "report.pdf")})
	pending := waitPending(t, q)

	assert.ErrorIs(t, q.Confirm(context.Background(), "other-task", "docs"), domain.ErrStaleConfirmation)
	assert.ErrorIs(t, q.Cancel(context.Background(), "other-task"), domain.ErrStaleConfirmation)
	assert.ErrorIs(t, q.Confirm(context.Background(), pending.TaskID, "  "), domain.ErrNoDirectorySelected)

	_, stillParked := q.Pending()
	assert.True(t, stillParked)
	assert.False(t, completion.Settled())
	assert.Empty(t, f.storage.saveRequests())
}

func TestImportQueue_ConfirmWithoutStagedRecord(t *testing.T) {
	f := newImportFixture(t)
	f.storage.noRecord = true
	q := newTestQueue(t, f)

	completion := q.Enqueue(domain.ImportRequest{Path: f.outsideFile(t, "report.pdf")})
	pending := waitPending(t, q)
	assert.Empty(t, pending.RecordID)

	assert.ErrorIs(t, q.Confirm(context.Background(), pending.TaskID, "docs"), domain.ErrNoStagedRecord)
	_, stillParked := q.Pending()
	assert.True(t, stillParked)
	assert.Empty(t, f.storage.saveRequests())

	require.NoError(t, q.Cancel(context.Background(), pending.TaskID))
	res, err := waitResult(t, completion)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCancelled, res.Outcome)
}

func TestImportQueue_TaskIDs(t *testing.T) {
	f := newImportFixture(t)
	q := newTestQueue(t, f)

	completion := q.Enqueue(domain.ImportRequest{Path: f.outsideFile(t, "a.pdf"), TaskID: "mine"})
	pending := waitPending(t, q)
	assert.Equal(t, "mine", pending.TaskID)
	require.NoError(t, q.Cancel(context.Background(), "mine"))
	res, err := waitResult(t, completion)
	require.NoError(t, err)
	assert.Equal(t, "mine", res.TaskID)

	res, err = waitResult(t, q.Enqueue(domain.ImportRequest{Path: f.insideFile(t, "notes/b.md")}))
	require.NoError(t, err)
	assert.Equal(t, "task-1", res.TaskID, "queue assigns an id when none is given")
}

func TestImportQueue_Reselect(t *testing.T) {
	f := newImportFixture(t)
	q := newTestQueue(t, f)

	q.Enqueue(domain.ImportRequest{Path: f.outsideFile(t, "report.pdf")})
	pending := waitPending(t, q)
	f.events.reset()

	folders, err := q.Reselect(context.Background(), pending.TaskID)

	require.NoError(t, err)
	assert.Equal(t, []string{"docs", "docs/misc", "docs/reports", "notes"}, folders)
	assert.Equal(t, []string{"progress(await-confirmation,reselect)"}, f.events.labels())

	_, stillParked := q.Pending()
	assert.True(t, stillParked)
}

func TestImportQueue_Close(t *testing.T) {
	f := newImportFixture(t)
	q := NewImportQueue(f.executor, nil)

	parked := q.Enqueue(domain.ImportRequest{Path: f.outsideFile(t, "first.pdf")})
	queued := q.Enqueue(domain.ImportRequest{Path: f.outsideFile(t, "second.pdf")})
	waitPending(t, q)

	require.NoError(t, q.Close())
	require.NoError(t, q.Close())

	res, err := waitResult(t, parked)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCancelled, res.Outcome)
	assert.Equal(t, shutdownMessage, res.Message)

	_, err = waitResult(t, queued)
	assert.ErrorIs(t, err, domain.ErrQueueClosed)

	_, err = waitResult(t, q.Enqueue(domain.ImportRequest{Path: "/x/y.pdf"}))
	assert.ErrorIs(t, err, domain.ErrQueueClosed)
}

func TestImportQueue_RecordsHistory(t *testing.T) {
	f := newImportFixture(t)
	f.setConfig(func(c *domain.WorkspaceConfig) { c.AutoClassify = true })
	history := &fakeHistory{}
	q := NewImportQueue(f.executor, history)
	t.Cleanup(func() { _ = q.Close() })

	res, err := waitResult(t, q.Enqueue(domain.ImportRequest{
		Path:   f.outsideFile(t, "report.pdf"),
		Origin: domain.OriginWatch,
	}))
	require.NoError(t, err)

	entries, err := history.ListImports(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, res.TaskID, entries[0].TaskID)
	assert.Equal(t, domain.OriginWatch, entries[0].Origin)
	assert.Equal(t, domain.OutcomeSuccess, entries[0].Outcome)
	assert.Equal(t, res.SavedPath, entries[0].SavedPath)
	assert.Equal(t, []int{HistoryLimit}, history.prunes)
}
