package mcp

import (
	"context"
	"sync"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driving"
	"github.com/custodia-labs/filer-cli/internal/core/services"
)

// mockQueue is a scripted driving.ImportQueue. Enqueue publishes script on
// bus and settles with result when set.
type mockQueue struct {
	mu sync.Mutex

	bus     *services.EventBus
	script  func(req domain.ImportRequest) []domain.StageEvent
	result  *domain.ImportResult
	pending *domain.PendingConfirmation
	status  driving.QueueStatus
	dirs    []string
	err     error

	enqueued  []domain.ImportRequest
	confirmed []string
	cancelled []string
}

func (m *mockQueue) Enqueue(req domain.ImportRequest) *domain.Completion {
	m.mu.Lock()
	m.enqueued = append(m.enqueued, req)
	m.mu.Unlock()

	c := domain.NewCompletion()
	if m.script != nil {
		for _, ev := range m.script(req) {
			m.bus.Publish(ev)
		}
	}
	if m.result != nil {
		c.Settle(*m.result)
	}
	return c
}

func (m *mockQueue) Confirm(_ context.Context, taskID, dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.confirmed = append(m.confirmed, taskID+"="+dir)
	return nil
}

func (m *mockQueue) Cancel(_ context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.cancelled = append(m.cancelled, taskID)
	return nil
}

func (m *mockQueue) Reselect(_ context.Context, _ string) ([]string, error) {
	return m.dirs, m.err
}

func (m *mockQueue) Pending() (*domain.PendingConfirmation, bool) {
	return m.pending, m.pending != nil
}

func (m *mockQueue) Status() driving.QueueStatus {
	return m.status
}

func (m *mockQueue) Close() error {
	return nil
}

// mockSearch is a mock driving.KnowledgeSearch.
type mockSearch struct {
	hits   []domain.SearchHit
	err    error
	lastK  int
	called bool
}

func (m *mockSearch) Search(_ context.Context, _ string, k int) ([]domain.SearchHit, error) {
	m.called = true
	m.lastK = k
	return m.hits, m.err
}

// mockRecords is a mock driving.RecordService.
type mockRecords struct {
	records []domain.FileRecord
	err     error
}

func (m *mockRecords) List(_ context.Context, _ domain.RecordStatus, _ int) ([]domain.FileRecord, error) {
	return m.records, m.err
}

func (m *mockRecords) Get(_ context.Context, id string) (*domain.FileRecord, error) {
	for i := range m.records {
		if m.records[i].ID == id {
			return &m.records[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockRecords) RetryRequest(_ context.Context, id string) (domain.ImportRequest, error) {
	return domain.ImportRequest{Path: "/staging/" + id, Mode: domain.ImportModeRetry, ExistingRecordID: id}, nil
}

// mockHistory is a mock driving.ImportHistory.
type mockHistory struct {
	entries []domain.ImportHistoryEntry
}

func (m *mockHistory) Recent(_ context.Context, _ int) ([]domain.ImportHistoryEntry, error) {
	return m.entries, nil
}

func newTestPorts() (*Ports, *mockQueue) {
	bus := services.NewEventBus()
	queue := &mockQueue{bus: bus}
	return &Ports{Imports: queue, Events: bus}, queue
}
