package cli

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driving"
	"github.com/custodia-labs/filer-cli/internal/core/services"
)

// mockSettings is an in-memory driving.SettingsService.
type mockSettings struct {
	settings domain.AppSettings
}

func newMockSettings() *mockSettings {
	return &mockSettings{settings: domain.DefaultAppSettings()}
}

func (m *mockSettings) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettings) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettings) SetWorkspaceRoot(root string) error {
	m.settings.Workspace.Root = root
	return nil
}

func (m *mockSettings) SetAutoClassify(enabled bool) error {
	m.settings.Workspace.AutoClassify = enabled
	return nil
}

func (m *mockSettings) SetAutoIngest(enabled bool) error {
	m.settings.Workspace.AutoIngest = enabled
	return nil
}

func (m *mockSettings) SetLocale(locale string) error {
	if locale == "" {
		return domain.ErrInvalidInput
	}
	m.settings.Workspace.Locale = locale
	return nil
}

func (m *mockSettings) SetEmbeddingProvider(p domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding = domain.EmbeddingSettings{Provider: p, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettings) SetLLMProvider(p domain.AIProvider, model, apiKey string) error {
	m.settings.LLM = domain.LLMSettings{Provider: p, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettings) AddWatchDir(dir string) error {
	m.settings.Watch.Dirs = append(m.settings.Watch.Dirs, dir)
	return nil
}

func (m *mockSettings) RemoveWatchDir(dir string) error {
	for i, d := range m.settings.Watch.Dirs {
		if d == dir {
			m.settings.Watch.Dirs = append(m.settings.Watch.Dirs[:i], m.settings.Watch.Dirs[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockSettings) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettings) ValidateEmbeddingConfig() error  { return nil }
func (m *mockSettings) ValidateLLMConfig() error        { return nil }

// mockQueue replays a fixed event script on a real event bus.
// With park set, Enqueue stops at the confirmation gate and Confirm or
// Cancel settles the import. With fail set, staging fails with that error.
type mockQueue struct {
	bus  *services.EventBus
	park bool
	fail error

	mu         sync.Mutex
	taskID     string
	requests   []domain.ImportRequest
	confirmed  []string
	cancelled  int
	pending    *domain.PendingConfirmation
	completion *domain.Completion
}

const mockTaskID = "task-1"

func (q *mockQueue) Enqueue(req domain.ImportRequest) *domain.Completion {
	q.mu.Lock()
	q.requests = append(q.requests, req)
	q.taskID = req.TaskID
	if q.taskID == "" {
		q.taskID = mockTaskID
	}
	taskID := q.taskID
	c := domain.NewCompletion()
	q.completion = c
	q.mu.Unlock()

	q.bus.Publish(domain.StartEvent(taskID, req.Path))
	if q.fail != nil {
		q.bus.Publish(domain.ErrorEvent(taskID, q.fail, "Failed to stage file"))
		c.Settle(domain.ImportResult{TaskID: taskID, Outcome: domain.OutcomeError, Err: q.fail, Message: "Failed to stage file"})
		return c
	}
	q.bus.Publish(domain.ProgressEvent(taskID, domain.StageStageFile, domain.StateSuccess, "rec-1"))
	q.bus.Publish(domain.ProgressEvent(taskID, domain.StageRecommendDirectory, domain.StateSuccess, "finance"))

	if q.park {
		q.mu.Lock()
		q.pending = &domain.PendingConfirmation{
			TaskID:       taskID,
			Path:         req.Path,
			RecordID:     "rec-1",
			Recommended:  "finance",
			Alternatives: []string{"archive"},
			Directories:  []string{"archive", "finance"},
		}
		q.mu.Unlock()
		q.bus.Publish(domain.ProgressEvent(taskID, domain.StageAwaitConfirmation, domain.StateStart, ""))
		return c
	}

	q.settle("finance")
	return c
}

func (q *mockQueue) settle(dir string) {
	msg := "Saved to " + dir
	q.bus.Publish(domain.SuccessEvent(q.taskID, msg))
	q.completion.Settle(domain.ImportResult{
		TaskID:    q.taskID,
		Outcome:   domain.OutcomeSuccess,
		RecordID:  "rec-1",
		SavedPath: "/ws/" + dir + "/file.txt",
		Directory: dir,
		Message:   msg,
	})
}

func (q *mockQueue) Confirm(_ context.Context, _ string, dir string) error {
	q.mu.Lock()
	if q.pending == nil {
		q.mu.Unlock()
		return domain.ErrNothingAwaitingConfirmation
	}
	q.pending = nil
	q.confirmed = append(q.confirmed, dir)
	q.mu.Unlock()

	q.settle(dir)
	return nil
}

func (q *mockQueue) Cancel(_ context.Context, _ string) error {
	q.mu.Lock()
	if q.pending == nil {
		q.mu.Unlock()
		return domain.ErrNothingAwaitingConfirmation
	}
	q.pending = nil
	q.cancelled++
	q.mu.Unlock()

	q.bus.Publish(domain.CancelledEvent(q.taskID, "Import cancelled"))
	q.completion.Settle(domain.ImportResult{TaskID: q.taskID, Outcome: domain.OutcomeCancelled})
	return nil
}

func (q *mockQueue) Reselect(_ context.Context, _ string) ([]string, error) {
	return []string{"archive", "finance", "finance/2024"}, nil
}

func (q *mockQueue) Pending() (*domain.PendingConfirmation, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending, q.pending != nil
}

func (q *mockQueue) Status() driving.QueueStatus { return driving.QueueStatus{} }
func (q *mockQueue) Close() error                { return nil }

// mockSearch returns a fixed hit.
type mockSearch struct {
	err error
}

func (m *mockSearch) Search(_ context.Context, _ string, k int) ([]domain.SearchHit, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []domain.SearchHit{{
		Chunk:      domain.Chunk{ID: "c1", DocumentID: "d1", Content: "Invoice total due 42 EUR"},
		Document:   &domain.Document{ID: "d1", Title: "invoice.pdf", URI: "/ws/finance/invoice.pdf"},
		Similarity: 0.87,
	}}[:min(k, 1)], nil
}

type mockHistory struct {
	entries []domain.ImportHistoryEntry
}

func (m *mockHistory) Recent(_ context.Context, _ int) ([]domain.ImportHistoryEntry, error) {
	return m.entries, nil
}

type mockRecords struct {
	records []domain.FileRecord
}

func (m *mockRecords) List(_ context.Context, status domain.RecordStatus, _ int) ([]domain.FileRecord, error) {
	var out []domain.FileRecord
	for _, r := range m.records {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRecords) Get(_ context.Context, id string) (*domain.FileRecord, error) {
	for i := range m.records {
		if m.records[i].ID == id {
			return &m.records[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockRecords) RetryRequest(ctx context.Context, id string) (domain.ImportRequest, error) {
	r, err := m.Get(ctx, id)
	if err != nil {
		return domain.ImportRequest{}, err
	}
	if r.Status != domain.RecordStaged {
		return domain.ImportRequest{}, errors.New("only staged records can be retried")
	}
	return domain.ImportRequest{
		Path:             r.StagedPath,
		Mode:             domain.ImportModeRetry,
		ExistingRecordID: r.ID,
		Origin:           domain.OriginManual,
	}, nil
}

type mockIngestor struct {
	ids []string
}

func (m *mockIngestor) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.ids = append(m.ids, req.RecordID)
	return &domain.IngestResult{DocumentID: "d1", Chunks: 3, Embedded: true}, nil
}

// testServices exposes the mocks installed by setupTestServices.
var testServices struct {
	settings *mockSettings
	queue    *mockQueue
	records  *mockRecords
	history  *mockHistory
	search   *mockSearch
	ingestor *mockIngestor
}

// setupTestServices installs mock services and returns a function that
// restores the previous ones and resets command flags.
func setupTestServices() func() {
	oldSettings, oldQueue, oldEvents := settingsService, importQueue, eventSubscriber
	oldHistory, oldRecords, oldSearch, oldIngestor := historyService, recordService, searchService, ingestor

	bus := services.NewEventBus()
	testServices.settings = newMockSettings()
	testServices.queue = &mockQueue{bus: bus}
	testServices.records = &mockRecords{records: []domain.FileRecord{
		{ID: "rec-saved", FileName: "invoice.pdf", Status: domain.RecordSaved,
			SourcePath: "/in/invoice.pdf", SavedPath: "/ws/finance/invoice.pdf", Directory: "finance", Size: 1024},
		{ID: "rec-staged", FileName: "scan.png", Status: domain.RecordStaged,
			SourcePath: "/in/scan.png", StagedPath: "/ws/.filer/staging/rec-staged.png"},
	}}
	testServices.history = &mockHistory{}
	testServices.search = &mockSearch{}
	testServices.ingestor = &mockIngestor{}

	SetServices(Services{
		Settings: testServices.settings,
		Imports:  testServices.queue,
		Events:   bus,
		History:  testServices.history,
		Records:  testServices.records,
		Search:   testServices.search,
		Ingestor: testServices.ingestor,
	})

	return func() {
		settingsService, importQueue, eventSubscriber = oldSettings, oldQueue, oldEvents
		historyService, recordService, searchService, ingestor = oldHistory, oldRecords, oldSearch, oldIngestor

		importRetry, importYes, importDir = "", false, ""
		searchLimit, searchJSON = 10, false
		recordsStatus, recordsLimit = "", 50
		historyLimit = 20
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}
}
