package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

type fakeWorkspace struct {
	mu  sync.Mutex
	cfg domain.WorkspaceConfig
	err error
}

func (f *fakeWorkspace) WorkspaceConfig(_ context.Context) (domain.WorkspaceConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg, f.err
}

type fakeStorage struct {
	mu       sync.Mutex
	root     string
	stageErr error
	saveErr  error
	readErr  error
	noRecord bool
	data     []byte
	staged   []string
	saves    []domain.SaveRequest
	reads    int
	nextID   int
}

func (f *fakeStorage) StageToTemp(_ context.Context, src string) (*domain.StagedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.staged = append(f.staged, src)
	if f.stageErr != nil {
		return nil, f.stageErr
	}
	f.nextID++
	staged := &domain.StagedFile{
		Path:     filepath.Join(f.root, ".filer", "staging", fmt.Sprintf("staged-%d%s", f.nextID, filepath.Ext(src))),
		RecordID: fmt.Sprintf("rec-%d", f.nextID),
	}
	if f.noRecord {
		staged.RecordID = ""
	}
	return staged, nil
}

func (f *fakeStorage) SaveFile(_ context.Context, req domain.SaveRequest) (*domain.SavedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, req)
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	id := req.RecordID
	if id == "" {
		id = "rec-direct"
	}
	return &domain.SavedFile{
		RecordID:  id,
		Path:      filepath.Join(f.root, filepath.FromSlash(req.TargetDir), filepath.Base(req.StagedPath)),
		Directory: req.TargetDir,
	}, nil
}

func (f *fakeStorage) ReadFile(_ context.Context, _ string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.data, nil
}

func (f *fakeStorage) stageCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.staged)
}

func (f *fakeStorage) saveRequests() []domain.SaveRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.SaveRequest(nil), f.saves...)
}

type fakeClassifier struct {
	mu          sync.Mutex
	entries     []domain.DirectoryEntry
	listErr     error
	description string
	describeErr error
	rec         *domain.Recommendation
	recErr      error
	delay       time.Duration
	lists       int
	dataURLs    []string
	requests    []domain.RecommendRequest

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeClassifier) ListDirectories(_ context.Context, _ string) ([]domain.DirectoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	return f.entries, f.listErr
}

func (f *fakeClassifier) DescribeImage(_ context.Context, dataURL, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dataURLs = append(f.dataURLs, dataURL)
	return f.description, f.describeErr
}

func (f *fakeClassifier) RecommendDirectory(_ context.Context, req domain.RecommendRequest) (*domain.Recommendation, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxInFlight.Load()
		if n <= cur || f.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.recErr != nil {
		return nil, f.recErr
	}
	if f.rec == nil {
		return nil, nil
	}
	rec := *f.rec
	return &rec, nil
}

func (f *fakeClassifier) recommendRequests() []domain.RecommendRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.RecommendRequest(nil), f.requests...)
}

type fakeIngestor struct {
	mu   sync.Mutex
	err  error
	reqs []domain.IngestRequest
}

func (f *fakeIngestor) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.IngestResult{DocumentID: req.RecordID, Chunks: 3, Embedded: true}, nil
}

func (f *fakeIngestor) requests() []domain.IngestRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.IngestRequest(nil), f.reqs...)
}

// eventRecorder collects published events as compact labels.
type eventRecorder struct {
	mu     sync.Mutex
	events []domain.StageEvent
}

func (r *eventRecorder) Publish(e domain.StageEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) all() []domain.StageEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.StageEvent(nil), r.events...)
}

func (r *eventRecorder) labels() []string {
	var out []string
	for _, e := range r.all() {
		out = append(out, eventLabel(e))
	}
	return out
}

func (r *eventRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func eventLabel(e domain.StageEvent) string {
	if e.Kind == domain.EventProgress {
		return fmt.Sprintf("progress(%s,%s)", e.Stage, e.State)
	}
	return string(e.Kind)
}

// importFixture wires a stage executor to fakes over a real temp workspace.
type importFixture struct {
	root       string
	outside    string
	workspace  *fakeWorkspace
	storage    *fakeStorage
	classifier *fakeClassifier
	ingestor   *fakeIngestor
	events     *eventRecorder
	executor   *StageExecutor
}

func newImportFixture(t *testing.T) *importFixture {
	t.Helper()

	root := t.TempDir()
	outside := t.TempDir()
	for _, dir := range []string{"docs/reports", "docs/misc", "notes"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}

	f := &importFixture{
		root:    root,
		outside: outside,
		workspace: &fakeWorkspace{cfg: domain.WorkspaceConfig{
			Root:       root,
			AutoIngest: false,
			Locale:     "en",
		}},
		storage: &fakeStorage{root: root},
		classifier: &fakeClassifier{
			entries: []domain.DirectoryEntry{
				{Name: "docs", RelativePath: "docs", Kind: domain.EntryFolder, Depth: 1},
				{Name: "misc", RelativePath: "docs/misc", Kind: domain.EntryFolder, Depth: 2},
				{Name: "reports", RelativePath: "docs/reports", Kind: domain.EntryFolder, Depth: 2},
				{Name: "notes", RelativePath: "notes", Kind: domain.EntryFolder, Depth: 1},
				{Name: "readme.md", RelativePath: "readme.md", Kind: domain.EntryFile, Depth: 1},
			},
			rec: &domain.Recommendation{
				Recommended:  "docs/reports",
				Alternatives: []string{"docs/misc"},
				Confidence:   0.9,
			},
		},
		ingestor: &fakeIngestor{},
		events:   &eventRecorder{},
	}

	taskSeq := 0
	var mu sync.Mutex
	executor, err := NewStageExecutor(StageExecutorConfig{
		Config:     f.workspace,
		Storage:    f.storage,
		Classifier: f.classifier,
		Ingestor:   f.ingestor,
		Publisher:  f.events,
		NewTaskID: func() string {
			mu.Lock()
			defer mu.Unlock()
			taskSeq++
			return fmt.Sprintf("task-%d", taskSeq)
		},
	})
	require.NoError(t, err)
	f.executor = executor
	return f
}

func (f *importFixture) setConfig(mutate func(*domain.WorkspaceConfig)) {
	f.workspace.mu.Lock()
	defer f.workspace.mu.Unlock()
	mutate(&f.workspace.cfg)
}

// outsideFile creates a source file outside the workspace.
func (f *importFixture) outsideFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(f.outside, name)
	require.NoError(t, os.WriteFile(path, []byte("content of "+name), 0o600))
	return path
}

// insideFile creates a source file inside the workspace.
func (f *importFixture) insideFile(t *testing.T, rel string) string {
	t.Helper()
	path := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o600))
	return path
}
