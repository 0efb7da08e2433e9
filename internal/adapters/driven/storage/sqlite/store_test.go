package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

// ==================== Store Creation Tests ====================

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "filer.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)

	var version int
	var dirty bool
	require.NoError(t, store.db.QueryRow("SELECT version, dirty FROM schema_migrations").Scan(&version, &dirty))
	assert.Equal(t, 3, version)
	assert.False(t, dirty)
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.RecordStore().SaveRecord(context.Background(), &domain.FileRecord{ID: "r1", Status: domain.RecordStaged}))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	record, err := second.RecordStore().GetRecord(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", record.ID)
}

// ==================== Record Store Tests ====================

func TestRecordStore_SaveAndGet(t *testing.T) {
	store := setupTestStore(t).RecordStore()
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	record := &domain.FileRecord{
		ID:         "r1",
		SourcePath: "/downloads/report.pdf",
		StagedPath: "/ws/.filer/staging/r1.pdf",
		FileName:   "report.pdf",
		Size:       42,
		Status:     domain.RecordStaged,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	require.NoError(t, store.SaveRecord(ctx, record))

	got, err := store.GetRecord(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", got.FileName)
	assert.Equal(t, int64(42), got.Size)
	assert.Equal(t, domain.RecordStaged, got.Status)
	assert.True(t, got.IngestedAt.IsZero())
	assert.True(t, created.Equal(got.CreatedAt))

	record.Status = domain.RecordSaved
	record.StagedPath = ""
	record.SavedPath = "/ws/docs/report.pdf"
	record.Directory = "docs"
	record.IngestedAt = created.Add(time.Minute)
	record.UpdatedAt = created.Add(time.Minute)
	require.NoError(t, store.SaveRecord(ctx, record))

	got, err = store.GetRecord(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.RecordSaved, got.Status)
	assert.Empty(t, got.StagedPath)
	assert.Equal(t, "docs", got.Directory)
	assert.True(t, created.Add(time.Minute).Equal(got.IngestedAt))
}

func TestRecordStore_GetMissing(t *testing.T) {
	store := setupTestStore(t).RecordStore()

	_, err := store.GetRecord(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordStore_ListAndDelete(t *testing.T) {
	store := setupTestStore(t).RecordStore()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveRecord(ctx, &domain.FileRecord{ID: "old", Status: domain.RecordSaved, UpdatedAt: base}))
	require.NoError(t, store.SaveRecord(ctx, &domain.FileRecord{ID: "new", Status: domain.RecordSaved, UpdatedAt: base.Add(2 * time.Hour)}))
	require.NoError(t, store.SaveRecord(ctx, &domain.FileRecord{ID: "staged", Status: domain.RecordStaged, UpdatedAt: base.Add(time.Hour)}))

	all, err := store.ListRecords(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"new", "staged", "old"}, []string{all[0].ID, all[1].ID, all[2].ID})

	saved, err := store.ListRecords(ctx, domain.RecordSaved, 1)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "new", saved[0].ID)

	require.NoError(t, store.DeleteRecord(ctx, "new"))
	_, err = store.GetRecord(ctx, "new")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ==================== Document Store Tests ====================

func TestDocumentStore_DocumentsAndChunks(t *testing.T) {
	store := setupTestStore(t).DocumentStore()
	ctx := context.Background()

	doc := &domain.Document{
		ID:       "d1",
		RecordID: "r1",
		URI:      "/ws/docs/notes.md",
		Title:    "notes.md",
		Content:  "hello world",
		Metadata: map[string]any{"mime_type": "text/markdown"},
	}
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.RecordID)
	assert.Equal(t, "text/markdown", got.Metadata["mime_type"])

	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "c2", DocumentID: "d1", Content: "world", Position: 1},
		{ID: "c1", DocumentID: "d1", Content: "hello", Position: 0, Embedding: []float32{0.5, -1}},
	}))

	chunks, err := store.GetChunks(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "c1", chunks[0].ID)
	assert.Equal(t, []float32{0.5, -1}, chunks[0].Embedding)
	assert.Nil(t, chunks[1].Embedding)

	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
		{ID: "c3", DocumentID: "d1", Content: "replaced", Position: 0},
	}))
	chunks, err = store.GetChunks(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, chunks, 1, "saving chunks replaces the document's previous chunks")

	chunk, err := store.GetChunk(ctx, "c3")
	require.NoError(t, err)
	assert.Equal(t, "replaced", chunk.Content)

	_, err = store.GetChunk(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_DeleteCascades(t *testing.T) {
	store := setupTestStore(t).DocumentStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "d1", Title: "b"}))
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{ID: "d2", Title: "a"}))
	require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{{ID: "c1", DocumentID: "d1", Content: "x"}}))

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "d2", docs[0].ID)

	require.NoError(t, store.DeleteDocument(ctx, "d1"))
	_, err = store.GetDocument(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.GetChunk(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ==================== Vector Index Tests ====================

func TestVectorIndex_Search(t *testing.T) {
	index := setupTestStore(t).VectorIndex()
	ctx := context.Background()

	require.NoError(t, index.Add(ctx, "x", []float32{1, 0}))
	require.NoError(t, index.Add(ctx, "y", []float32{0, 1}))
	require.NoError(t, index.Add(ctx, "xy", []float32{1, 1}))
	require.NoError(t, index.Add(ctx, "3d", []float32{1, 0, 0}))

	hits, err := index.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "x", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
	assert.Equal(t, "xy", hits[1].ChunkID)

	require.NoError(t, index.Add(ctx, "x", []float32{-1, 0}))
	require.NoError(t, index.Delete(ctx, "xy"))
	hits, err = index.Search(ctx, []float32{1, 0}, 0)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "y", hits[0].ChunkID)

	assert.ErrorIs(t, index.Add(ctx, "empty", nil), domain.ErrInvalidInput)
	assert.NoError(t, index.Close())
}

// ==================== History Store Tests ====================

func TestHistoryStore_RecordListPrune(t *testing.T) {
	store := setupTestStore(t).HistoryStore()
	ctx := context.Background()
	started := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for _, task := range []string{"t1", "t2", "t3"} {
		entry := &domain.ImportHistoryEntry{
			TaskID:    task,
			Path:      "/in/" + task,
			Origin:    domain.OriginWatch,
			Outcome:   domain.OutcomeSuccess,
			StartedAt: started,
			EndedAt:   started.Add(time.Second),
		}
		require.NoError(t, store.RecordImport(ctx, entry))
		assert.NotZero(t, entry.ID)
	}
	require.NoError(t, store.RecordImport(ctx, &domain.ImportHistoryEntry{TaskID: "t4", Outcome: domain.OutcomeError, Error: "boom"}))

	entries, err := store.ListImports(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "t4", entries[0].TaskID)
	assert.Equal(t, "boom", entries[0].Error)
	assert.True(t, entries[0].StartedAt.IsZero())
	assert.Equal(t, domain.OriginWatch, entries[1].Origin)
	assert.Equal(t, time.Second, entries[1].Duration())

	require.NoError(t, store.PruneImports(ctx, 2))
	entries, err = store.ListImports(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "t3", entries[1].TaskID)
}
