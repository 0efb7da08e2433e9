package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

func TestRecordStore_CRUD(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	record := &domain.FileRecord{ID: "r1", FileName: "a.pdf", Status: domain.RecordStaged}
	require.NoError(t, store.SaveRecord(ctx, record))

	got, err := store.GetRecord(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", got.FileName)

	got.Status = domain.RecordSaved
	stored, _ := store.GetRecord(ctx, "r1")
	assert.Equal(t, domain.RecordStaged, stored.Status, "returned records are copies")

	require.NoError(t, store.DeleteRecord(ctx, "r1"))
	_, err = store.GetRecord(ctx, "r1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordStore_ListRecords(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.SaveRecord(ctx, &domain.FileRecord{ID: "old", Status: domain.RecordSaved, UpdatedAt: now.Add(-time.Hour)}))
	require.NoError(t, store.SaveRecord(ctx, &domain.FileRecord{ID: "new", Status: domain.RecordSaved, UpdatedAt: now}))
	require.NoError(t, store.SaveRecord(ctx, &domain.FileRecord{ID: "staged", Status: domain.RecordStaged, UpdatedAt: now.Add(-time.Minute)}))

	all, err := store.ListRecords(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "new", all[0].ID)
	assert.Equal(t, "staged", all[1].ID)

	saved, err := store.ListRecords(ctx, domain.RecordSaved, 1)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "new", saved[0].ID)
}

func TestHistoryStore(t *testing.T) {
	store := NewHistoryStore()
	ctx := context.Background()

	for _, task := range []string{"t1", "t2", "t3"} {
		entry := &domain.ImportHistoryEntry{TaskID: task, Outcome: domain.OutcomeSuccess}
		require.NoError(t, store.RecordImport(ctx, entry))
		assert.NotZero(t, entry.ID)
	}

	entries, err := store.ListImports(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "t3", entries[0].TaskID)
	assert.Equal(t, "t2", entries[1].TaskID)

	require.NoError(t, store.PruneImports(ctx, 1))
	entries, err = store.ListImports(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "t3", entries[0].TaskID)
}

func TestVectorIndex_Search(t *testing.T) {
	index := NewVectorIndex()
	ctx := context.Background()

	require.NoError(t, index.Add(ctx, "x", []float32{1, 0}))
	require.NoError(t, index.Add(ctx, "y", []float32{0, 1}))
	require.NoError(t, index.Add(ctx, "xy", []float32{1, 1}))
	require.NoError(t, index.Add(ctx, "wrong-dims", []float32{1, 0, 0}))

	hits, err := index.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "x", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
	assert.Equal(t, "xy", hits[1].ChunkID)

	require.NoError(t, index.Delete(ctx, "x"))
	assert.Equal(t, 3, index.Len())
	assert.NoError(t, index.Close())
}
