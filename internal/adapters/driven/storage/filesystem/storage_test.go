package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/filer-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

type staticWorkspace struct {
	root string
	err  error
}

func (w staticWorkspace) WorkspaceConfig(_ context.Context) (domain.WorkspaceConfig, error) {
	return domain.WorkspaceConfig{Root: w.root}, w.err
}

var fixedNow = time.Date(2024, 3, 9, 14, 5, 30, 0, time.UTC)

func newTestStorage(t *testing.T, opts Options) (*Storage, *memory.RecordStore, string) {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	records := memory.NewRecordStore()
	return New(staticWorkspace{root: root}, records, opts), records, root
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestStorage_StageToTemp(t *testing.T) {
	storage, records, root := newTestStorage(t, Options{})
	ctx := context.Background()
	src := writeFile(t, filepath.Join(t.TempDir(), "Invoice.PDF"), "pdf bytes")

	staged, err := storage.StageToTemp(ctx, src)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, ".filer", "staging"), filepath.Dir(staged.Path))
	assert.Equal(t, ".pdf", filepath.Ext(staged.Path))
	data, err := os.ReadFile(staged.Path)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(data))

	_, err = os.Stat(src)
	assert.NoError(t, err, "the original stays in place")

	record, err := records.GetRecord(ctx, staged.RecordID)
	require.NoError(t, err)
	assert.Equal(t, domain.RecordStaged, record.Status)
	assert.Equal(t, "Invoice.PDF", record.FileName)
	assert.Equal(t, src, record.SourcePath)
	assert.Equal(t, int64(9), record.Size)
}

func TestStorage_StageToTemp_Validation(t *testing.T) {
	storage, _, _ := newTestStorage(t, Options{MaxFileSize: 4})
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name     string
		path     string
		wantCode string
		wantErr  error
	}{
		{name: "missing", path: filepath.Join(dir, "nope.txt"), wantCode: domain.CodeSourceFileMissing},
		{name: "directory", path: dir, wantCode: domain.CodeInvalidFileType, wantErr: domain.ErrNotAFile},
		{name: "too large", path: writeFile(t, filepath.Join(dir, "big.txt"), "12345"), wantCode: domain.CodeFileTooLarge, wantErr: domain.ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := storage.StageToTemp(ctx, tt.path)
			require.Error(t, err)

			var svcErr *domain.ServiceError
			require.True(t, errors.As(err, &svcErr))
			assert.Equal(t, tt.wantCode, svcErr.Code)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestStorage_StageToTemp_ConfigUnavailable(t *testing.T) {
	storage := New(staticWorkspace{err: domain.ErrConfigUnavailable}, memory.NewRecordStore(), Options{})

	_, err := storage.StageToTemp(context.Background(), "/tmp/x.txt")
	assert.ErrorIs(t, err, domain.ErrConfigUnavailable)
}

func TestStorage_SaveFile_MovesStagedCopy(t *testing.T) {
	storage, records, root := newTestStorage(t, Options{})
	ctx := context.Background()
	src := writeFile(t, filepath.Join(t.TempDir(), "report.pdf"), "q3")

	staged, err := storage.StageToTemp(ctx, src)
	require.NoError(t, err)

	saved, err := storage.SaveFile(ctx, domain.SaveRequest{
		StagedPath:  staged.Path,
		TargetDir:   "docs/reports",
		RecordID:    staged.RecordID,
		Description: "quarterly report",
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "docs", "reports", "report.pdf"), saved.Path)
	assert.Equal(t, "docs/reports", saved.Directory)
	assert.Equal(t, staged.RecordID, saved.RecordID)

	_, err = os.Stat(staged.Path)
	assert.True(t, os.IsNotExist(err), "staged copy is moved")

	record, err := records.GetRecord(ctx, staged.RecordID)
	require.NoError(t, err)
	assert.Equal(t, domain.RecordSaved, record.Status)
	assert.Equal(t, saved.Path, record.SavedPath)
	assert.Empty(t, record.StagedPath)
	assert.Equal(t, "quarterly report", record.Description)
}

func TestStorage_SaveFile_SuffixesExisting(t *testing.T) {
	storage, _, root := newTestStorage(t, Options{})
	ctx := context.Background()
	writeFile(t, filepath.Join(root, "notes", "todo.txt"), "old")
	src := writeFile(t, filepath.Join(t.TempDir(), "todo.txt"), "new")

	saved, err := storage.SaveFile(ctx, domain.SaveRequest{StagedPath: src, TargetDir: "notes"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "notes", "todo_20240309_140530.txt"), saved.Path)

	_, err = os.Stat(src)
	assert.NoError(t, err, "files outside staging are copied, not moved")

	overwritten, err := storage.SaveFile(ctx, domain.SaveRequest{StagedPath: src, TargetDir: "notes", Overwrite: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "notes", "todo.txt"), overwritten.Path)
	data, _ := os.ReadFile(overwritten.Path)
	assert.Equal(t, "new", string(data))
}

func TestStorage_SaveFile_InPlace(t *testing.T) {
	storage, records, root := newTestStorage(t, Options{})
	ctx := context.Background()
	path := writeFile(t, filepath.Join(root, "notes", "todo.txt"), "x")

	saved, err := storage.SaveFile(ctx, domain.SaveRequest{StagedPath: path, TargetDir: "notes"})
	require.NoError(t, err)
	assert.Equal(t, path, saved.Path)

	entries, err := os.ReadDir(filepath.Join(root, "notes"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	record, err := records.GetRecord(ctx, saved.RecordID)
	require.NoError(t, err)
	assert.Equal(t, domain.RecordSaved, record.Status)
}

func TestStorage_SaveFile_TargetContainment(t *testing.T) {
	storage, _, root := newTestStorage(t, Options{})
	ctx := context.Background()
	src := writeFile(t, filepath.Join(t.TempDir(), "a.txt"), "a")

	saved, err := storage.SaveFile(ctx, domain.SaveRequest{StagedPath: src, TargetDir: filepath.Join(root, "abs")})
	require.NoError(t, err)
	assert.Equal(t, "abs", saved.Directory)

	saved, err = storage.SaveFile(ctx, domain.SaveRequest{StagedPath: src, TargetDir: ""})
	require.NoError(t, err)
	assert.Equal(t, "", saved.Directory)
	assert.Equal(t, filepath.Join(root, "a.txt"), saved.Path)

	_, err = storage.SaveFile(ctx, domain.SaveRequest{StagedPath: src, TargetDir: "../escape"})
	assert.ErrorIs(t, err, domain.ErrOutsideWorkspace)

	_, err = storage.SaveFile(ctx, domain.SaveRequest{StagedPath: src, TargetDir: t.TempDir()})
	assert.ErrorIs(t, err, domain.ErrOutsideWorkspace)
}

func TestStorage_SaveFile_FoldCase(t *testing.T) {
	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	root := filepath.Join(base, "ws")
	require.NoError(t, os.MkdirAll(root, 0755))
	ctx := context.Background()

	fold, exact := true, false
	folded := New(staticWorkspace{root: root}, memory.NewRecordStore(), Options{FoldCase: &fold})
	sensitive := New(staticWorkspace{root: root}, memory.NewRecordStore(), Options{FoldCase: &exact})

	src := writeFile(t, filepath.Join(t.TempDir(), "todo.md"), "milk")
	target := filepath.Join(base, "WS", "Notes")

	saved, err := folded.SaveFile(ctx, domain.SaveRequest{StagedPath: src, TargetDir: target})
	require.NoError(t, err)
	assert.Equal(t, "Notes", saved.Directory)
	assert.Equal(t, filepath.Join(root, "Notes", "todo.md"), saved.Path)

	saved, err = folded.SaveFile(ctx, domain.SaveRequest{StagedPath: src, TargetDir: filepath.Join(base, "WS")})
	require.NoError(t, err)
	assert.Equal(t, "", saved.Directory)

	_, err = sensitive.SaveFile(ctx, domain.SaveRequest{StagedPath: src, TargetDir: target})
	assert.ErrorIs(t, err, domain.ErrOutsideWorkspace)
}

func TestStorage_SaveFile_MissingSource(t *testing.T) {
	storage, _, root := newTestStorage(t, Options{})

	_, err := storage.SaveFile(context.Background(), domain.SaveRequest{StagedPath: filepath.Join(root, "gone.txt")})
	var svcErr *domain.ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, domain.CodeSourceFileMissing, svcErr.Code)
}

func TestStorage_ReadFile(t *testing.T) {
	storage, _, root := newTestStorage(t, Options{})
	path := writeFile(t, filepath.Join(root, "a.md"), "# hi")

	data, err := storage.ReadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "# hi", string(data))

	_, err = storage.ReadFile(context.Background(), filepath.Join(root, "missing.md"))
	assert.True(t, domain.IsServiceError(err))
}
