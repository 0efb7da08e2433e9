package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
	"github.com/custodia-labs/filer-cli/internal/logger"
)

// Ensure Storage implements the interface.
var _ driven.FileStorage = (*Storage)(nil)

// StagingDir is the workspace-relative directory holding staged copies.
const StagingDir = ".filer/staging"

// suffixLayout is appended to a file name when its destination is taken.
const suffixLayout = "20060102_150405"

// Options configures a Storage.
type Options struct {
	// MaxFileSize rejects larger sources at staging. Zero means the default.
	MaxFileSize int64

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// FoldCase matches workspace paths case-insensitively. Defaults to
	// domain.FoldsCase.
	FoldCase *bool
}

// Storage stages and saves files inside the active workspace.
type Storage struct {
	workspace   driven.WorkspaceConfigProvider
	records     driven.RecordStore
	maxFileSize int64
	now         func() time.Time
	foldCase    bool
}

// New creates a Storage backed by the given record store.
func New(workspace driven.WorkspaceConfigProvider, records driven.RecordStore, opts Options) *Storage {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = int64(domain.DefaultMaxFileSizeMB) << 20
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FoldCase == nil {
		fold := domain.FoldsCase()
		opts.FoldCase = &fold
	}
	return &Storage{
		workspace:   workspace,
		records:     records,
		maxFileSize: opts.MaxFileSize,
		now:         opts.Now,
		foldCase:    *opts.FoldCase,
	}
}

// StageToTemp validates the source, copies it into the staging area and
// creates a staged record.
func (s *Storage) StageToTemp(ctx context.Context, sourcePath string) (*domain.StagedFile, error) {
	root, err := s.root(ctx)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(sourcePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.NewServiceError(domain.CodeSourceFileMissing, "source file does not exist", err)
		}
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, domain.NewServiceError(domain.CodeInvalidFileType, "source is not a regular file", domain.ErrNotAFile)
	}
	if info.Size() > s.maxFileSize {
		msg := fmt.Sprintf("file is %d bytes, limit is %d", info.Size(), s.maxFileSize)
		return nil, domain.NewServiceError(domain.CodeFileTooLarge, msg, domain.ErrFileTooLarge)
	}

	stagingDir := filepath.Join(root, filepath.FromSlash(StagingDir))
	if err := os.MkdirAll(stagingDir, 0700); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}

	id := uuid.New().String()
	staged := filepath.Join(stagingDir, id+strings.ToLower(filepath.Ext(sourcePath)))
	if err := copyFile(ctx, sourcePath, staged); err != nil {
		return nil, fmt.Errorf("stage %s: %w", sourcePath, err)
	}

	now := s.now()
	record := &domain.FileRecord{
		ID:         id,
		SourcePath: sourcePath,
		StagedPath: staged,
		FileName:   filepath.Base(sourcePath),
		Size:       info.Size(),
		Status:     domain.RecordStaged,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.records.SaveRecord(ctx, record); err != nil {
		_ = os.Remove(staged)
		return nil, fmt.Errorf("save staged record: %w", err)
	}

	logger.Debug("staged file", "source", sourcePath, "staged", staged, "record", id)
	return &domain.StagedFile{Path: staged, RecordID: id}, nil
}

// SaveFile moves a staged copy, or copies any other file, into a workspace
// directory and marks its record saved.
func (s *Storage) SaveFile(ctx context.Context, req domain.SaveRequest) (*domain.SavedFile, error) {
	root, err := s.root(ctx)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(req.StagedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.NewServiceError(domain.CodeSourceFileMissing, "staged file does not exist", err)
		}
		return nil, fmt.Errorf("stat staged file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, domain.NewServiceError(domain.CodeInvalidFileType, "staged path is not a regular file", domain.ErrNotAFile)
	}

	targetDir, err := resolveTarget(root, req.TargetDir, s.foldCase)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return nil, fmt.Errorf("create target directory: %w", err)
	}

	var record *domain.FileRecord
	if req.RecordID != "" {
		record, err = s.records.GetRecord(ctx, req.RecordID)
		if err != nil {
			return nil, fmt.Errorf("load record %s: %w", req.RecordID, err)
		}
	}

	name := filepath.Base(req.StagedPath)
	if record != nil && record.FileName != "" {
		name = record.FileName
	}

	dest := filepath.Join(targetDir, name)
	if !sameFile(req.StagedPath, dest) {
		if _, err := os.Stat(dest); err == nil && !req.Overwrite {
			dest = s.suffixed(dest)
		}
		if err := s.place(ctx, root, req.StagedPath, dest); err != nil {
			return nil, err
		}
	}

	rel, err := filepath.Rel(root, targetDir)
	if err != nil {
		return nil, fmt.Errorf("relative target: %w", err)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		rel = ""
	}

	now := s.now()
	if record == nil {
		record = &domain.FileRecord{
			ID:         uuid.New().String(),
			SourcePath: req.StagedPath,
			FileName:   name,
			CreatedAt:  now,
		}
	}
	record.SavedPath = dest
	record.Directory = rel
	record.StagedPath = ""
	record.Size = info.Size()
	record.Status = domain.RecordSaved
	record.UpdatedAt = now
	if req.Description != "" {
		record.Description = req.Description
	}
	if err := s.records.SaveRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("save record: %w", err)
	}

	logger.Info("saved file", "path", dest, "record", record.ID)
	return &domain.SavedFile{RecordID: record.ID, Path: dest, Directory: rel}, nil
}

// ReadFile returns a file's content.
func (s *Storage) ReadFile(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.NewServiceError(domain.CodeSourceFileMissing, "file does not exist", err)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (s *Storage) root(ctx context.Context) (string, error) {
	cfg, err := s.workspace.WorkspaceConfig(ctx)
	if err != nil {
		return "", err
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrConfigUnavailable, err)
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	return root, nil
}

// place moves staged copies and copies everything else.
func (s *Storage) place(ctx context.Context, root, src, dest string) error {
	staging := filepath.Join(root, filepath.FromSlash(StagingDir))
	if domain.IsWithin(staging, resolve(src), s.foldCase) {
		if err := os.Rename(src, dest); err == nil {
			return nil
		}
		if err := copyFile(ctx, src, dest); err != nil {
			return fmt.Errorf("move staged file: %w", err)
		}
		return os.Remove(src)
	}
	if err := copyFile(ctx, src, dest); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	return nil
}

func (s *Storage) suffixed(dest string) string {
	ext := filepath.Ext(dest)
	base := strings.TrimSuffix(dest, ext)
	stamp := s.now().Format(suffixLayout)
	candidate := fmt.Sprintf("%s_%s%s", base, stamp, ext)
	for i := 2; ; i++ {
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%s_%d%s", base, stamp, i, ext)
	}
}

// resolveTarget maps a relative or absolute directory to an absolute path
// inside root, spelled with root's own prefix.
func resolveTarget(root, dir string, foldCase bool) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" || dir == "." || dir == "/" {
		return root, nil
	}

	var target string
	if filepath.IsAbs(dir) {
		target = filepath.Clean(dir)
	} else {
		target = filepath.Join(root, filepath.FromSlash(dir))
	}
	target = resolve(target)
	rel, err := domain.RelPath(root, target, foldCase)
	if err == nil && rel == "." {
		return root, nil
	}
	if err != nil || !domain.IsWithin(root, target, foldCase) {
		return "", fmt.Errorf("%w: %s", domain.ErrOutsideWorkspace, dir)
	}
	return filepath.Join(root, rel), nil
}

// resolve follows symlinks for the longest existing prefix of path.
func resolve(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	parent := filepath.Dir(path)
	if parent == path {
		return path
	}
	return filepath.Join(resolve(parent), filepath.Base(path))
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

func copyFile(ctx context.Context, src, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return err
	}
	return out.Close()
}
