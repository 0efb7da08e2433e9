package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
	"github.com/custodia-labs/filer-cli/internal/logger"
)

// imageMIMETypes maps image extensions that trigger content description.
var imageMIMETypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
}

// StageExecutorConfig holds the collaborators of a StageExecutor.
type StageExecutorConfig struct {
	Config     driven.WorkspaceConfigProvider
	Storage    driven.FileStorage
	Classifier driven.Classifier
	Publisher  driven.EventPublisher

	// Ingestor is optional. Without it ingestion is skipped.
	Ingestor driven.KnowledgeIngestor

	// NewTaskID generates event correlation ids. Defaults to ULIDs.
	NewTaskID func() string

	// Now defaults to time.Now.
	Now func() time.Time

	// FoldCase compares paths case-insensitively when deciding workspace
	// containment. Defaults to true on windows and darwin.
	FoldCase *bool
}

func (c *StageExecutorConfig) defaults() error {
	if c.Config == nil {
		return errors.New("config provider is required")
	}
	if c.Storage == nil {
		return errors.New("file storage is required")
	}
	if c.Classifier == nil {
		return errors.New("classifier is required")
	}
	if c.Publisher == nil {
		return errors.New("event publisher is required")
	}
	if c.NewTaskID == nil {
		c.NewTaskID = func() string { return ulid.Make().String() }
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.FoldCase == nil {
		fold := domain.FoldsCase()
		c.FoldCase = &fold
	}
	return nil
}

// StageExecutor runs the import stages for one task at a time.
// Run drives a task until it finishes or parks for confirmation;
// Resume and Abort finish a parked task.
type StageExecutor struct {
	config     driven.WorkspaceConfigProvider
	storage    driven.FileStorage
	classifier driven.Classifier
	publisher  driven.EventPublisher
	ingestor   driven.KnowledgeIngestor
	newTaskID  func() string
	now        func() time.Time
	foldCase   bool
}

// NewStageExecutor creates a stage executor.
func NewStageExecutor(cfg StageExecutorConfig) (*StageExecutor, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid stage executor config: %w", err)
	}
	return &StageExecutor{
		config:     cfg.Config,
		storage:    cfg.Storage,
		classifier: cfg.Classifier,
		publisher:  cfg.Publisher,
		ingestor:   cfg.Ingestor,
		newTaskID:  cfg.NewTaskID,
		now:        cfg.Now,
		foldCase:   *cfg.FoldCase,
	}, nil
}

// Run executes the pipeline for req. It returns a result when the task
// finished, or the parked state when it awaits confirmation.
func (e *StageExecutor) Run(ctx context.Context, req domain.ImportRequest) (*domain.PipelineState, *domain.ImportResult) {
	if req.TaskID == "" {
		req.TaskID = e.newTaskID()
	}
	state := &domain.PipelineState{
		TaskID:    req.TaskID,
		Request:   req,
		StartedAt: e.now(),
	}
	e.publisher.Publish(domain.StartEvent(state.TaskID, req.Path))

	// 1. Resolve configuration
	cfg, err := e.config.WorkspaceConfig(ctx)
	if err != nil {
		return nil, e.fail(state, "", err)
	}
	state.Config = cfg

	// 2. Stage
	if err := e.stage(ctx, state); err != nil {
		return nil, e.fail(state, domain.StageStageFile, err)
	}

	// 6a. Workspace-direct save bypasses classification entirely
	if state.DirectSave {
		res := e.finish(ctx, state, e.directDir(state), true)
		return nil, &res
	}

	// 3. List directories
	err = e.runStage(state, domain.StageListDirectory, func() (string, error) {
		entries, err := e.classifier.ListDirectories(ctx, cfg.Root)
		if err != nil {
			return "", err
		}
		state.Directories = entries
		return fmt.Sprintf("%d folders", len(domain.FolderPaths(entries))), nil
	})
	if err != nil {
		return nil, e.fail(state, domain.StageListDirectory, err)
	}

	// 4. Describe content (best-effort)
	if mimeType, ok := imageMIMEType(state.StagedPath); ok {
		e.describe(ctx, state, mimeType)
	}

	// 5. Recommend directory
	err = e.runStage(state, domain.StageRecommendDirectory, func() (string, error) {
		rec, err := e.classifier.RecommendDirectory(ctx, domain.RecommendRequest{
			StagedPath:  state.StagedPath,
			FileName:    filepath.Base(req.Label()),
			Candidates:  domain.FolderPaths(state.Directories),
			Description: state.ContentDescription,
		})
		if err != nil {
			return "", err
		}
		if rec == nil || strings.TrimSpace(rec.Recommended) == "" {
			return "", domain.NewServiceError(domain.CodeEmptyRecommendation, "no directory recommended", nil)
		}
		state.Recommended = rec.Recommended
		state.Alternatives = rec.Alternatives
		return rec.Recommended, nil
	})
	if err != nil {
		return nil, e.fail(state, domain.StageRecommendDirectory, err)
	}

	// 6b. Auto-classify saves straight to the recommendation
	if cfg.AutoClassify {
		res := e.finish(ctx, state, state.Recommended, false)
		return nil, &res
	}

	// 6c. Park at the confirmation gate
	e.publisher.Publish(domain.ProgressEvent(
		state.TaskID, domain.StageAwaitConfirmation, domain.StateStart, state.Recommended))
	return state, nil
}

// Resume saves a parked task to dir and completes it.
func (e *StageExecutor) Resume(ctx context.Context, state *domain.PipelineState, dir string) domain.ImportResult {
	return e.finish(ctx, state, dir, false)
}

// Abort completes a parked task as cancelled.
func (e *StageExecutor) Abort(state *domain.PipelineState, message string) domain.ImportResult {
	e.publisher.Publish(domain.CancelledEvent(state.TaskID, message))
	logger.Info("import cancelled", "task", state.TaskID, "path", state.Request.Path)
	return e.result(state, domain.OutcomeCancelled, message, nil)
}

// Reselect lists the full workspace tree for manual selection.
// The parked state is left untouched.
func (e *StageExecutor) Reselect(ctx context.Context, state *domain.PipelineState) ([]string, error) {
	entries, err := e.classifier.ListDirectories(ctx, state.Config.Root)
	if err != nil {
		logger.Warn("manual reselect listing failed", "task", state.TaskID, "error", err)
		return nil, fmt.Errorf("list directories: %w", err)
	}
	e.publisher.Publish(domain.ProgressEvent(
		state.TaskID, domain.StageAwaitConfirmation, domain.StateReselect, ""))
	return domain.FolderPaths(entries), nil
}

// stage fills StagedPath and StagedRecordID.
func (e *StageExecutor) stage(ctx context.Context, state *domain.PipelineState) error {
	req := state.Request

	if req.Mode == domain.ImportModeRetry {
		if req.ExistingRecordID == "" {
			return fmt.Errorf("retry without record id: %w", domain.ErrInvalidInput)
		}
		state.StagedPath = req.Path
		state.StagedRecordID = req.ExistingRecordID
		return nil
	}

	if e.insideWorkspace(state.Config.Root, req.Path) {
		state.StagedPath = req.Path
		state.DirectSave = true
		return nil
	}

	return e.runStage(state, domain.StageStageFile, func() (string, error) {
		staged, err := e.storage.StageToTemp(ctx, req.Path)
		if err != nil {
			return "", err
		}
		state.StagedPath = staged.Path
		state.StagedRecordID = staged.RecordID
		return "", nil
	})
}

// describe requests an image description. Failures only produce a warning.
func (e *StageExecutor) describe(ctx context.Context, state *domain.PipelineState, mimeType string) {
	err := e.runStage(state, domain.StageDescribeContent, func() (string, error) {
		data, err := e.storage.ReadFile(ctx, state.StagedPath)
		if err != nil {
			return "", err
		}
		dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
		desc, err := e.classifier.DescribeImage(ctx, dataURL, state.Config.Locale)
		if err != nil {
			return "", err
		}
		state.ContentDescription = strings.TrimSpace(desc)
		return "", nil
	})
	if err != nil {
		e.warn(state, domain.StageDescribeContent, err)
	}
}

// finish runs Save, optional ingestion and the terminal event.
func (e *StageExecutor) finish(ctx context.Context, state *domain.PipelineState, dir string, overwrite bool) domain.ImportResult {
	// 7. Save
	err := e.runStage(state, domain.StageSaveFile, func() (string, error) {
		saved, err := e.storage.SaveFile(ctx, domain.SaveRequest{
			StagedPath:  state.StagedPath,
			TargetDir:   dir,
			Overwrite:   overwrite,
			RecordID:    state.StagedRecordID,
			Description: state.ContentDescription,
		})
		if err != nil {
			return "", err
		}
		state.Saved = saved
		return saved.Path, nil
	})
	if err != nil {
		return *e.fail(state, domain.StageSaveFile, err)
	}

	// 8. Ingest (best-effort)
	if state.Config.AutoIngest && e.ingestor != nil && state.Saved.RecordID != "" {
		err := e.runStage(state, domain.StageIngestKnowledge, func() (string, error) {
			res, err := e.ingestor.Ingest(ctx, domain.IngestRequest{
				RecordID:    state.Saved.RecordID,
				SkipDBWrite: true,
				Description: state.ContentDescription,
			})
			if err != nil {
				return "", err
			}
			state.Ingested = true
			return fmt.Sprintf("%d chunks", res.Chunks), nil
		})
		if err != nil {
			e.warn(state, domain.StageIngestKnowledge, err)
		}
	}

	// 9. Terminal
	msg := fmt.Sprintf("Saved %s to %s", filepath.Base(state.Request.Label()), displayDir(state.Saved.Directory))
	e.publisher.Publish(domain.SuccessEvent(state.TaskID, msg))
	logger.Info("import saved", "task", state.TaskID, "path", state.Request.Path,
		"saved", state.Saved.Path, "record", state.Saved.RecordID, "ingested", state.Ingested)
	return e.result(state, domain.OutcomeSuccess, msg, nil)
}

// runStage emits start, runs fn and emits success when fn succeeds.
// On failure nothing is emitted; the caller decides between error and warning.
func (e *StageExecutor) runStage(state *domain.PipelineState, stage domain.Stage, fn func() (string, error)) error {
	e.publisher.Publish(domain.ProgressEvent(state.TaskID, stage, domain.StateStart, ""))
	msg, err := fn()
	if err != nil {
		return err
	}
	e.publisher.Publish(domain.ProgressEvent(state.TaskID, stage, domain.StateSuccess, msg))
	return nil
}

func (e *StageExecutor) fail(state *domain.PipelineState, stage domain.Stage, err error) *domain.ImportResult {
	msg := configFailureMessage
	logStage := "resolve-config"
	if stage != "" {
		msg = failureMessage(stage, err)
		logStage = string(stage)
	}
	logger.Error("import failed", "task", state.TaskID, "stage", logStage, "path", state.Request.Path, "error", err,
		logger.Surfaced())
	e.publisher.Publish(domain.ErrorEvent(state.TaskID, err, msg))
	res := e.result(state, domain.OutcomeError, msg, err)
	return &res
}

func (e *StageExecutor) warn(state *domain.PipelineState, stage domain.Stage, err error) {
	msg := failureMessage(stage, err)
	logger.Warn("best-effort stage failed", "task", state.TaskID, "stage", stage, "path", state.Request.Path, "error", err)
	e.publisher.Publish(domain.ProgressEvent(state.TaskID, stage, domain.StateWarning, msg))
}

func (e *StageExecutor) result(state *domain.PipelineState, outcome domain.ImportOutcome, msg string, err error) domain.ImportResult {
	res := domain.ImportResult{
		TaskID:    state.TaskID,
		Path:      state.Request.Path,
		Outcome:   outcome,
		RecordID:  state.StagedRecordID,
		Ingested:  state.Ingested,
		Message:   msg,
		Err:       err,
		StartedAt: state.StartedAt,
		EndedAt:   e.now(),
	}
	if state.Saved != nil {
		res.RecordID = state.Saved.RecordID
		res.SavedPath = state.Saved.Path
		res.Directory = state.Saved.Directory
	}
	return res
}

// insideWorkspace reports whether path lies inside root after resolving
// both to absolute, symlink-free paths where possible.
func (e *StageExecutor) insideWorkspace(root, path string) bool {
	return domain.IsWithin(resolvePath(root), resolvePath(path), e.foldCase)
}

// directDir is the workspace-relative directory of a workspace-local source.
func (e *StageExecutor) directDir(state *domain.PipelineState) string {
	rel, err := domain.RelPath(resolvePath(state.Config.Root), filepath.Dir(resolvePath(state.StagedPath)), e.foldCase)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

func resolvePath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

func imageMIMEType(path string) (string, bool) {
	mimeType, ok := imageMIMETypes[strings.ToLower(filepath.Ext(path))]
	return mimeType, ok
}

func displayDir(dir string) string {
	if dir == "" {
		return "workspace root"
	}
	return dir
}
