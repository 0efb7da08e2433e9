package mcp

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/services"
)

// Import status values reported by import_file and import_status.
const (
	statusAwaiting  = "awaiting_confirmation"
	statusRunning   = "running"
	statusSuccess   = "success"
	statusError     = "error"
	statusCancelled = "cancelled"
)

// ImportFileInput is the input schema for import_file.
type ImportFileInput struct {
	Path        string `json:"path" jsonschema:"absolute path of the file to import"`
	DisplayName string `json:"display_name,omitempty" jsonschema:"optional label used in progress messages"`
}

// ImportFileOutput describes where an import stopped.
type ImportFileOutput struct {
	TaskID       string   `json:"task_id,omitempty"`
	Status       string   `json:"status"`
	Message      string   `json:"message,omitempty"`
	Recommended  string   `json:"recommended_directory,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`
	RecordID     string   `json:"record_id,omitempty"`
	SavedPath    string   `json:"saved_path,omitempty"`
	Ingested     bool     `json:"ingested,omitempty"`
}

// TaskInput targets the parked import. An empty task id means whichever is parked.
type TaskInput struct {
	TaskID string `json:"task_id,omitempty" jsonschema:"task id of the parked import; empty targets the parked import"`
}

// ConfirmInput is the input schema for confirm_import.
type ConfirmInput struct {
	TaskID    string `json:"task_id,omitempty" jsonschema:"task id of the parked import; empty targets the parked import"`
	Directory string `json:"directory" jsonschema:"workspace-relative directory to save into"`
}

// AckOutput acknowledges a gate action.
type AckOutput struct {
	TaskID  string `json:"task_id,omitempty"`
	Message string `json:"message"`
}

// ReselectOutput lists every workspace folder.
type ReselectOutput struct {
	Directories []string `json:"directories"`
}

// StatusOutput is the queue snapshot.
type StatusOutput struct {
	Busy        bool           `json:"busy"`
	Queued      int            `json:"queued"`
	Processed   int            `json:"processed"`
	CurrentPath string         `json:"current_path,omitempty"`
	Pending     *PendingOutput `json:"pending,omitempty"`
}

// PendingOutput is the import parked at the confirmation gate.
type PendingOutput struct {
	TaskID       string   `json:"task_id"`
	Path         string   `json:"path"`
	Recommended  string   `json:"recommended_directory"`
	Alternatives []string `json:"alternatives,omitempty"`
	Directories  []string `json:"directories,omitempty"`
}

// SearchInput is the input schema for search_knowledge.
type SearchInput struct {
	Query string `json:"query" jsonschema:"what to look for, in natural language"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
}

// SearchOutput is the output schema for search_knowledge.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput is a single matching chunk.
type SearchResultOutput struct {
	DocumentID string  `json:"document_id"`
	RecordID   string  `json:"record_id,omitempty"`
	Title      string  `json:"title"`
	URI        string  `json:"uri"`
	Similarity float64 `json:"similarity"`
	Content    string  `json:"content"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "import_file",
		Description: "Import a file into the workspace. Returns once the file is saved, " +
			"or when a destination directory must be confirmed with confirm_import.",
	}, s.handleImportFile)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "confirm_import",
		Description: "Save the import awaiting confirmation into the given directory",
	}, s.handleConfirm)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "cancel_import",
		Description: "Cancel the import awaiting confirmation",
	}, s.handleCancel)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reselect_directory",
		Description: "List every workspace folder for the import awaiting confirmation",
	}, s.handleReselect)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "import_status",
		Description: "Show the import queue and any import awaiting confirmation",
	}, s.handleStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_knowledge",
		Description: "Search the content of imported files by meaning",
	}, s.handleSearch)
}

func (s *Server) handleImportFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ImportFileInput,
) (*mcp.CallToolResult, ImportFileOutput, error) {
	path := strings.TrimSpace(input.Path)
	if path == "" {
		return nil, ImportFileOutput{}, fmt.Errorf("path: %w", domain.ErrInvalidInput)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, ImportFileOutput{}, fmt.Errorf("resolve path: %w", err)
	}

	tracker := services.TrackImport(s.ports.Events, s.ports.Imports, domain.ImportRequest{
		Path:        abs,
		DisplayName: input.DisplayName,
		Origin:      domain.OriginMCP,
	}, nil)
	defer tracker.Close()

	waitCtx, cancel := context.WithTimeout(ctx, s.importWait)
	defer cancel()

	parked, result, err := tracker.Wait(waitCtx)
	switch {
	case parked:
		out := ImportFileOutput{TaskID: tracker.TaskID(), Status: statusAwaiting}
		if p, ok := s.ports.Imports.Pending(); ok && p.TaskID == out.TaskID {
			out.Recommended = p.Recommended
			out.Alternatives = p.Alternatives
			out.RecordID = p.RecordID
			out.Message = fmt.Sprintf("Recommended directory: %s. Call confirm_import to save.", p.Recommended)
		}
		return nil, out, nil
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return nil, ImportFileOutput{
			TaskID:  tracker.TaskID(),
			Status:  statusRunning,
			Message: "Import is still queued or running; check import_status.",
		}, nil
	case result.Outcome == "" && err != nil:
		return nil, ImportFileOutput{}, err
	}
	return nil, resultOutput(result), nil
}

func resultOutput(r domain.ImportResult) ImportFileOutput {
	out := ImportFileOutput{
		TaskID:    r.TaskID,
		Message:   r.Message,
		RecordID:  r.RecordID,
		SavedPath: r.SavedPath,
		Ingested:  r.Ingested,
	}
	switch r.Outcome {
	case domain.OutcomeError:
		out.Status = statusError
	case domain.OutcomeCancelled:
		out.Status = statusCancelled
	default:
		out.Status = statusSuccess
	}
	return out
}

func (s *Server) handleConfirm(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ConfirmInput,
) (*mcp.CallToolResult, AckOutput, error) {
	if err := s.ports.Imports.Confirm(ctx, input.TaskID, input.Directory); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{
		TaskID:  input.TaskID,
		Message: fmt.Sprintf("Saving to %s", strings.TrimSpace(input.Directory)),
	}, nil
}

func (s *Server) handleCancel(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TaskInput,
) (*mcp.CallToolResult, AckOutput, error) {
	if err := s.ports.Imports.Cancel(ctx, input.TaskID); err != nil {
		return nil, AckOutput{}, err
	}
	return nil, AckOutput{TaskID: input.TaskID, Message: "Import cancelled"}, nil
}

func (s *Server) handleReselect(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TaskInput,
) (*mcp.CallToolResult, ReselectOutput, error) {
	dirs, err := s.ports.Imports.Reselect(ctx, input.TaskID)
	if err != nil {
		return nil, ReselectOutput{}, err
	}
	if dirs == nil {
		dirs = []string{}
	}
	return nil, ReselectOutput{Directories: dirs}, nil
}

func (s *Server) handleStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, StatusOutput, error) {
	status := s.ports.Imports.Status()
	out := StatusOutput{
		Busy:        status.Busy,
		Queued:      status.Queued,
		Processed:   status.Processed,
		CurrentPath: status.CurrentPath,
	}
	if p, ok := s.ports.Imports.Pending(); ok {
		out.Pending = &PendingOutput{
			TaskID:       p.TaskID,
			Path:         p.Path,
			Recommended:  p.Recommended,
			Alternatives: p.Alternatives,
			Directories:  p.Directories,
		}
	}
	return nil, out, nil
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	if s.ports.Search == nil {
		return nil, SearchOutput{}, domain.ErrEmbeddingUnavailable
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 5
	}

	hits, err := s.ports.Search.Search(ctx, input.Query, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(hits)),
		Count:   len(hits),
	}
	for i := range hits {
		result := SearchResultOutput{
			DocumentID: hits[i].Chunk.DocumentID,
			Similarity: hits[i].Similarity,
			Content:    hits[i].Chunk.Content,
		}
		if doc := hits[i].Document; doc != nil {
			result.RecordID = doc.RecordID
			result.Title = doc.Title
			result.URI = doc.URI
		}
		output.Results[i] = result
	}
	return nil, output, nil
}
