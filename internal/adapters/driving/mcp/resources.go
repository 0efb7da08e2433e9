package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

const (
	uriScheme = "filer://"

	// resourceLimit caps list resources.
	resourceLimit = 100
)

type recordInfo struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	Status     string    `json:"status"`
	Directory  string    `json:"directory,omitempty"`
	SavedPath  string    `json:"saved_path,omitempty"`
	SourcePath string    `json:"source_path,omitempty"`
	Ingested   bool      `json:"ingested"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type historyInfo struct {
	TaskID    string    `json:"task_id"`
	Path      string    `json:"path"`
	Origin    string    `json:"origin"`
	Outcome   string    `json:"outcome"`
	SavedPath string    `json:"saved_path,omitempty"`
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	EndedAt   time.Time `json:"ended_at"`
}

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "records",
		Name:        "records",
		Description: "Files tracked by filer, most recently updated first",
		MIMEType:    "application/json",
	}, s.handleRecordsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "records/{recordId}",
		Name:        "record",
		Description: "A single tracked file",
		MIMEType:    "application/json",
	}, s.handleRecordResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "history",
		Name:        "history",
		Description: "Recently finished imports",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)
}

func (s *Server) handleRecordsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Records == nil {
		return jsonResource(req.Params.URI, []recordInfo{})
	}

	records, err := s.ports.Records.List(ctx, "", resourceLimit)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	infos := make([]recordInfo, len(records))
	for i := range records {
		infos[i] = toRecordInfo(&records[i])
	}
	return jsonResource(req.Params.URI, infos)
}

func (s *Server) handleRecordResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Records == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	id := extractRecordID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	record, err := s.ports.Records.Get(ctx, id)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	return jsonResource(req.Params.URI, toRecordInfo(record))
}

func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.History == nil {
		return jsonResource(req.Params.URI, []historyInfo{})
	}

	entries, err := s.ports.History.Recent(ctx, resourceLimit)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}

	infos := make([]historyInfo, len(entries))
	for i, e := range entries {
		infos[i] = historyInfo{
			TaskID:    e.TaskID,
			Path:      e.Path,
			Origin:    string(e.Origin),
			Outcome:   string(e.Outcome),
			SavedPath: e.SavedPath,
			Message:   e.Message,
			Error:     e.Error,
			EndedAt:   e.EndedAt,
		}
	}
	return jsonResource(req.Params.URI, infos)
}

func toRecordInfo(r *domain.FileRecord) recordInfo {
	return recordInfo{
		ID:         r.ID,
		FileName:   r.FileName,
		Status:     string(r.Status),
		Directory:  r.Directory,
		SavedPath:  r.SavedPath,
		SourcePath: r.SourcePath,
		Ingested:   !r.IngestedAt.IsZero(),
		UpdatedAt:  r.UpdatedAt,
	}
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractRecordID extracts the id from filer://records/{recordId}.
func extractRecordID(uri string) string {
	id, ok := strings.CutPrefix(uri, uriScheme+"records/")
	if !ok || strings.Contains(id, "/") {
		return ""
	}
	return id
}
