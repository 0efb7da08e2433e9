package mcp

import (
	"github.com/custodia-labs/filer-cli/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server uses.
type Ports struct {
	// Imports runs and resolves file imports.
	Imports driving.ImportQueue

	// Events lets import_file observe its task.
	Events driving.EventSubscriber

	// Search is optional; without it search_knowledge reports unavailability.
	Search driving.KnowledgeSearch

	// Records and History are optional and back the resources.
	Records driving.RecordService
	History driving.ImportHistory
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Imports == nil {
		return ErrMissingImportQueue
	}
	if p.Events == nil {
		return ErrMissingEvents
	}
	return nil
}
