package driven

import (
	"context"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

// WorkspaceConfigProvider supplies the active workspace configuration.
type WorkspaceConfigProvider interface {
	// WorkspaceConfig returns the workspace root and import preferences.
	// Returns domain.ErrConfigUnavailable when no usable root is configured.
	WorkspaceConfig(ctx context.Context) (domain.WorkspaceConfig, error)
}
