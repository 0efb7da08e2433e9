package driven

import (
	"context"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

// Classifier discovers destinations and recommends where a file belongs.
// Semantic failures are returned as *domain.ServiceError.
type Classifier interface {
	// ListDirectories recursively enumerates the workspace.
	ListDirectories(ctx context.Context, root string) ([]domain.DirectoryEntry, error)

	// DescribeImage returns a textual description of an image given as a data URL.
	DescribeImage(ctx context.Context, dataURL, locale string) (string, error)

	// RecommendDirectory picks a destination from the candidates.
	RecommendDirectory(ctx context.Context, req domain.RecommendRequest) (*domain.Recommendation, error)
}
