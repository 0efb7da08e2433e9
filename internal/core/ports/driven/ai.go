package driven

import (
	"context"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

// LLMService answers recommendation prompts and describes images. It is
// optional: without one, recommendations come from filename rules and
// images are filed without a description.
type LLMService interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// DescribeImage needs a multimodal model.
	DescribeImage(ctx context.Context, mimeType string, image []byte, prompt string) (string, error)

	ModelName() string

	// Ping makes the cheapest request the provider allows.
	Ping(ctx context.Context) error

	Close() error
}

// GenerateOptions tunes a single Generate call. Zero values leave the
// provider defaults in place.
type GenerateOptions struct {
	SystemPrompt string
	MaxTokens    int
	Temperature  float64

	// JSON requests a JSON-only reply where the provider supports it.
	JSON bool
}

// EmbeddingService turns text into vectors for the knowledge base. Without
// one, chunks are stored unembedded and search is unavailable.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is 0 until the first vector when the model is not known.
	Dimensions() int

	ModelName() string
	Ping(ctx context.Context) error
	Close() error
}

// AIConfigValidator checks provider settings before they are saved.
// Unconfigured settings are valid.
type AIConfigValidator interface {
	ValidateLLM(config *domain.LLMSettings) error
	ValidateEmbedding(config *domain.EmbeddingSettings) error
}
