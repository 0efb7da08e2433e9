// Package langchain provides an embedding service adapter backed by langchaingo.
package langchain

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
	"github.com/custodia-labs/filer-cli/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultOllamaURL is used when no base URL is configured for Ollama.
const DefaultOllamaURL = "http://localhost:11434"

// EmbeddingService generates embeddings through a langchaingo embedder.
// Dimensions are taken from the model table when known, otherwise learned
// from the first response; every later vector must match.
type EmbeddingService struct {
	embedder   embeddings.Embedder
	model      string
	dimensions atomic.Int64
}

// New wraps an existing embedder. Zero dimensions are learned on first use.
func New(embedder embeddings.Embedder, model string, dimensions int) *EmbeddingService {
	s := &EmbeddingService{embedder: embedder, model: model}
	s.dimensions.Store(int64(dimensions))
	return s
}

// NewFromSettings creates the embedder for the configured provider.
func NewFromSettings(settings domain.EmbeddingSettings) (*EmbeddingService, error) {
	model := settings.Model
	if model == "" {
		model = domain.DefaultEmbeddingModels()[settings.Provider]
	}

	var client embeddings.EmbedderClient
	switch settings.Provider {
	case domain.AIProviderOllama:
		baseURL := settings.BaseURL
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		llm, err := ollama.New(ollama.WithModel(model), ollama.WithServerURL(strings.TrimRight(baseURL, "/")))
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}
		client = llm

	case domain.AIProviderOpenAI:
		if settings.APIKey == "" {
			return nil, fmt.Errorf("openai: API key required")
		}
		opts := []openai.Option{openai.WithToken(settings.APIKey), openai.WithEmbeddingModel(model)}
		if settings.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(settings.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}
		client = llm

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}

	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return New(embedder, model, domain.EmbeddingDimensions()[model]), nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	start := time.Now()
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		logger.Warn("embedding failed", "model", s.model, "texts", len(texts),
			"duration_ms", time.Since(start).Milliseconds(), "error", err)
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("count mismatch: got %d, want %d", len(vectors), len(texts))
	}

	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("embedding %d is empty", i)
		}
		want := s.dimensions.Load()
		if want == 0 {
			s.dimensions.CompareAndSwap(0, int64(len(v)))
			want = s.dimensions.Load()
		}
		if int64(len(v)) != want {
			return nil, fmt.Errorf("embedding %d dimension mismatch: got %d, want %d", i, len(v), want)
		}
	}

	logger.Debug("embedding complete", "model", s.model, "texts", len(texts),
		"duration_ms", time.Since(start).Milliseconds())
	return vectors, nil
}

// Dimensions returns the embedding vector size, or 0 if not yet known.
func (s *EmbeddingService) Dimensions() int {
	return int(s.dimensions.Load())
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping embeds a short test string.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := s.Embed(ctx, "ping")
	return err
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
