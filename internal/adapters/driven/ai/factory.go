// Package ai builds the LLM and embedding services from settings.
package ai

import (
	"context"
	"fmt"
	"time"

	embedlc "github.com/custodia-labs/filer-cli/internal/adapters/driven/embedding/langchain"
	llmlc "github.com/custodia-labs/filer-cli/internal/adapters/driven/llm/langchain"
	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
	"github.com/custodia-labs/filer-cli/internal/logger"
)

// pingTimeout bounds the reachability check run before a service is used.
const pingTimeout = 5 * time.Second

// InitResult holds the services that passed their ping. A nil service is
// either unconfigured or unreachable; Warnings says which.
type InitResult struct {
	LLMService       driven.LLMService
	EmbeddingService driven.EmbeddingService
	Warnings         []string
}

// Close releases whichever services were created.
func (r *InitResult) Close() {
	if r.LLMService != nil {
		_ = r.LLMService.Close()
	}
	if r.EmbeddingService != nil {
		_ = r.EmbeddingService.Close()
	}
}

// Initialise creates the configured services. A broken provider is logged
// and left nil, so imports fall back to rule-based recommendation and
// unembedded chunks instead of failing.
func Initialise(settings *domain.AppSettings) *InitResult {
	result := &InitResult{}
	if settings == nil {
		return result
	}

	llm, err := CreateAndValidateLLMService(&settings.LLM)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		logger.Warn("llm disabled", "error", err)
	}
	result.LLMService = llm

	embedder, err := CreateAndValidateEmbeddingService(&settings.Embedding)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		logger.Warn("embeddings disabled", "error", err)
	}
	result.EmbeddingService = embedder

	return result
}

// CreateLLMService returns nil, nil when no provider is set.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || settings.Provider == "" {
		return nil, nil
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("LLM provider %q is not fully configured", settings.Provider)
	}
	svc, err := llmlc.NewFromSettings(*settings)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// CreateEmbeddingService returns nil, nil when no provider is set.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || settings.Provider == "" {
		return nil, nil
	}
	if settings.Provider.IsValid() && !settings.Provider.SupportsEmbeddings() {
		return nil, fmt.Errorf("%s does not support embeddings, use ollama or openai", settings.Provider)
	}
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("embedding provider %q is not fully configured", settings.Provider)
	}
	svc, err := embedlc.NewFromSettings(*settings)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// CreateAndValidateLLMService is CreateLLMService followed by a ping.
// Errors wrap domain.ErrLLMUnavailable.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err == nil && svc != nil {
		err = ping(svc)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'filer settings llm' to fix", domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

// CreateAndValidateEmbeddingService is CreateEmbeddingService followed by a
// ping. Errors wrap domain.ErrEmbeddingUnavailable.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err == nil && svc != nil {
		err = ping(svc)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'filer settings embedding' to fix", domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

type pinger interface {
	Ping(ctx context.Context) error
	Close() error
}

// ping closes svc when it is unreachable.
func ping(svc pinger) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return fmt.Errorf("service unreachable (%w)", err)
	}
	return nil
}

var _ driven.AIConfigValidator = ConfigValidator{}

// ConfigValidator checks settings by building the service and pinging it.
type ConfigValidator struct{}

func NewConfigValidator() ConfigValidator { return ConfigValidator{} }

func (ConfigValidator) ValidateLLM(settings *domain.LLMSettings) error {
	return check(CreateLLMService(settings))
}

func (ConfigValidator) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	return check(CreateEmbeddingService(settings))
}

// check pings a freshly built service and closes it again.
func check(svc pinger, err error) error {
	if err != nil || svc == nil {
		return err
	}
	defer svc.Close()
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}
