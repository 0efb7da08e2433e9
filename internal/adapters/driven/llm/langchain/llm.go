// Package langchain provides an LLM service adapter backed by langchaingo.
// One adapter serves Ollama, OpenAI and Anthropic models.
package langchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
	"github.com/custodia-labs/filer-cli/internal/logger"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultOllamaURL = "http://localhost:11434"
	DefaultOpenAIURL = "https://api.openai.com/v1"
	pingTimeout      = 10 * time.Second
)

// PingFunc checks that the provider is reachable.
type PingFunc func(ctx context.Context) error

// LLMService provides LLM operations through a langchaingo model.
type LLMService struct {
	model llms.Model
	name  string
	ping  PingFunc
}

// New wraps an existing langchaingo model. A nil ping falls back to a
// one-token generation.
func New(model llms.Model, name string, ping PingFunc) *LLMService {
	s := &LLMService{model: model, name: name, ping: ping}
	if s.ping == nil {
		s.ping = s.generatePing
	}
	return s
}

// NewFromSettings creates the model for the configured provider.
func NewFromSettings(settings domain.LLMSettings) (*LLMService, error) {
	model := settings.Model
	if model == "" {
		model = domain.DefaultLLMModels()[settings.Provider]
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		baseURL := strings.TrimRight(orDefault(settings.BaseURL, DefaultOllamaURL), "/")
		llm, err := ollama.New(ollama.WithModel(model), ollama.WithServerURL(baseURL))
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}
		return New(llm, model, EndpointPing(baseURL+"/api/tags", nil)), nil

	case domain.AIProviderOpenAI:
		if settings.APIKey == "" {
			return nil, errors.New("openai: API key required")
		}
		opts := []openai.Option{openai.WithToken(settings.APIKey), openai.WithModel(model)}
		if settings.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(settings.BaseURL))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}
		baseURL := strings.TrimRight(orDefault(settings.BaseURL, DefaultOpenAIURL), "/")
		headers := map[string]string{"Authorization": "Bearer " + settings.APIKey}
		return New(llm, model, EndpointPing(baseURL+"/models", headers)), nil

	case domain.AIProviderAnthropic:
		if settings.APIKey == "" {
			return nil, errors.New("anthropic: API key required")
		}
		opts := []anthropic.Option{anthropic.WithToken(settings.APIKey), anthropic.WithModel(model)}
		if settings.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(settings.BaseURL))
		}
		llm, err := anthropic.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}
		return New(llm, model, nil), nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// Generate produces text completion from a prompt.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	var messages []llms.MessageContent
	if opts.SystemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, opts.SystemPrompt))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, prompt))
	return s.generate(ctx, messages, opts)
}

// DescribeImage answers prompt about an image.
func (s *LLMService) DescribeImage(ctx context.Context, mimeType string, image []byte, prompt string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("%w: empty image", domain.ErrInvalidInput)
	}
	messages := []llms.MessageContent{{
		Role: llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{
			llms.BinaryPart(mimeType, image),
			llms.TextPart(prompt),
		},
	}}
	return s.generate(ctx, messages, driven.GenerateOptions{})
}

func (s *LLMService) generate(ctx context.Context, messages []llms.MessageContent, opts driven.GenerateOptions) (string, error) {
	var callOpts []llms.CallOption
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(opts.Temperature))
	}
	if opts.JSON {
		callOpts = append(callOpts, llms.WithJSONMode())
	}

	start := time.Now()
	resp, err := s.model.GenerateContent(ctx, messages, callOpts...)
	if err != nil {
		logger.Warn("llm request failed", "model", s.name, "duration_ms", time.Since(start).Milliseconds(), "error", err)
		return "", fmt.Errorf("%s: generate: %w", s.name, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: no response choices", s.name)
	}
	logger.Debug("llm request complete", "model", s.name, "duration_ms", time.Since(start).Milliseconds())
	return strings.TrimSpace(resp.Choices[0].Content), nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.name
}

// Ping validates the service is reachable.
func (s *LLMService) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return s.ping(ctx)
}

func (s *LLMService) generatePing(ctx context.Context) error {
	_, err := s.Generate(ctx, "ping", driven.GenerateOptions{MaxTokens: 1})
	return err
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}

// EndpointPing returns a PingFunc that expects 200 OK from a GET on url.
// This validates connectivity and credentials without running inference.
func EndpointPing(url string, headers map[string]string) PingFunc {
	client := &http.Client{Timeout: pingTimeout}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
		if err != nil {
			return fmt.Errorf("create ping request: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("ping failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return nil
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
