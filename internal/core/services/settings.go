package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interfaces.
var (
	_ driving.SettingsService        = (*SettingsService)(nil)
	_ driven.WorkspaceConfigProvider = (*SettingsService)(nil)
)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyWorkspaceRoot     = "workspace.root"
	keyAutoClassify      = "workspace.auto_classify"
	keyAutoIngest        = "workspace.auto_ingest"
	keyLocale            = "workspace.locale"
	keyMaxFileSizeMB     = "workspace.max_file_size_mb"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyLLMRequestsPerMin = "llm.requests_per_minute"
	keyServerListen      = "server.listen"
	keyWatchDirs         = "watch.dirs"
	keyPipeline          = "pipeline"
	keyPipelineProcs     = "pipeline.processors"
)

// SettingsService manages application settings and serves the
// workspace configuration to the import pipeline.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Workspace: domain.WorkspaceSettings{
			Root:          s.configStore.GetString(keyWorkspaceRoot),
			AutoClassify:  s.getBool(keyAutoClassify, defaults.Workspace.AutoClassify),
			AutoIngest:    s.getBool(keyAutoIngest, defaults.Workspace.AutoIngest),
			Locale:        s.getString(keyLocale, defaults.Workspace.Locale),
			MaxFileSizeMB: s.getInt(keyMaxFileSizeMB, defaults.Workspace.MaxFileSizeMB),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider:          s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:             s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:           s.configStore.GetString(keyLLMBaseURL),
			APIKey:            s.configStore.GetString(keyLLMAPIKey),
			RequestsPerMinute: s.configStore.GetInt(keyLLMRequestsPerMin),
		},
		Server: domain.ServerSettings{
			Listen: s.getString(keyServerListen, defaults.Server.Listen),
		},
		Watch: domain.WatchSettings{
			Dirs: s.configStore.GetStringSlice(keyWatchDirs),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyWorkspaceRoot, settings.Workspace.Root},
		{keyAutoClassify, settings.Workspace.AutoClassify},
		{keyAutoIngest, settings.Workspace.AutoIngest},
		{keyLocale, settings.Workspace.Locale},
		{keyMaxFileSizeMB, settings.Workspace.MaxFileSizeMB},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMRequestsPerMin, settings.LLM.RequestsPerMinute},
		{keyServerListen, settings.Server.Listen},
		{keyWatchDirs, settings.Watch.Dirs},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// API keys are only written when present so a partial settings object
	// never clears stored credentials.
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save llm api_key: %w", err)
		}
	}

	return nil
}

// WorkspaceConfig returns the configuration an import resolves at start.
func (s *SettingsService) WorkspaceConfig(_ context.Context) (domain.WorkspaceConfig, error) {
	settings, err := s.Get()
	if err != nil {
		return domain.WorkspaceConfig{}, fmt.Errorf("%w: %w", domain.ErrConfigUnavailable, err)
	}

	root := settings.Workspace.Root
	if root == "" {
		return domain.WorkspaceConfig{}, fmt.Errorf("%w: workspace root not set", domain.ErrConfigUnavailable)
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return domain.WorkspaceConfig{}, fmt.Errorf("%w: %w", domain.ErrConfigUnavailable, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return domain.WorkspaceConfig{}, fmt.Errorf("%w: %w", domain.ErrConfigUnavailable, err)
	}
	if !info.IsDir() {
		return domain.WorkspaceConfig{}, fmt.Errorf("%w: %s is not a directory", domain.ErrConfigUnavailable, root)
	}

	return domain.WorkspaceConfig{
		Root:         root,
		AutoClassify: settings.Workspace.AutoClassify,
		AutoIngest:   settings.Workspace.AutoIngest,
		Locale:       settings.Workspace.Locale,
	}, nil
}

// PipelineConfig returns the post-processor pipeline for ingestion.
// Per-processor values in [pipeline.<name>] override the defaults.
func (s *SettingsService) PipelineConfig() domain.PipelineConfig {
	cfg := domain.DefaultPipelineConfig()
	if names := s.configStore.GetStringSlice(keyPipelineProcs); len(names) > 0 {
		cfg.Processors = names
	}
	for _, name := range cfg.Processors {
		overrides := s.configStore.GetSection(keyPipeline + "." + name)
		if len(overrides) == 0 {
			continue
		}
		merged := make(map[string]any, len(overrides))
		for k, v := range cfg.GetProcessorConfig(name) {
			merged[k] = v
		}
		for k, v := range overrides {
			merged[k] = v
		}
		cfg.ProcessorConfigs[name] = merged
	}
	return cfg
}

// SetWorkspaceRoot sets the managed workspace directory.
func (s *SettingsService) SetWorkspaceRoot(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve workspace root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("workspace root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("workspace root %s is not a directory: %w", abs, domain.ErrInvalidInput)
	}
	return s.configStore.Set(keyWorkspaceRoot, abs)
}

// SetAutoClassify toggles saving without confirmation.
func (s *SettingsService) SetAutoClassify(enabled bool) error {
	return s.configStore.Set(keyAutoClassify, enabled)
}

// SetAutoIngest toggles knowledge-base ingestion after save.
func (s *SettingsService) SetAutoIngest(enabled bool) error {
	return s.configStore.Set(keyAutoIngest, enabled)
}

// SetLocale sets the description language.
func (s *SettingsService) SetLocale(locale string) error {
	if locale == "" {
		return fmt.Errorf("locale: %w", domain.ErrInvalidInput)
	}
	return s.configStore.Set(keyLocale, locale)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !slices.Contains(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = modelOrDefault(model, domain.DefaultEmbeddingModels()[provider])
	settings.Embedding.BaseURL = baseURLFor(provider, settings.Embedding.BaseURL)
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = modelOrDefault(model, domain.DefaultLLMModels()[provider])
	settings.LLM.BaseURL = baseURLFor(provider, settings.LLM.BaseURL)
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// AddWatchDir adds an inbox directory to watch.
func (s *SettingsService) AddWatchDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve watch dir: %w", err)
	}
	dirs := s.configStore.GetStringSlice(keyWatchDirs)
	if slices.Contains(dirs, abs) {
		return nil
	}
	return s.configStore.Set(keyWatchDirs, append(dirs, abs))
}

// RemoveWatchDir stops watching an inbox directory.
func (s *SettingsService) RemoveWatchDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve watch dir: %w", err)
	}
	dirs := s.configStore.GetStringSlice(keyWatchDirs)
	idx := slices.Index(dirs, abs)
	if idx < 0 {
		return domain.ErrNotFound
	}
	return s.configStore.Set(keyWatchDirs, slices.Delete(dirs, idx, idx+1))
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func modelOrDefault(model, defaultModel string) string {
	if model != "" {
		return model
	}
	return defaultModel
}

// baseURLFor keeps a custom endpoint for local providers and clears it for cloud ones.
func baseURLFor(provider domain.AIProvider, current string) string {
	if !provider.IsLocal() {
		return ""
	}
	if current != "" {
		return current
	}
	return domain.DefaultBaseURLs()[provider]
}
