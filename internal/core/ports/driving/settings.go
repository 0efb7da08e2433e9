package driving

import "github.com/custodia-labs/filer-cli/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetWorkspaceRoot sets the managed workspace directory.
	// The directory must exist.
	SetWorkspaceRoot(root string) error

	// SetAutoClassify toggles saving without confirmation.
	SetAutoClassify(enabled bool) error

	// SetAutoIngest toggles knowledge-base ingestion after save.
	SetAutoIngest(enabled bool) error

	// SetLocale sets the description language.
	SetLocale(locale string) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider configures the LLM provider.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// AddWatchDir adds an inbox directory to watch.
	AddWatchDir(dir string) error

	// RemoveWatchDir stops watching an inbox directory.
	RemoveWatchDir(dir string) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
	ValidateLLMConfig() error
}
