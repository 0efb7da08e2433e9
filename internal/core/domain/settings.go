package domain

// Defaults applied when a key is missing from the config file.
const (
	DefaultMaxFileSizeMB = 50
	DefaultLocale        = "en"
	DefaultListenAddress = "127.0.0.1:7788"
)

// AppSettings is the resolved configuration of filer.
type AppSettings struct {
	Workspace WorkspaceSettings
	LLM       LLMSettings
	Embedding EmbeddingSettings
	Server    ServerSettings
	Watch     WatchSettings
}

// WorkspaceSettings holds the managed directory and the import preferences.
type WorkspaceSettings struct {
	// Root is the directory imports are filed into. Empty until configured.
	Root string

	// AutoClassify saves to the recommended directory without asking.
	AutoClassify bool

	// AutoIngest indexes every saved file for search.
	AutoIngest bool

	// Locale is the language image descriptions are written in.
	Locale string

	MaxFileSizeMB int
}

// LLMSettings selects the model that recommends directories and describes
// images. Image description needs a multimodal model.
type LLMSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string

	// RequestsPerMinute throttles provider calls. Zero uses the classifier default.
	RequestsPerMinute int
}

// IsConfigured reports whether the provider is known and has a key when it
// needs one.
func (l LLMSettings) IsConfigured() bool {
	return providerReady(l.Provider, l.APIKey)
}

// EmbeddingSettings selects the model used for knowledge-base vectors.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string
}

// IsConfigured is like LLMSettings.IsConfigured but also requires embedding
// support.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider.SupportsEmbeddings() && providerReady(e.Provider, e.APIKey)
}

func providerReady(p AIProvider, apiKey string) bool {
	if !p.IsValid() {
		return false
	}
	return !p.RequiresAPIKey() || apiKey != ""
}

// ServerSettings configures the websocket event bridge.
type ServerSettings struct {
	Listen string
}

// WatchSettings lists inbox directories whose new files are imported.
type WatchSettings struct {
	Dirs []string
}

// DefaultAppSettings has no workspace and no AI providers; `filer settings`
// fills those in.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Workspace: WorkspaceSettings{
			AutoIngest:    true,
			Locale:        DefaultLocale,
			MaxFileSizeMB: DefaultMaxFileSizeMB,
		},
		Server: ServerSettings{Listen: DefaultListenAddress},
	}
}

// PipelineConfig names the post-processors run on normalised documents, in
// order, with free-form options per processor.
type PipelineConfig struct {
	Processors       []string
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns the options for name, or nil.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	return c.ProcessorConfigs[name]
}

// DefaultPipelineConfig chunks documents into 1000 character pieces with
// 200 characters of overlap.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {"chunk_size": 1000, "overlap": 200},
		},
	}
}
