package domain

// AIProvider identifies a backend for recommendations, image description or
// embeddings.
type AIProvider string

// Supported providers.
const (
	AIProviderOllama    AIProvider = "ollama"
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
)

type providerInfo struct {
	label          string
	local          bool
	embeds         bool
	llmModel       string
	embeddingModel string
	baseURL        string
}

// providers is ordered as the settings wizard lists them.
var providers = []struct {
	id AIProvider
	providerInfo
}{
	{AIProviderOllama, providerInfo{
		label:          "Ollama (local)",
		local:          true,
		embeds:         true,
		llmModel:       "llama3.2-vision",
		embeddingModel: "nomic-embed-text",
		baseURL:        "http://localhost:11434",
	}},
	{AIProviderOpenAI, providerInfo{
		label:          "OpenAI (cloud)",
		embeds:         true,
		llmModel:       "gpt-4o-mini",
		embeddingModel: "text-embedding-3-small",
	}},
	{AIProviderAnthropic, providerInfo{
		label:    "Anthropic (cloud)",
		llmModel: "claude-3-5-sonnet-latest",
	}},
}

func (p AIProvider) info() (providerInfo, bool) {
	for _, entry := range providers {
		if entry.id == p {
			return entry.providerInfo, true
		}
	}
	return providerInfo{}, false
}

// IsValid reports whether p is a supported provider.
func (p AIProvider) IsValid() bool {
	_, ok := p.info()
	return ok
}

// RequiresAPIKey reports whether p is a cloud API.
func (p AIProvider) RequiresAPIKey() bool {
	info, ok := p.info()
	return ok && !info.local
}

// IsLocal reports whether p runs on this machine.
func (p AIProvider) IsLocal() bool {
	info, _ := p.info()
	return info.local
}

// SupportsEmbeddings reports whether p can embed text.
func (p AIProvider) SupportsEmbeddings() bool {
	info, _ := p.info()
	return info.embeds
}

func (p AIProvider) String() string {
	return string(p)
}

// Description is the label shown when choosing a provider.
func (p AIProvider) Description() string {
	if info, ok := p.info(); ok {
		return info.label
	}
	return "Unknown"
}

// AllLLMProviders lists every provider, in display order.
func AllLLMProviders() []AIProvider {
	out := make([]AIProvider, 0, len(providers))
	for _, entry := range providers {
		out = append(out, entry.id)
	}
	return out
}

// AllEmbeddingProviders lists providers that can embed text.
func AllEmbeddingProviders() []AIProvider {
	var out []AIProvider
	for _, entry := range providers {
		if entry.embeds {
			out = append(out, entry.id)
		}
	}
	return out
}

// DefaultLLMModels maps providers to a multimodal default model.
func DefaultLLMModels() map[AIProvider]string {
	return collect(func(info providerInfo) string { return info.llmModel })
}

// DefaultEmbeddingModels maps embedding providers to their default model.
func DefaultEmbeddingModels() map[AIProvider]string {
	return collect(func(info providerInfo) string { return info.embeddingModel })
}

// DefaultBaseURLs maps local providers to their usual endpoint.
func DefaultBaseURLs() map[AIProvider]string {
	return collect(func(info providerInfo) string { return info.baseURL })
}

func collect(field func(providerInfo) string) map[AIProvider]string {
	out := make(map[AIProvider]string)
	for _, entry := range providers {
		if v := field(entry.providerInfo); v != "" {
			out[entry.id] = v
		}
	}
	return out
}

// EmbeddingDimensions returns vector sizes for well-known embedding models.
// Unknown models report zero and are sized from their first vector.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
