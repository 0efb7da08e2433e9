package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations return a default or an error.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptRecommendDirectory asks for a destination folder as JSON.
	// Placeholders, in order: file name (%s), content preview (%s),
	// description (%s), candidate folders (%s).
	PromptRecommendDirectory = "recommend_directory"

	// PromptDescribeImage asks for a short description of an image.
	// The template expects a %s placeholder for the response language.
	PromptDescribeImage = "describe_image"
)

// PromptStoreAware is implemented by services whose prompts can be customised.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service uses built-in defaults.
	SetPromptStore(store PromptStore)
}
