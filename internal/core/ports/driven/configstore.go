package driven

// ConfigStore holds settings under flattened dot keys such as
// "workspace.root". Typed getters return the zero value when a key is
// missing or holds another type.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// GetSection returns the keys under prefix with "prefix." stripped,
	// or an empty map.
	GetSection(prefix string) map[string]any

	// Set persists immediately.
	Set(key string, value any) error

	Save() error
	Load() error

	// Path is where the configuration lives, or ":memory:".
	Path() string
}
