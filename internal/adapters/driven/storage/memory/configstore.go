package memory

import (
	"maps"
	"sync"

	"github.com/custodia-labs/filer-cli/internal/adapters/driven/config/values"
	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps flattened dot keys in a map. Save and Load do nothing.
type ConfigStore struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewConfigStore returns an empty store.
func NewConfigStore() *ConfigStore {
	return NewConfigStoreFrom(nil)
}

// NewConfigStoreFrom returns a store holding a copy of seed.
func NewConfigStoreFrom(seed map[string]any) *ConfigStore {
	data := make(map[string]any, len(seed))
	maps.Copy(data, seed)
	return &ConfigStore{data: data}
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *ConfigStore) lookup(key string) any {
	v, _ := s.Get(key)
	return v
}

func (s *ConfigStore) GetString(key string) string        { return values.String(s.lookup(key)) }
func (s *ConfigStore) GetInt(key string) int              { return values.Int(s.lookup(key)) }
func (s *ConfigStore) GetBool(key string) bool            { return values.Bool(s.lookup(key)) }
func (s *ConfigStore) GetStringSlice(key string) []string { return values.Strings(s.lookup(key)) }

func (s *ConfigStore) GetSection(prefix string) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return values.Section(s.data, prefix)
}

func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
	return nil
}

func (s *ConfigStore) Save() error { return nil }
func (s *ConfigStore) Load() error { return nil }

// Path reports ":memory:".
func (s *ConfigStore) Path() string { return ":memory:" }
