package postprocessors

import (
	"github.com/custodia-labs/filer-cli/internal/core/ports/driven"
	"github.com/custodia-labs/filer-cli/internal/postprocessors/chunker"
	"github.com/custodia-labs/filer-cli/internal/postprocessors/dedupe"
)

// RegisterDefaults registers the built-in processors.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("dedupe", buildDedupe)
}

// buildChunker reads chunk_size and overlap, both in characters.
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option
	if size, ok := intFromConfig(cfg, "chunk_size"); ok {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := intFromConfig(cfg, "overlap"); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}
	return chunker.New(opts...), nil
}

// buildDedupe reads min_length, the shortest chunk kept.
func buildDedupe(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []dedupe.Option
	if n, ok := intFromConfig(cfg, "min_length"); ok {
		opts = append(opts, dedupe.WithMinLength(n))
	}
	return dedupe.New(opts...), nil
}

// intFromConfig handles the numeric types TOML and JSON decoding produce.
func intFromConfig(cfg map[string]any, key string) (int, bool) {
	switch v := cfg[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
