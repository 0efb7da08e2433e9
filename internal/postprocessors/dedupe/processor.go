// Package dedupe drops repeated and trivially short chunks.
package dedupe

import (
	"context"
	"strings"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

// Processor removes chunks whose normalised content was already seen in the
// same document. Quoted replies in email threads are the usual source.
type Processor struct {
	minLength int
}

// Option configures the processor.
type Option func(*Processor)

// WithMinLength drops chunks shorter than n characters after trimming.
func WithMinLength(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.minLength = n
		}
	}
}

// New creates a dedupe processor.
func New(opts ...Option) *Processor {
	p := &Processor{minLength: 1}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "dedupe"
}

// Process filters chunks and renumbers positions from zero.
func (p *Processor) Process(ctx context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(chunks))
	out := make([]domain.Chunk, 0, len(chunks))
	for _, c := range chunks {
		key := strings.ToLower(strings.Join(strings.Fields(c.Content), " "))
		if len([]rune(key)) < p.minLength {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		c.Position = len(out)
		out = append(out, c)
	}
	return out, nil
}
