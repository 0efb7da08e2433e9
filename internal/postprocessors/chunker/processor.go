// Package chunker splits document content into overlapping chunks.
package chunker

import (
	"context"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/filer-cli/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Processor splits document content into chunks of at most chunkSize
// characters. Chunk ends are pulled back to the nearest paragraph, line
// or word break within the last fifth of the window.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process creates chunks from the document content; input chunks are ignored.
// Whitespace-only windows are skipped and positions stay contiguous.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	text := []rune(doc.Content)
	var chunks []domain.Chunk

	for start := 0; start < len(text); {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := p.boundary(text, start)
		if content := strings.TrimSpace(string(text[start:end])); content != "" {
			chunks = append(chunks, domain.Chunk{
				ID:         uuid.NewString(),
				DocumentID: doc.ID,
				Content:    content,
				Position:   len(chunks),
				Metadata:   map[string]any{"start": start, "end": end},
			})
		}
		if end == len(text) {
			break
		}

		next := end - p.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks, nil
}

// boundary returns the end of the chunk starting at start.
func (p *Processor) boundary(text []rune, start int) int {
	end := start + p.chunkSize
	if end >= len(text) {
		return len(text)
	}

	floor := end - p.chunkSize/5
	if floor <= start {
		floor = start + 1
	}
	for _, isBreak := range []func(i int) bool{
		func(i int) bool { return text[i] == '\n' && text[i-1] == '\n' },
		func(i int) bool { return text[i] == '\n' },
		func(i int) bool { return unicode.IsSpace(text[i]) },
	} {
		for i := end - 1; i >= floor; i-- {
			if isBreak(i) {
				return i + 1
			}
		}
	}
	return end
}
