// Package chunker provides a recursive text chunking processor.
package chunker

import (
	"context"
	"strings"

	"github.com/praxis-labs/bubblesync/internal/core/domain"
	"github.com/praxis-labs/bubblesync/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 4000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// MinChunkLength is the post-split floor: chunks at or below this length
// are dropped.
const MinChunkLength = 50

// MinDistinctTokens is the minimum number of distinct whitespace-delimited
// tokens a chunk must contain. Guards against degenerate content such as a
// single repeated token.
const MinDistinctTokens = 10

// separators are tried in order when splitting: paragraph boundaries first,
// then line and sentence boundaries, then words, then bare characters.
var separators = []string{"\n\n", "\n", ". ", " "}

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor splits document text into overlapping chunks and validates them.
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

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document text into chunks. Every surviving chunk
// inherits the parent metadata plus a deterministic ID derived from
// (source, index), so re-chunking unchanged text yields identical IDs.
// Input chunks are ignored; this processor creates new chunks.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}
	if doc.Text == "" {
		return nil, nil
	}

	// New content per chunk is capped so that prepending the overlap
	// never pushes a chunk past chunkSize.
	budget := p.chunkSize - p.overlap
	if budget < 1 {
		budget = p.chunkSize
	}

	pieces := splitRecursive(doc.Text, separators, budget)

	source := doc.Source()
	title := doc.Title()

	chunks := make([]domain.Chunk, 0, len(pieces))
	prev := ""
	for _, piece := range pieces {
		text := piece
		if prev != "" && p.overlap > 0 {
			text = tail(prev, p.overlap) + piece
		}
		prev = text

		if !validChunk(text) {
			continue
		}

		metadata := make(map[string]any, len(doc.Metadata)+2)
		for k, v := range doc.Metadata {
			metadata[k] = v
		}
		// All chunks reaching the writer carry a uniform metadata shape.
		metadata[domain.MetaSource] = source
		metadata[domain.MetaTitle] = title

		index := len(chunks)
		metadata["chunk_index"] = index

		chunks = append(chunks, domain.Chunk{
			ID:       domain.ChunkID(source, index),
			Text:     text,
			Metadata: metadata,
		})
	}

	return chunks, nil
}

// splitRecursive splits text into pieces no longer than size, preferring
// earlier separators and falling back to a hard character split.
func splitRecursive(text string, seps []string, size int) []string {
	if len(text) <= size {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	if len(seps) == 0 {
		return splitHard(text, size)
	}

	parts := strings.SplitAfter(text, seps[0])
	if len(parts) == 1 {
		// Separator absent; try the next one.
		return splitRecursive(text, seps[1:], size)
	}

	var pieces []string
	current := ""
	flush := func() {
		if current != "" {
			pieces = append(pieces, current)
			current = ""
		}
	}

	for _, part := range parts {
		if len(part) > size {
			flush()
			pieces = append(pieces, splitRecursive(part, seps[1:], size)...)
			continue
		}
		if len(current)+len(part) > size {
			flush()
		}
		current += part
	}
	flush()

	return pieces
}

// splitHard splits text at arbitrary character boundaries.
func splitHard(text string, size int) []string {
	var pieces []string
	for len(text) > size {
		pieces = append(pieces, text[:size])
		text = text[size:]
	}
	if text != "" {
		pieces = append(pieces, text)
	}
	return pieces
}

// tail returns the last n bytes of s.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// validChunk applies the post-split quality floor: minimum length,
// non-whitespace content and a minimum number of distinct tokens.
func validChunk(text string) bool {
	if len(text) <= MinChunkLength {
		return false
	}
	if strings.TrimSpace(text) == "" {
		return false
	}
	distinct := make(map[string]struct{})
	for _, token := range strings.Fields(text) {
		distinct[token] = struct{}{}
		if len(distinct) >= MinDistinctTokens {
			return true
		}
	}
	return false
}
