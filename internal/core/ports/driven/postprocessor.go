package driven

import (
	"context"

	"github.com/praxis-labs/bubblesync/internal/core/domain"
)

// PostProcessor transforms document content into chunks, or filters and
// augments chunks produced by an earlier processor.
type PostProcessor interface {
	// Name returns the processor name.
	Name() string

	// Process receives the document and the chunks produced so far.
	// The first processor in a pipeline receives nil chunks.
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline runs a document through an ordered processor chain.
type PostProcessorPipeline interface {
	// Process produces the final chunks for a document.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
