package driven

import "context"

// VectorIndex stores chunk embeddings and serves similarity queries.
// Implementations provide their own internal concurrency safety; the
// writer adds no locking on top.
type VectorIndex interface {
	// Upsert inserts or replaces the vector and metadata for a chunk ID.
	Upsert(ctx context.Context, id string, vector []float32, metadata map[string]any) error

	// Delete removes chunks from the index by ID.
	Delete(ctx context.Context, ids []string) error

	// Query finds the topK nearest chunks to the query vector, optionally
	// restricted by exact-match metadata filters.
	Query(ctx context.Context, vector []float32, filter map[string]string, topK int) ([]QueryHit, error)

	// Dimensions returns the vector size the index is configured for.
	Dimensions() int

	// Close releases resources.
	Close() error
}

// QueryHit is a similarity search result.
type QueryHit struct {
	// ID is the matched chunk.
	ID string

	// Score is the cosine similarity (0-1).
	Score float32

	// Text is the stored chunk text.
	Text string

	// Metadata is the stored chunk metadata.
	Metadata map[string]any
}
