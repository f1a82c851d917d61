// Package chromem adapts the embedded chromem-go vector database to the
// vector index port. Vectors persist on disk between runs; no external
// service is required.
package chromem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/praxis-labs/bubblesync/internal/core/domain"
	"github.com/praxis-labs/bubblesync/internal/core/ports/driven"
)

const (
	// DefaultCollection is the collection chunks are stored in.
	DefaultCollection = "documents"

	// DefaultVectorSize matches nomic-embed-text.
	DefaultVectorSize = 768
)

// Config holds chromem index settings.
type Config struct {
	// Path is the on-disk database directory. Supports ~ expansion.
	Path string

	// Collection is the collection name. Defaults to "documents".
	Collection string

	// VectorSize is the embedding dimension the index expects.
	VectorSize int

	// Compress enables gzip compression of persisted documents.
	Compress bool
}

// ApplyDefaults fills in zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Path == "" {
		c.Path = "~/.bubblesync/data/vectors"
	}
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}
	if c.VectorSize == 0 {
		c.VectorSize = DefaultVectorSize
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("%w: path is required", domain.ErrInvalidInput)
	}
	if c.VectorSize <= 0 {
		return fmt.Errorf("%w: vector size must be positive", domain.ErrInvalidInput)
	}
	return nil
}

// Index is a driven.VectorIndex backed by a persistent chromem-go database.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	config     Config
	logger     *zap.Logger
}

var _ driven.VectorIndex = (*Index)(nil)

// NewIndex opens (or creates) the persistent database and collection.
// Pass a nil logger for no-op logging.
func NewIndex(config Config, logger *zap.Logger) (*Index, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	path, err := expandPath(config.Path)
	if err != nil {
		return nil, fmt.Errorf("expanding path: %w", err)
	}
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, fmt.Errorf("creating vector directory: %w", err)
	}

	db, err := chromem.NewPersistentDB(path, config.Compress)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", domain.ErrVectorIndexUnavailable, err)
	}

	// Vectors are always supplied pre-computed, so the collection's own
	// embedding func must never run.
	collection, err := db.GetOrCreateCollection(config.Collection, nil, rejectEmbedding)
	if err != nil {
		return nil, fmt.Errorf("%w: opening collection %s: %v", domain.ErrVectorIndexUnavailable, config.Collection, err)
	}

	logger.Debug("vector index opened",
		zap.String("path", path),
		zap.String("collection", config.Collection),
		zap.Int("vector_size", config.VectorSize),
		zap.Int("documents", collection.Count()),
	)

	return &Index{
		db:         db,
		collection: collection,
		config:     config,
		logger:     logger,
	}, nil
}

func rejectEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("index stores pre-computed vectors only")
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// Upsert inserts or replaces the vector and metadata for a chunk ID.
// The chunk text is expected under the "text" metadata key.
func (i *Index) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]any) error {
	if len(vector) != i.config.VectorSize {
		return fmt.Errorf("%w: got %d, index expects %d", domain.ErrDimensionMismatch, len(vector), i.config.VectorSize)
	}

	content, _ := metadata["text"].(string)
	doc := chromem.Document{
		ID:        id,
		Content:   content,
		Metadata:  stringifyMetadata(metadata),
		Embedding: vector,
	}

	// Concurrency 1: the embedding is already attached, nothing to parallelise.
	if err := i.collection.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return fmt.Errorf("%w: upserting %s: %v", domain.ErrVectorIndexUnavailable, id, err)
	}
	return nil
}

// Delete removes chunks from the index by ID. Unknown IDs are ignored.
func (i *Index) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := i.collection.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("%w: deleting chunks: %v", domain.ErrVectorIndexUnavailable, err)
	}
	return nil
}

// Query finds the topK nearest chunks by cosine similarity, optionally
// restricted by exact-match metadata filters.
func (i *Index) Query(ctx context.Context, vector []float32, filter map[string]string, topK int) ([]driven.QueryHit, error) {
	if len(vector) != i.config.VectorSize {
		return nil, fmt.Errorf("%w: got %d, index expects %d", domain.ErrDimensionMismatch, len(vector), i.config.VectorSize)
	}

	// chromem rejects nResults greater than the stored document count.
	count := i.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if topK <= 0 || topK > count {
		topK = count
	}

	var where map[string]string
	if len(filter) > 0 {
		where = filter
	}

	results, err := i.collection.QueryEmbedding(ctx, vector, topK, where, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: querying: %v", domain.ErrVectorIndexUnavailable, err)
	}

	hits := make([]driven.QueryHit, len(results))
	for n, r := range results {
		hits[n] = driven.QueryHit{
			ID:       r.ID,
			Score:    r.Similarity,
			Text:     r.Content,
			Metadata: anyMetadata(r.Metadata),
		}
	}
	return hits, nil
}

// Dimensions returns the vector size the index is configured for.
func (i *Index) Dimensions() int {
	return i.config.VectorSize
}

// Count reports the number of stored chunks.
func (i *Index) Count() int {
	return i.collection.Count()
}

// Close releases resources. chromem persists eagerly, so this is a no-op
// beyond dropping references.
func (i *Index) Close() error {
	return nil
}

// stringifyMetadata flattens metadata to the string map chromem stores.
func stringifyMetadata(metadata map[string]any) map[string]string {
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		switch val := v.(type) {
		case string:
			out[k] = val
		default:
			out[k] = fmt.Sprintf("%v", val)
		}
	}
	return out
}

func anyMetadata(metadata map[string]string) map[string]any {
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}
