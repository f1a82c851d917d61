package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/praxis-labs/bubblesync/internal/core/domain"
	"github.com/praxis-labs/bubblesync/internal/core/ports/driven"
)

// VectorIndex is an in-memory driven.VectorIndex with brute-force cosine
// similarity search. Not meant for large corpora.
type VectorIndex struct {
	mu         sync.RWMutex
	dimensions int
	entries    map[string]vectorEntry
}

type vectorEntry struct {
	vector   []float32
	metadata map[string]any
}

var _ driven.VectorIndex = (*VectorIndex)(nil)

// NewVectorIndex creates an empty index for vectors of the given size.
func NewVectorIndex(dimensions int) *VectorIndex {
	return &VectorIndex{
		dimensions: dimensions,
		entries:    make(map[string]vectorEntry),
	}
}

// Upsert inserts or replaces the vector and metadata for a chunk ID.
func (v *VectorIndex) Upsert(ctx context.Context, id string, vector []float32, metadata map[string]any) error {
	if len(vector) != v.dimensions {
		return fmt.Errorf("%w: got %d, index expects %d", domain.ErrDimensionMismatch, len(vector), v.dimensions)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	copied := make([]float32, len(vector))
	copy(copied, vector)
	meta := make(map[string]any, len(metadata))
	for k, val := range metadata {
		meta[k] = val
	}
	v.entries[id] = vectorEntry{vector: copied, metadata: meta}
	return nil
}

// Delete removes chunks from the index by ID.
func (v *VectorIndex) Delete(ctx context.Context, ids []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, id := range ids {
		delete(v.entries, id)
	}
	return nil
}

// Query finds the topK nearest chunks by cosine similarity, optionally
// restricted by exact-match metadata filters.
func (v *VectorIndex) Query(ctx context.Context, vector []float32, filter map[string]string, topK int) ([]driven.QueryHit, error) {
	if len(vector) != v.dimensions {
		return nil, fmt.Errorf("%w: got %d, index expects %d", domain.ErrDimensionMismatch, len(vector), v.dimensions)
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	var hits []driven.QueryHit
	for id, entry := range v.entries {
		if !matchesFilter(entry.metadata, filter) {
			continue
		}
		text, _ := entry.metadata["text"].(string)
		hits = append(hits, driven.QueryHit{
			ID:       id,
			Score:    cosineSimilarity(vector, entry.vector),
			Text:     text,
			Metadata: entry.metadata,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Dimensions returns the configured vector size.
func (v *VectorIndex) Dimensions() int {
	return v.dimensions
}

// Close is a no-op.
func (v *VectorIndex) Close() error {
	return nil
}

// Len reports the number of stored chunks.
func (v *VectorIndex) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries)
}

// Has reports whether a chunk ID is present.
func (v *VectorIndex) Has(id string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.entries[id]
	return ok
}

// Metadata returns the stored metadata for a chunk ID, or nil.
func (v *VectorIndex) Metadata(id string) map[string]any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	entry, ok := v.entries[id]
	if !ok {
		return nil
	}
	return entry.metadata
}

func matchesFilter(metadata map[string]any, filter map[string]string) bool {
	for key, want := range filter {
		got, ok := metadata[key].(string)
		if !ok || got != want {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
