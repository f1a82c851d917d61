package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/praxis-labs/bubblesync/internal/core/domain"
	"github.com/praxis-labs/bubblesync/internal/core/ports/driven"
)

// ChunkRefStore is an in-memory driven.ChunkRefStore.
type ChunkRefStore struct {
	mu   sync.RWMutex
	refs map[string]domain.ChunkRef
}

var _ driven.ChunkRefStore = (*ChunkRefStore)(nil)

// NewChunkRefStore creates an empty in-memory chunk ref store.
func NewChunkRefStore() *ChunkRefStore {
	return &ChunkRefStore{
		refs: make(map[string]domain.ChunkRef),
	}
}

// ListBySourceType returns the refs of every chunk of an object type.
func (s *ChunkRefStore) ListBySourceType(ctx context.Context, sourceType string) ([]domain.ChunkRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var refs []domain.ChunkRef
	for _, ref := range s.refs {
		if ref.SourceType == sourceType {
			refs = append(refs, ref)
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].ID < refs[j].ID
	})
	return refs, nil
}

// Upsert stores or updates a chunk ref.
func (s *ChunkRefStore) Upsert(ctx context.Context, ref domain.ChunkRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refs[ref.ID] = ref
	return nil
}

// Delete removes chunk refs by ID.
func (s *ChunkRefStore) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.refs, id)
	}
	return nil
}

// Len reports the number of stored refs.
func (s *ChunkRefStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.refs)
}
