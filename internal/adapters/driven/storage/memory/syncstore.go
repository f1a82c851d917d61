// Package memory provides in-memory implementations of the driven storage
// ports. Used in tests and as a fallback when no durable store is wired.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/praxis-labs/bubblesync/internal/core/domain"
	"github.com/praxis-labs/bubblesync/internal/core/ports/driven"
)

// SyncStateStore is an in-memory driven.SyncStateStore.
type SyncStateStore struct {
	mu     sync.RWMutex
	states map[string]*domain.SyncState
}

var _ driven.SyncStateStore = (*SyncStateStore)(nil)

// NewSyncStateStore creates an empty in-memory sync state store.
func NewSyncStateStore() *SyncStateStore {
	return &SyncStateStore{
		states: make(map[string]*domain.SyncState),
	}
}

// GetLastSync returns the stored sync timestamp, or nil for unknown scopes.
func (s *SyncStateStore) GetLastSync(ctx context.Context, scopeKey string) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[scopeKey]
	if !ok || state.LastSync.IsZero() {
		return nil, nil
	}
	ts := state.LastSync
	return &ts, nil
}

// Get retrieves the full entry for a scope.
func (s *SyncStateStore) Get(ctx context.Context, scopeKey string) (*domain.SyncState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[scopeKey]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *state
	return &copied, nil
}

// List returns all entries ordered by scope key.
func (s *SyncStateStore) List(ctx context.Context) ([]domain.SyncState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make([]domain.SyncState, 0, len(s.states))
	for _, state := range s.states {
		states = append(states, *state)
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].ScopeKey < states[j].ScopeKey
	})
	return states, nil
}

// RecordSuccess upserts the entry. The stored timestamp only advances.
func (s *SyncStateStore) RecordSuccess(ctx context.Context, scopeKey string, syncTime time.Time, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	state, ok := s.states[scopeKey]
	if !ok {
		state = &domain.SyncState{
			ScopeKey:  scopeKey,
			CreatedAt: now,
		}
		s.states[scopeKey] = state
	}
	if syncTime.After(state.LastSync) {
		state.LastSync = syncTime.UTC()
	}
	state.LastCount = count
	state.UpdatedAt = now
	return nil
}

// RecordFailure increments the error count without moving the timestamp.
func (s *SyncStateStore) RecordFailure(ctx context.Context, scopeKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	state, ok := s.states[scopeKey]
	if !ok {
		state = &domain.SyncState{
			ScopeKey:  scopeKey,
			CreatedAt: now,
		}
		s.states[scopeKey] = state
	}
	state.ErrorCount++
	state.UpdatedAt = now
	return nil
}

// Delete removes a scope's entry.
func (s *SyncStateStore) Delete(ctx context.Context, scopeKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, scopeKey)
	return nil
}
