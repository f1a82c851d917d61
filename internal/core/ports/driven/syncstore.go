package driven

import (
	"context"
	"time"

	"github.com/praxis-labs/bubblesync/internal/core/domain"
)

// SyncStateStore persists per-scope sync progress in a durable relational
// store. Safe for one writer per scope key; different scope keys are
// independent and need no coordination.
type SyncStateStore interface {
	// GetLastSync returns the stored sync timestamp for a scope, or nil
	// if the scope has never been synced.
	GetLastSync(ctx context.Context, scopeKey string) (*time.Time, error)

	// Get retrieves the full sync state entry for a scope.
	// Returns domain.ErrNotFound if the scope has never been synced.
	Get(ctx context.Context, scopeKey string) (*domain.SyncState, error)

	// List returns all sync state entries.
	List(ctx context.Context) ([]domain.SyncState, error)

	// RecordSuccess upserts the entry after a fully successful
	// fetch+write cycle. The stored timestamp only advances forward:
	// a syncTime older than the stored value is ignored.
	RecordSuccess(ctx context.Context, scopeKey string, syncTime time.Time, count int) error

	// RecordFailure increments the scope's error count without touching
	// its last sync timestamp, so the next run re-fetches the same window.
	RecordFailure(ctx context.Context, scopeKey string) error

	// Delete removes a scope's entry. Explicit admin action only.
	Delete(ctx context.Context, scopeKey string) error
}

// ChunkRefStore mirrors the set of indexed chunks relationally so the writer
// can diff a fresh batch against the index without reading vectors back.
type ChunkRefStore interface {
	// ListBySourceType returns the refs of every indexed chunk belonging
	// to the given object type.
	ListBySourceType(ctx context.Context, sourceType string) ([]domain.ChunkRef, error)

	// Upsert stores or updates a chunk ref.
	Upsert(ctx context.Context, ref domain.ChunkRef) error

	// Delete removes chunk refs by ID.
	Delete(ctx context.Context, ids []string) error
}
