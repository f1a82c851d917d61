package domain

import "time"

// SyncState tracks synchronisation progress for one scope (object type).
type SyncState struct {
	// ScopeKey identifies the scope, usually the object type.
	ScopeKey string

	// LastSync is when the last fully successful sync for this scope
	// started. Only ever advances forward.
	LastSync time.Time

	// LastCount is the document count of the last successful sync.
	LastCount int

	// ErrorCount is the number of failed sync cycles recorded.
	ErrorCount int

	// CreatedAt is when the scope was first synced.
	CreatedAt time.Time

	// UpdatedAt is when the entry was last written.
	UpdatedAt time.Time
}

// CleanupMode controls which stale chunks a reconcile pass may delete.
type CleanupMode string

const (
	// CleanupFull deletes every indexed chunk whose source is absent from
	// the batch. Only safe when the batch is a complete, unfiltered pull.
	CleanupFull CleanupMode = "full"

	// CleanupIncremental deletes only orphaned chunk IDs of sources
	// present in the batch. Sources absent from a partial batch are
	// never touched.
	CleanupIncremental CleanupMode = "incremental"

	// CleanupNone performs upserts only.
	CleanupNone CleanupMode = "none"
)

// ChunkFailure records a single chunk that failed to embed or upsert.
type ChunkFailure struct {
	// ChunkID is the failed chunk.
	ChunkID string

	// Err is the failure cause.
	Err error
}

// WriteStats is the outcome of one reconcile pass.
type WriteStats struct {
	// Added is the number of chunks newly inserted.
	Added int

	// Updated is the number of chunks re-embedded because their content
	// hash changed.
	Updated int

	// Deleted is the number of stale chunks removed.
	Deleted int

	// Skipped is the number of chunks left untouched because their
	// content hash matched the index.
	Skipped int

	// Failures lists per-chunk embed/upsert failures. The batch
	// continues past individual failures.
	Failures []ChunkFailure
}

// Attempted returns the number of chunks the writer tried to write.
func (s *WriteStats) Attempted() int {
	return s.Added + s.Updated + len(s.Failures)
}
