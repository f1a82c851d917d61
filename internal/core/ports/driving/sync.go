package driving

import (
	"context"
	"time"

	"github.com/praxis-labs/bubblesync/internal/core/domain"
)

// SyncOrchestrator coordinates record synchronisation across object types.
type SyncOrchestrator interface {
	// Run synchronises the given object types sequentially and returns an
	// aggregate report. One object type's failure never aborts the run.
	Run(ctx context.Context, objectTypes []string, opts RunOptions) (*RunReport, error)

	// Status returns the stored sync state for every known scope.
	Status(ctx context.Context) ([]domain.SyncState, error)
}

// RunOptions controls a sync run.
type RunOptions struct {
	// Full forces a complete pull (since=null) and enables full cleanup
	// for every object type in the run.
	Full bool

	// DryRun fetches, maps and chunks but writes nothing and does not
	// advance sync state.
	DryRun bool
}

// ScopeState is the per-object-type sync state machine.
type ScopeState string

// State machine: Pending -> Fetching -> Mapping -> Writing -> Done,
// with Failed reachable from any state.
const (
	ScopePending  ScopeState = "pending"
	ScopeFetching ScopeState = "fetching"
	ScopeMapping  ScopeState = "mapping"
	ScopeWriting  ScopeState = "writing"
	ScopeDone     ScopeState = "done"
	ScopeFailed   ScopeState = "failed"
)

// ScopeResult is the outcome of syncing one object type.
type ScopeResult struct {
	// ObjectType is the scope that was synced.
	ObjectType string

	// State is the terminal state the scope reached.
	State ScopeState

	// Full reports whether the scope was synced with since=null.
	Full bool

	// Records is the number of raw records fetched.
	Records int

	// Documents is the number of documents that survived mapping.
	Documents int

	// Chunks is the number of chunks produced.
	Chunks int

	// Dropped is the number of records dropped by mapping rules or
	// per-record mapping errors.
	Dropped int

	// Write is the reconcile outcome. Zero value for dry runs.
	Write domain.WriteStats
}

// ScopeError pairs a failed object type with its cause.
type ScopeError struct {
	// ObjectType is the scope that failed.
	ObjectType string

	// Err is the failure cause.
	Err error
}

// RunReport aggregates a whole multi-type sync run.
type RunReport struct {
	// RunID uniquely identifies the run.
	RunID string

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the run completed.
	FinishedAt time.Time

	// Results holds one entry per object type, in run order.
	Results []ScopeResult

	// Errors lists every object-type-level failure.
	Errors []ScopeError
}

// TotalDocuments returns the number of documents indexed across all scopes.
// The process exit code is derived from this: zero means total failure.
func (r *RunReport) TotalDocuments() int {
	total := 0
	for _, res := range r.Results {
		if res.State == ScopeDone {
			total += res.Documents
		}
	}
	return total
}

// TotalChunksWritten returns added plus updated chunks across all scopes.
func (r *RunReport) TotalChunksWritten() int {
	total := 0
	for _, res := range r.Results {
		total += res.Write.Added + res.Write.Updated
	}
	return total
}
