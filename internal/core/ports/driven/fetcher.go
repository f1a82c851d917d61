package driven

import (
	"context"
	"time"

	"github.com/praxis-labs/bubblesync/internal/core/domain"
)

// RecordFetcher retrieves paginated batches of raw records from the source
// API for a given object type.
type RecordFetcher interface {
	// FetchAll streams every record of the given object type. When since
	// is non-nil a "modified after" filter is forwarded to the API; the
	// filter is advisory and server-side correctness is not guaranteed.
	//
	// Both channels are closed when the fetch finishes. A value on the
	// error channel terminates the stream: transient failures have
	// already been retried by the fetcher before they surface here.
	FetchAll(ctx context.Context, objectType string, since *time.Time) (<-chan domain.SourceRecord, <-chan error)
}
