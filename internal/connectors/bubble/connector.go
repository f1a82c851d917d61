package bubble

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/praxis-labs/bubblesync/internal/core/domain"
	"github.com/praxis-labs/bubblesync/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.RecordFetcher = (*Connector)(nil)

// Connector streams records from the Bubble Data API, paging with a cursor
// that advances by the count of records each page returned.
type Connector struct {
	client *Client
	logger *zap.Logger
}

// NewConnector creates a record fetcher on top of an API client.
// Pass a nil logger for no-op logging.
func NewConnector(client *Client, logger *zap.Logger) *Connector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connector{
		client: client,
		logger: logger,
	}
}

// FetchAll streams every record of the object type. When since is non-nil
// a "Modified Date greater than" constraint is forwarded with each page
// request. The stream terminates when the API reports zero remaining
// records or returns an empty page.
func (c *Connector) FetchAll(ctx context.Context, objectType string, since *time.Time) (<-chan domain.SourceRecord, <-chan error) {
	records := make(chan domain.SourceRecord)
	errs := make(chan error, 1)

	var constraints []Constraint
	if since != nil {
		constraints = append(constraints, ModifiedAfter(*since))
	}

	go func() {
		defer close(records)
		defer close(errs)

		cursor := 0
		for {
			page, err := c.client.FetchPage(ctx, objectType, cursor, constraints)
			if err != nil {
				errs <- err
				return
			}

			c.logger.Debug("fetched page",
				zap.String("object_type", objectType),
				zap.Int("cursor", cursor),
				zap.Int("count", page.Count),
				zap.Int("remaining", page.Remaining),
			)

			for _, record := range page.Results {
				select {
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				case records <- record:
				}
			}

			if page.Remaining <= 0 || len(page.Results) == 0 {
				return
			}
			cursor += len(page.Results)
		}
	}()

	return records, errs
}
