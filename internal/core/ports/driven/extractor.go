package driven

import "github.com/praxis-labs/bubblesync/internal/core/domain"

// Extractor turns one raw source record into display text and metadata for
// a given object type. Extractors are pure: no side effects, no I/O.
type Extractor interface {
	// Name returns the extractor identifier.
	Name() string

	// Extract returns the record's display text and metadata.
	// An empty text means the record has nothing worth indexing.
	Extract(record domain.SourceRecord, objectType string) (text string, metadata map[string]any, err error)
}

// ExtractorRegistry resolves the extractor for an object type, falling back
// to a generic extractor for unregistered types.
type ExtractorRegistry interface {
	// For returns the extractor responsible for the given object type.
	For(objectType string) Extractor

	// Register binds an extractor to an object type.
	Register(objectType string, extractor Extractor)
}
