package extractors

import (
	"fmt"
	"strings"

	"github.com/praxis-labs/bubblesync/internal/core/domain"
	"github.com/praxis-labs/bubblesync/internal/core/ports/driven"
)

// MinFieldLength is the minimum length for a string field to participate
// in generic text extraction. Shorter values are usually labels or flags.
const MinFieldLength = 10

// candidateTextFields are the fields the generic extractor concatenates,
// in order, when present on a record.
var candidateTextFields = []string{
	"name", "title", "description", "content", "text",
	"body", "details", "summary", "notes",
}

// candidateTitleFields are tried in order when picking a title.
var candidateTitleFields = []string{"name", "title", "subject", "label"}

// Ensure Generic implements the interface.
var _ driven.Extractor = (*Generic)(nil)

// Generic extracts text from any record by concatenating known candidate
// fields. It is the fallback for object types without a dedicated extractor.
type Generic struct{}

// NewGeneric creates a new generic extractor.
func NewGeneric() *Generic {
	return &Generic{}
}

// Name returns the extractor identifier.
func (g *Generic) Name() string {
	return "generic"
}

// Extract concatenates every candidate field whose value is a string longer
// than MinFieldLength characters.
func (g *Generic) Extract(record domain.SourceRecord, objectType string) (string, map[string]any, error) {
	if record == nil {
		return "", nil, domain.ErrInvalidInput
	}

	var parts []string
	for _, field := range candidateTextFields {
		if v := record.StringField(field); len(v) > MinFieldLength {
			parts = append(parts, strings.TrimSpace(v))
		}
	}

	return strings.Join(parts, "\n\n"), BaseMetadata(record, objectType), nil
}

// BaseMetadata builds the metadata every extractor emits: source URI,
// source type, record ID and a best-effort title.
func BaseMetadata(record domain.SourceRecord, objectType string) map[string]any {
	id := record.ID()
	return map[string]any{
		domain.MetaSource:     domain.SourceURI(objectType, id),
		domain.MetaSourceType: objectType,
		domain.MetaRecordID:   id,
		domain.MetaTitle:      titleFor(record, objectType),
	}
}

// titleFor picks the first usable title field, falling back to
// "{objectType} {first 8 chars of id}".
func titleFor(record domain.SourceRecord, objectType string) string {
	for _, field := range candidateTitleFields {
		if v := strings.TrimSpace(record.StringField(field)); v != "" {
			return v
		}
	}
	id := record.ID()
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s %s", objectType, id)
}
