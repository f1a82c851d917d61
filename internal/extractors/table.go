package extractors

import (
	"strings"

	"github.com/praxis-labs/bubblesync/internal/core/domain"
	"github.com/praxis-labs/bubblesync/internal/core/ports/driven"
)

// Ensure Table implements the interface.
var _ driven.Extractor = (*Table)(nil)

// Table is a declarative extractor: an ordered list of candidate field names
// per logical attribute, tried in order. It replaces per-type inline
// record.get("a") or record.get("b") chains with a small table.
type Table struct {
	name string

	// TextFields are concatenated in order when present, regardless of
	// length. A labelled field renders as "Label: value".
	TextFields []LabelledField

	// TitleFields are tried in order for the title attribute.
	TitleFields []string

	// MetadataFields are copied into metadata verbatim when present and
	// scalar, keyed by their label.
	MetadataFields []LabelledField
}

// LabelledField names a record field and the label it renders under.
// An empty label emits the bare value.
type LabelledField struct {
	Field string
	Label string
}

// NewTable creates a declarative extractor with the given name.
func NewTable(name string, opts ...TableOption) *Table {
	t := &Table{name: name}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TableOption configures a Table extractor.
type TableOption func(*Table)

// WithTextFields sets the ordered text fields.
func WithTextFields(fields ...LabelledField) TableOption {
	return func(t *Table) { t.TextFields = fields }
}

// WithTitleFields sets the ordered title candidates.
func WithTitleFields(fields ...string) TableOption {
	return func(t *Table) { t.TitleFields = fields }
}

// WithMetadataFields sets the metadata fields.
func WithMetadataFields(fields ...LabelledField) TableOption {
	return func(t *Table) { t.MetadataFields = fields }
}

// Name returns the extractor identifier.
func (t *Table) Name() string {
	return t.name
}

// Extract renders the record's text fields in table order and copies the
// metadata fields across.
func (t *Table) Extract(record domain.SourceRecord, objectType string) (string, map[string]any, error) {
	if record == nil {
		return "", nil, domain.ErrInvalidInput
	}

	var parts []string
	for _, f := range t.TextFields {
		v := strings.TrimSpace(record.StringField(f.Field))
		if v == "" {
			continue
		}
		if f.Label != "" {
			parts = append(parts, f.Label+": "+v)
		} else {
			parts = append(parts, v)
		}
	}

	metadata := BaseMetadata(record, objectType)
	for _, field := range t.TitleFields {
		if v := strings.TrimSpace(record.StringField(field)); v != "" {
			metadata[domain.MetaTitle] = v
			break
		}
	}
	for _, f := range t.MetadataFields {
		if v, ok := record[f.Field]; ok {
			key := f.Label
			if key == "" {
				key = f.Field
			}
			metadata[key] = v
		}
	}

	return strings.Join(parts, "\n\n"), metadata, nil
}
