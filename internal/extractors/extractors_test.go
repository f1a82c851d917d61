package extractors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxis-labs/bubblesync/internal/core/domain"
)

func TestGeneric_ConcatenatesCandidateFields(t *testing.T) {
	extractor := NewGeneric()

	record := domain.SourceRecord{
		"_id":         "r1",
		"name":        "Harbour View Apartments",
		"description": "Waterfront apartments with two bedrooms and a shared gym.",
		"notes":       "Recently renovated kitchen and bathrooms.",
		"status":      "active", // not a candidate field
	}

	text, metadata, err := extractor.Extract(record, "listing")
	require.NoError(t, err)
	assert.Contains(t, text, "Harbour View Apartments")
	assert.Contains(t, text, "shared gym")
	assert.Contains(t, text, "renovated kitchen")
	assert.NotContains(t, text, "active")

	assert.Equal(t, "bubble://listing/r1", metadata[domain.MetaSource])
	assert.Equal(t, "listing", metadata[domain.MetaSourceType])
	assert.Equal(t, "Harbour View Apartments", metadata[domain.MetaTitle])
}

func TestGeneric_SkipsShortFields(t *testing.T) {
	extractor := NewGeneric()

	// All values at or below the field length floor.
	text, _, err := extractor.Extract(domain.SourceRecord{
		"_id":  "r1",
		"name": "short",
		"body": "tiny",
	}, "listing")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestGeneric_TitleFallback(t *testing.T) {
	extractor := NewGeneric()

	_, metadata, err := extractor.Extract(domain.SourceRecord{
		"_id":         "1688000000000x1234567890",
		"description": "A record with no usable title field at all.",
	}, "listing")
	require.NoError(t, err)
	assert.Equal(t, "listing 16880000", metadata[domain.MetaTitle])
}

func TestGeneric_NilRecord(t *testing.T) {
	_, _, err := NewGeneric().Extract(nil, "listing")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTable_RendersLabelledFields(t *testing.T) {
	extractor := NewTable("faq",
		WithTextFields(
			LabelledField{Field: "question", Label: "Q"},
			LabelledField{Field: "answer", Label: "A"},
		),
		WithTitleFields("question"),
	)

	record := domain.SourceRecord{
		"_id":      "f1",
		"question": "Is parking available?",
		"answer":   "Yes, 300 spots on site.",
	}

	text, metadata, err := extractor.Extract(record, "faq")
	require.NoError(t, err)
	assert.Equal(t, "Q: Is parking available?\n\nA: Yes, 300 spots on site.", text)
	assert.Equal(t, "Is parking available?", metadata[domain.MetaTitle])
}

func TestTable_SkipsMissingFields(t *testing.T) {
	extractor := NewTable("venue",
		WithTextFields(
			LabelledField{Field: "name"},
			LabelledField{Field: "description"},
			LabelledField{Field: "amenities", Label: "Amenities"},
		),
	)

	text, _, err := extractor.Extract(domain.SourceRecord{
		"_id":  "v1",
		"name": "Beach Club",
	}, "venue")
	require.NoError(t, err)
	assert.Equal(t, "Beach Club", text)
}

func TestTable_CopiesMetadataFields(t *testing.T) {
	extractor := NewTable("venue",
		WithTextFields(LabelledField{Field: "name"}),
		WithMetadataFields(
			LabelledField{Field: "capacity"},
			LabelledField{Field: "city", Label: "location"},
		),
	)

	_, metadata, err := extractor.Extract(domain.SourceRecord{
		"_id":      "v1",
		"name":     "Beach Club",
		"capacity": float64(200),
		"city":     "Lisbon",
	}, "venue")
	require.NoError(t, err)
	assert.Equal(t, float64(200), metadata["capacity"])
	assert.Equal(t, "Lisbon", metadata["location"])
}

func TestRegistry_FallsBackToGeneric(t *testing.T) {
	registry := NewRegistry()
	RegisterDefaults(registry)

	assert.Equal(t, "venue", registry.For("venue").Name())
	assert.Equal(t, "generic", registry.For("unknown_type").Name())
}

func TestRegistry_RegisterOverrides(t *testing.T) {
	registry := NewRegistry()
	registry.Register("venue", NewTable("custom-venue"))
	assert.Equal(t, "custom-venue", registry.For("venue").Name())
}
