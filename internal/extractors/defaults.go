package extractors

// RegisterDefaults registers the built-in object type extractors.
// Call this during application initialisation.
func RegisterDefaults(r *Registry) {
	r.Register("venue", NewTable("venue",
		WithTextFields(
			LabelledField{Field: "name"},
			LabelledField{Field: "description"},
			LabelledField{Field: "amenities", Label: "Amenities"},
			LabelledField{Field: "address", Label: "Address"},
		),
		WithTitleFields("name"),
		WithMetadataFields(
			LabelledField{Field: "capacity"},
			LabelledField{Field: "city"},
		),
	))

	r.Register("event", NewTable("event",
		WithTextFields(
			LabelledField{Field: "name"},
			LabelledField{Field: "description"},
			LabelledField{Field: "schedule", Label: "Schedule"},
		),
		WithTitleFields("name", "title"),
		WithMetadataFields(
			LabelledField{Field: "status"},
			LabelledField{Field: "start_date"},
		),
	))

	r.Register("faq", NewTable("faq",
		WithTextFields(
			LabelledField{Field: "question", Label: "Q"},
			LabelledField{Field: "answer", Label: "A"},
		),
		WithTitleFields("question"),
	))
}
