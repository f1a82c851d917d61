package domain

import "time"

// Field names the Bubble Data API uses for record identity and timestamps.
const (
	// FieldID is the unique record identifier field.
	FieldID = "_id"

	// FieldCreated is the record creation timestamp field.
	FieldCreated = "Created Date"

	// FieldModified is the record modification timestamp field.
	FieldModified = "Modified Date"
)

// SourceRecord is an opaque key-value record as returned by the source API.
// It is ephemeral: records are mapped into Documents and never persisted
// verbatim.
type SourceRecord map[string]any

// ID returns the record's unique identifier, or empty string if absent.
func (r SourceRecord) ID() string {
	return r.StringField(FieldID)
}

// StringField returns the named field as a string, or empty string if the
// field is absent or not a string.
func (r SourceRecord) StringField(key string) string {
	if v, ok := r[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ModifiedAt returns the record's modification timestamp, falling back to
// the creation timestamp. Returns the zero time when neither parses.
func (r SourceRecord) ModifiedAt() time.Time {
	for _, key := range []string{FieldModified, FieldCreated} {
		if ts := parseTimestamp(r.StringField(key)); !ts.IsZero() {
			return ts
		}
	}
	return time.Time{}
}

// parseTimestamp parses the ISO timestamp formats the source API emits.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000Z"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}
