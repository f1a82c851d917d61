package domain

import "fmt"

// Metadata keys every Document and Chunk carries.
const (
	// MetaSource is the stable URI identifying the originating record.
	// It is the join key between the sync state, the chunk refs and the
	// vector index, and must be deterministic across runs.
	MetaSource = "source"

	// MetaSourceType is the object type the record came from.
	MetaSourceType = "source_type"

	// MetaRecordID is the source record's own identifier.
	MetaRecordID = "record_id"

	// MetaTitle is the best-effort human-readable title.
	MetaTitle = "title"

	// MetaContentHash is the hex SHA-256 of the chunk text, stored
	// alongside the vector to skip re-embedding unchanged content.
	MetaContentHash = "content_hash"
)

// SourceURI builds the canonical source URI for a record.
// The same logical record always yields the same URI.
func SourceURI(objectType, recordID string) string {
	return fmt.Sprintf("bubble://%s/%s", objectType, recordID)
}

// Document is the mapped representation of one source record:
// extracted display text plus scalar metadata.
type Document struct {
	// Text is the full extracted text before chunking.
	Text string

	// Metadata holds scalar key-value pairs. Always includes
	// MetaSource, MetaSourceType and MetaRecordID.
	Metadata map[string]any
}

// Source returns the document's source URI.
func (d *Document) Source() string {
	return metaString(d.Metadata, MetaSource)
}

// Title returns the document's title, or empty string.
func (d *Document) Title() string {
	return metaString(d.Metadata, MetaTitle)
}

// Chunk is a bounded-length slice of a Document's text, the unit that is
// embedded and stored. Chunks are created fresh every run and never mutated;
// their IDs are derived from (source, index) so re-chunking an unchanged
// document produces identical IDs.
type Chunk struct {
	// ID is the deterministic chunk identifier.
	ID string

	// Text is the chunk's text content.
	Text string

	// Metadata is the parent document's metadata plus chunk-level keys.
	Metadata map[string]any
}

// Source returns the chunk's source URI.
func (c *Chunk) Source() string {
	return metaString(c.Metadata, MetaSource)
}

// ChunkID derives the deterministic identifier for a chunk of the given
// source at the given position.
func ChunkID(source string, index int) string {
	return fmt.Sprintf("%s#%d", source, index)
}

// ChunkRef is the bookkeeping view of an indexed chunk: enough to diff the
// current batch against what the index already holds without reading vectors.
type ChunkRef struct {
	// ID is the chunk identifier.
	ID string

	// Source is the owning document's source URI.
	Source string

	// SourceType is the object type the chunk belongs to.
	SourceType string

	// ContentHash is the hex SHA-256 of the indexed chunk text.
	ContentHash string
}

func metaString(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
