package services

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/praxis-labs/bubblesync/internal/core/domain"
	"github.com/praxis-labs/bubblesync/internal/core/ports/driven"
)

// Default content-quality thresholds for mapping.
const (
	// DefaultMinTextLength is the minimum extracted text length.
	// The chunker enforces a stricter post-split floor on top of this.
	DefaultMinTextLength = 20

	// DefaultMaxTextLength is the maximum extracted text length.
	// Oversized records are dropped rather than truncated, to avoid
	// indexing partial content under a full-content title.
	DefaultMaxTextLength = 10000
)

// DefaultDenyList contains placeholder patterns that disqualify a record,
// matched case-insensitively as substrings.
var DefaultDenyList = []string{
	"lorem ipsum",
	"test data",
	"sample text",
	"placeholder",
}

// RecordFilter decides whether a record may be indexed at all.
// Returning false drops the record before extraction. Deployments use this
// for privacy rules; the core ships no canonical predicate.
type RecordFilter func(record domain.SourceRecord) bool

// MapperConfig holds content-quality settings for the mapper.
type MapperConfig struct {
	// MinTextLength is the minimum extracted text length (default 20).
	MinTextLength int

	// MaxTextLength is the maximum extracted text length (default 10000).
	MaxTextLength int

	// DenyList is the set of case-insensitive placeholder substrings.
	DenyList []string
}

// ApplyDefaults sets default values for unset fields.
func (c *MapperConfig) ApplyDefaults() {
	if c.MinTextLength == 0 {
		c.MinTextLength = DefaultMinTextLength
	}
	if c.MaxTextLength == 0 {
		c.MaxTextLength = DefaultMaxTextLength
	}
	if c.DenyList == nil {
		c.DenyList = DefaultDenyList
	}
}

// Mapper converts source records into documents, enforcing content-quality
// rules and per-run deduplication by content hash.
type Mapper struct {
	cfg      MapperConfig
	registry driven.ExtractorRegistry
	filter   RecordFilter
	logger   *zap.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// MapperOption configures the mapper.
type MapperOption func(*Mapper)

// WithRecordFilter sets an optional record-level predicate.
func WithRecordFilter(filter RecordFilter) MapperOption {
	return func(m *Mapper) { m.filter = filter }
}

// WithMapperLogger sets the mapper's logger.
func WithMapperLogger(logger *zap.Logger) MapperOption {
	return func(m *Mapper) { m.logger = logger }
}

// NewMapper creates a mapper using the given extractor registry.
func NewMapper(registry driven.ExtractorRegistry, cfg MapperConfig, opts ...MapperOption) *Mapper {
	cfg.ApplyDefaults()
	m := &Mapper{
		cfg:      cfg,
		registry: registry,
		logger:   zap.NewNop(),
		seen:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ResetRun clears the per-run deduplication set. Called at the start of
// every sync run; deduplication is per-run, never cross-run.
func (m *Mapper) ResetRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = make(map[string]struct{})
}

// Map converts one record into a document. Returns (nil, nil) when the
// record is dropped by a quality rule; an error only for malformed records.
func (m *Mapper) Map(record domain.SourceRecord, objectType string) (*domain.Document, error) {
	if record == nil {
		return nil, domain.ErrInvalidInput
	}
	if m.filter != nil && !m.filter(record) {
		return nil, nil
	}

	text, metadata, err := m.registry.For(objectType).Extract(record, objectType)
	if err != nil {
		return nil, fmt.Errorf("extract %s/%s: %w", objectType, record.ID(), err)
	}

	text = strings.TrimSpace(text)
	if reason := m.disqualify(text); reason != "" {
		m.logger.Debug("record dropped",
			zap.String("object_type", objectType),
			zap.String("record_id", record.ID()),
			zap.String("reason", reason),
		)
		return nil, nil
	}

	hash := domain.ContentHash(text)
	if m.alreadySeen(hash) {
		m.logger.Debug("record dropped",
			zap.String("object_type", objectType),
			zap.String("record_id", record.ID()),
			zap.String("reason", "duplicate content"),
		)
		return nil, nil
	}

	return &domain.Document{
		Text:     text,
		Metadata: stripEmpty(metadata),
	}, nil
}

// disqualify returns a drop reason when the text fails a quality rule,
// or empty string when the text is acceptable.
func (m *Mapper) disqualify(text string) string {
	switch {
	case len(text) < m.cfg.MinTextLength:
		return "too short"
	case len(text) > m.cfg.MaxTextLength:
		return "too long"
	}
	lower := strings.ToLower(text)
	for _, pattern := range m.cfg.DenyList {
		if strings.Contains(lower, pattern) {
			return "placeholder content"
		}
	}
	return ""
}

// alreadySeen records the hash and reports whether it was seen earlier
// in the current run.
func (m *Mapper) alreadySeen(hash string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[hash]; ok {
		return true
	}
	m.seen[hash] = struct{}{}
	return false
}

// stripEmpty removes nil and empty-string metadata values.
// Most vector indexes reject null metadata values outright.
func stripEmpty(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		out[k] = v
	}
	return out
}
