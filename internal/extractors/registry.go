package extractors

import (
	"sync"

	"github.com/praxis-labs/bubblesync/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry maps object type names to extractors.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]driven.Extractor
	fallback   driven.Extractor
}

// NewRegistry creates a registry with the generic extractor as fallback.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[string]driven.Extractor),
		fallback:   NewGeneric(),
	}
}

// Register binds an extractor to an object type.
// Registering the same type twice replaces the earlier binding.
func (r *Registry) Register(objectType string, extractor driven.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[objectType] = extractor
}

// For returns the extractor for an object type, or the generic fallback.
func (r *Registry) For(objectType string) driven.Extractor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.extractors[objectType]; ok {
		return e
	}
	return r.fallback
}

// Types returns all explicitly registered object types.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.extractors))
	for t := range r.extractors {
		types = append(types, t)
	}
	return types
}
