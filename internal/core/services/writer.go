package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/praxis-labs/bubblesync/internal/core/domain"
	"github.com/praxis-labs/bubblesync/internal/core/ports/driven"
)

// Writer reconciles a fresh batch of chunks against the vector index:
// upserts for new or changed chunks, deletes for stale ones according to
// the cleanup mode. Chunk refs are mirrored in the relational store so the
// diff never needs to read vectors back.
type Writer struct {
	index    driven.VectorIndex
	refs     driven.ChunkRefStore
	embedder driven.EmbeddingService
	logger   *zap.Logger
}

// NewWriter creates a writer. Pass a nil logger for no-op logging.
func NewWriter(index driven.VectorIndex, refs driven.ChunkRefStore, embedder driven.EmbeddingService, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		index:    index,
		refs:     refs,
		embedder: embedder,
		logger:   logger,
	}
}

// Reconcile writes the batch for one object type and prunes stale chunks.
//
// A chunk whose stored content hash matches is skipped without re-embedding;
// that is a performance optimisation only, since re-embedding is not
// guaranteed idempotent across provider versions. Per-chunk failures are
// collected into the stats and do not abort the batch; Reconcile returns an
// error only when every attempted chunk failed.
func (w *Writer) Reconcile(ctx context.Context, objectType string, chunks []domain.Chunk, mode domain.CleanupMode) (domain.WriteStats, error) {
	var stats domain.WriteStats

	if w.index == nil {
		return stats, domain.ErrVectorIndexUnavailable
	}
	if w.embedder == nil {
		return stats, domain.ErrEmbeddingUnavailable
	}

	existing, err := w.refs.ListBySourceType(ctx, objectType)
	if err != nil {
		return stats, fmt.Errorf("list chunk refs: %w", err)
	}
	existingByID := make(map[string]domain.ChunkRef, len(existing))
	for _, ref := range existing {
		existingByID[ref.ID] = ref
	}

	batchIDs := make(map[string]struct{}, len(chunks))
	batchSources := make(map[string]struct{})

	for _, chunk := range chunks {
		batchIDs[chunk.ID] = struct{}{}
		batchSources[chunk.Source()] = struct{}{}

		hash := domain.ContentHash(chunk.Text)
		prev, known := existingByID[chunk.ID]
		if known && prev.ContentHash == hash {
			stats.Skipped++
			continue
		}

		if err := w.writeChunk(ctx, objectType, chunk, hash); err != nil {
			w.logger.Warn("chunk write failed",
				zap.String("chunk_id", chunk.ID),
				zap.Error(err),
			)
			stats.Failures = append(stats.Failures, domain.ChunkFailure{ChunkID: chunk.ID, Err: err})
			continue
		}

		if known {
			stats.Updated++
		} else {
			stats.Added++
		}
	}

	stale := staleIDs(existing, batchIDs, batchSources, mode)
	if len(stale) > 0 {
		if err := w.index.Delete(ctx, stale); err != nil {
			return stats, fmt.Errorf("delete stale chunks: %w", err)
		}
		if err := w.refs.Delete(ctx, stale); err != nil {
			return stats, fmt.Errorf("delete stale chunk refs: %w", err)
		}
		stats.Deleted = len(stale)
	}

	if attempted := stats.Attempted(); attempted > 0 && len(stats.Failures) == attempted {
		return stats, fmt.Errorf("all %d chunks failed: %w", attempted, stats.Failures[0].Err)
	}

	w.logger.Info("reconcile complete",
		zap.String("object_type", objectType),
		zap.String("cleanup_mode", string(mode)),
		zap.Int("added", stats.Added),
		zap.Int("updated", stats.Updated),
		zap.Int("deleted", stats.Deleted),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", len(stats.Failures)),
	)
	return stats, nil
}

// writeChunk embeds one chunk and upserts it to the index and the ref store.
func (w *Writer) writeChunk(ctx context.Context, objectType string, chunk domain.Chunk, hash string) error {
	vector, err := w.embedder.Embed(ctx, chunk.Text)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(vector) != w.index.Dimensions() {
		return fmt.Errorf("%w: got %d, index expects %d",
			domain.ErrDimensionMismatch, len(vector), w.index.Dimensions())
	}

	metadata := make(map[string]any, len(chunk.Metadata)+2)
	for k, v := range chunk.Metadata {
		metadata[k] = v
	}
	metadata[domain.MetaContentHash] = hash
	// The index stores the chunk text alongside the vector so search
	// results can show it without a second lookup.
	metadata["text"] = chunk.Text

	if err := w.index.Upsert(ctx, chunk.ID, vector, metadata); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	ref := domain.ChunkRef{
		ID:          chunk.ID,
		Source:      chunk.Source(),
		SourceType:  objectType,
		ContentHash: hash,
	}
	if err := w.refs.Upsert(ctx, ref); err != nil {
		return fmt.Errorf("upsert chunk ref: %w", err)
	}
	return nil
}

// staleIDs selects the previously indexed chunks the cleanup mode allows
// deleting.
//
// Full cleanup assumes the batch is the complete universe of the scope and
// removes every chunk whose source is absent. Incremental cleanup only
// prunes orphaned chunk IDs of sources present in the batch — a document
// that shrank from five chunks to three leaves two orphans — and never
// touches absent sources, since a partial batch says nothing about them.
func staleIDs(existing []domain.ChunkRef, batchIDs, batchSources map[string]struct{}, mode domain.CleanupMode) []string {
	var stale []string
	for _, ref := range existing {
		if _, inBatch := batchIDs[ref.ID]; inBatch {
			continue
		}
		switch mode {
		case domain.CleanupFull:
			// Absent sources and orphaned IDs of present sources alike.
			stale = append(stale, ref.ID)
		case domain.CleanupIncremental:
			if _, sourceInBatch := batchSources[ref.Source]; sourceInBatch {
				stale = append(stale, ref.ID)
			}
		case domain.CleanupNone:
		}
	}
	return stale
}
