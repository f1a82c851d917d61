package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxis-labs/bubblesync/internal/adapters/driven/storage/memory"
	"github.com/praxis-labs/bubblesync/internal/core/domain"
)

func testChunk(source string, index int, text string) domain.Chunk {
	return domain.Chunk{
		ID:   domain.ChunkID(source, index),
		Text: text,
		Metadata: map[string]any{
			domain.MetaSource:     source,
			domain.MetaSourceType: "venue",
			"text":                text,
		},
	}
}

func newTestWriter() (*Writer, *memory.VectorIndex, *memory.ChunkRefStore, *fakeEmbedder) {
	index := memory.NewVectorIndex(4)
	refs := memory.NewChunkRefStore()
	embedder := newFakeEmbedder()
	return NewWriter(index, refs, embedder, nil), index, refs, embedder
}

func TestWriter_AddsNewChunks(t *testing.T) {
	writer, index, refs, _ := newTestWriter()
	ctx := context.Background()

	chunks := []domain.Chunk{
		testChunk("bubble://venue/a", 0, "first venue description text"),
		testChunk("bubble://venue/b", 0, "second venue description text"),
	}

	stats, err := writer.Reconcile(ctx, "venue", chunks, domain.CleanupFull)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Added)
	assert.Equal(t, 0, stats.Updated)
	assert.Equal(t, 0, stats.Deleted)
	assert.Equal(t, 2, index.Len())
	assert.Equal(t, 2, refs.Len())

	// Content hash travels with the vector.
	meta := index.Metadata("bubble://venue/a#0")
	require.NotNil(t, meta)
	assert.Equal(t, domain.ContentHash("first venue description text"), meta[domain.MetaContentHash])
}

func TestWriter_SkipsUnchangedChunks(t *testing.T) {
	writer, index, _, embedder := newTestWriter()
	ctx := context.Background()

	chunks := []domain.Chunk{
		testChunk("bubble://venue/a", 0, "first venue description text"),
	}

	_, err := writer.Reconcile(ctx, "venue", chunks, domain.CleanupFull)
	require.NoError(t, err)
	callsAfterFirst := embedder.embedCalls()

	// Re-running an identical batch must be a no-op on the index.
	stats, err := writer.Reconcile(ctx, "venue", chunks, domain.CleanupFull)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Added)
	assert.Equal(t, 0, stats.Updated)
	assert.Equal(t, 0, stats.Deleted)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, callsAfterFirst, embedder.embedCalls(), "unchanged chunks must not be re-embedded")
	assert.Equal(t, 1, index.Len())
}

func TestWriter_UpdatesChangedChunks(t *testing.T) {
	writer, index, _, _ := newTestWriter()
	ctx := context.Background()

	_, err := writer.Reconcile(ctx, "venue", []domain.Chunk{
		testChunk("bubble://venue/a", 0, "original venue description"),
	}, domain.CleanupFull)
	require.NoError(t, err)

	stats, err := writer.Reconcile(ctx, "venue", []domain.Chunk{
		testChunk("bubble://venue/a", 0, "edited venue description"),
	}, domain.CleanupFull)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Added)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 1, index.Len())
}

func TestWriter_FullCleanupRemovesAbsentSources(t *testing.T) {
	writer, index, refs, _ := newTestWriter()
	ctx := context.Background()

	_, err := writer.Reconcile(ctx, "venue", []domain.Chunk{
		testChunk("bubble://venue/a", 0, "first venue description text"),
		testChunk("bubble://venue/b", 0, "second venue description text"),
	}, domain.CleanupFull)
	require.NoError(t, err)

	// Next full batch no longer contains source b: it was deleted upstream.
	stats, err := writer.Reconcile(ctx, "venue", []domain.Chunk{
		testChunk("bubble://venue/a", 0, "first venue description text"),
	}, domain.CleanupFull)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Deleted)
	assert.False(t, index.Has("bubble://venue/b#0"))
	assert.Equal(t, 1, refs.Len())
}

func TestWriter_IncrementalCleanupKeepsAbsentSources(t *testing.T) {
	writer, index, _, _ := newTestWriter()
	ctx := context.Background()

	_, err := writer.Reconcile(ctx, "venue", []domain.Chunk{
		testChunk("bubble://venue/a", 0, "first venue description text"),
		testChunk("bubble://venue/b", 0, "second venue description text"),
	}, domain.CleanupFull)
	require.NoError(t, err)

	// A partial batch says nothing about absent sources.
	stats, err := writer.Reconcile(ctx, "venue", []domain.Chunk{
		testChunk("bubble://venue/a", 0, "first venue description edited"),
	}, domain.CleanupIncremental)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Deleted)
	assert.True(t, index.Has("bubble://venue/b#0"))
}

func TestWriter_IncrementalCleanupPrunesOrphanedChunks(t *testing.T) {
	writer, index, _, _ := newTestWriter()
	ctx := context.Background()

	// Source a initially produces two chunks.
	_, err := writer.Reconcile(ctx, "venue", []domain.Chunk{
		testChunk("bubble://venue/a", 0, "first part of a long description"),
		testChunk("bubble://venue/a", 1, "second part of a long description"),
	}, domain.CleanupFull)
	require.NoError(t, err)

	// The document shrank to one chunk; the orphan must go even though the
	// batch is incremental.
	stats, err := writer.Reconcile(ctx, "venue", []domain.Chunk{
		testChunk("bubble://venue/a", 0, "a much shorter description now"),
	}, domain.CleanupIncremental)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Deleted)
	assert.False(t, index.Has("bubble://venue/a#1"))
	assert.True(t, index.Has("bubble://venue/a#0"))
}

func TestWriter_CleanupNoneNeverDeletes(t *testing.T) {
	writer, index, _, _ := newTestWriter()
	ctx := context.Background()

	_, err := writer.Reconcile(ctx, "venue", []domain.Chunk{
		testChunk("bubble://venue/a", 0, "first venue description text"),
	}, domain.CleanupFull)
	require.NoError(t, err)

	stats, err := writer.Reconcile(ctx, "venue", nil, domain.CleanupNone)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Deleted)
	assert.True(t, index.Has("bubble://venue/a#0"))
}

func TestWriter_PartialFailureContinues(t *testing.T) {
	writer, index, _, embedder := newTestWriter()
	embedder.failOn = "poison"
	embedder.failWith = errors.New("embedding backend exploded")
	ctx := context.Background()

	stats, err := writer.Reconcile(ctx, "venue", []domain.Chunk{
		testChunk("bubble://venue/a", 0, "healthy venue description text"),
		testChunk("bubble://venue/b", 0, "poison chunk that cannot embed"),
		testChunk("bubble://venue/c", 0, "another healthy description text"),
	}, domain.CleanupFull)
	require.NoError(t, err, "a single bad chunk must not fail the batch")
	assert.Equal(t, 2, stats.Added)
	assert.Len(t, stats.Failures, 1)
	assert.Equal(t, "bubble://venue/b#0", stats.Failures[0].ChunkID)
	assert.True(t, index.Has("bubble://venue/a#0"))
	assert.False(t, index.Has("bubble://venue/b#0"))
}

func TestWriter_AllFailedIsAnError(t *testing.T) {
	writer, _, _, embedder := newTestWriter()
	embedder.failOn = "venue"
	embedder.failWith = domain.ErrEmbeddingUnavailable
	ctx := context.Background()

	_, err := writer.Reconcile(ctx, "venue", []domain.Chunk{
		testChunk("bubble://venue/a", 0, "venue description one here"),
		testChunk("bubble://venue/b", 0, "venue description two here"),
	}, domain.CleanupFull)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestWriter_DimensionMismatchIsAFailure(t *testing.T) {
	index := memory.NewVectorIndex(8) // embedder emits 4
	refs := memory.NewChunkRefStore()
	embedder := newFakeEmbedder()
	writer := NewWriter(index, refs, embedder, nil)
	ctx := context.Background()

	_, err := writer.Reconcile(ctx, "venue", []domain.Chunk{
		testChunk("bubble://venue/a", 0, "venue description one here"),
	}, domain.CleanupFull)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, 0, index.Len())
}
