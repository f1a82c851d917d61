package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxis-labs/bubblesync/internal/adapters/driven/storage/memory"
	"github.com/praxis-labs/bubblesync/internal/core/domain"
	"github.com/praxis-labs/bubblesync/internal/core/ports/driving"
	"github.com/praxis-labs/bubblesync/internal/extractors"
	"github.com/praxis-labs/bubblesync/internal/postprocessors"
	"github.com/praxis-labs/bubblesync/internal/postprocessors/chunker"
)

// syncFixture wires a full orchestrator on in-memory adapters.
type syncFixture struct {
	fetcher *fakeFetcher
	index   *memory.VectorIndex
	refs    *memory.ChunkRefStore
	states  *memory.SyncStateStore
	orch    *Orchestrator
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	registry := extractors.NewRegistry()
	extractors.RegisterDefaults(registry)

	fetcher := newFakeFetcher()
	index := memory.NewVectorIndex(4)
	refs := memory.NewChunkRefStore()
	states := memory.NewSyncStateStore()

	mapper := NewMapper(registry, MapperConfig{})
	pipeline := postprocessors.NewPipeline(chunker.New())
	writer := NewWriter(index, refs, newFakeEmbedder(), nil)

	return &syncFixture{
		fetcher: fetcher,
		index:   index,
		refs:    refs,
		states:  states,
		orch:    NewOrchestrator(fetcher, mapper, pipeline, writer, states, nil),
	}
}

func TestOrchestrator_EndToEnd(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.fetcher.records["venue"] = []domain.SourceRecord{
		{
			"_id":         "e1",
			"name":        "Beach Club",
			"description": "A beachfront venue with ocean views and a pool, suitable for up to 200 guests.",
		},
	}

	report, err := f.orch.Run(ctx, []string{"venue"}, driving.RunOptions{})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	require.Empty(t, report.Errors)

	res := report.Results[0]
	assert.Equal(t, driving.ScopeDone, res.State)
	assert.True(t, res.Full, "first sync has no stored timestamp and must be full")
	assert.Equal(t, 1, res.Records)
	assert.Equal(t, 1, res.Documents)
	assert.Equal(t, 1, res.Chunks)
	assert.Equal(t, 1, res.Write.Added)
	assert.Equal(t, 1, report.TotalDocuments())

	// The chunk landed under its deterministic ID with full metadata.
	require.True(t, f.index.Has("bubble://venue/e1#0"))
	meta := f.index.Metadata("bubble://venue/e1#0")
	assert.Equal(t, "bubble://venue/e1", meta[domain.MetaSource])
	assert.Equal(t, "venue", meta[domain.MetaSourceType])
	assert.Equal(t, "Beach Club", meta[domain.MetaTitle])
	text, _ := meta["text"].(string)
	assert.Contains(t, text, "Beach Club")
	assert.Contains(t, text, "200 guests")

	// Sync state advanced.
	state, err := f.states.Get(ctx, "venue")
	require.NoError(t, err)
	assert.False(t, state.LastSync.IsZero())
	assert.Equal(t, 1, state.LastCount)
	assert.Equal(t, 0, state.ErrorCount)
}

func TestOrchestrator_SecondRunIsIncremental(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.fetcher.records["venue"] = []domain.SourceRecord{
		{
			"_id":         "e1",
			"name":        "Beach Club",
			"description": "A beachfront venue with ocean views and a pool, suitable for up to 200 guests.",
		},
	}
	_, err := f.orch.Run(ctx, []string{"venue"}, driving.RunOptions{})
	require.NoError(t, err)
	require.Nil(t, f.fetcher.lastSince("venue"))

	// Nothing changed since: the fetch window is bounded and the empty
	// batch must not destroy existing chunks.
	f.fetcher.records["venue"] = nil
	report, err := f.orch.Run(ctx, []string{"venue"}, driving.RunOptions{})
	require.NoError(t, err)
	require.NotNil(t, f.fetcher.lastSince("venue"), "second run must pass the stored timestamp")

	res := report.Results[0]
	assert.Equal(t, driving.ScopeDone, res.State)
	assert.False(t, res.Full)
	assert.Equal(t, 0, res.Records)
	assert.Equal(t, 0, res.Write.Deleted)
	assert.True(t, f.index.Has("bubble://venue/e1#0"), "incremental empty batch must keep the index intact")
}

func TestOrchestrator_RerunIsIdempotent(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.fetcher.records["venue"] = []domain.SourceRecord{
		{
			"_id":         "e1",
			"name":        "Beach Club",
			"description": "A beachfront venue with ocean views and a pool, suitable for up to 200 guests.",
		},
	}
	_, err := f.orch.Run(ctx, []string{"venue"}, driving.RunOptions{Full: true})
	require.NoError(t, err)

	// Same source state, forced full re-pull: nothing is re-written.
	report, err := f.orch.Run(ctx, []string{"venue"}, driving.RunOptions{Full: true})
	require.NoError(t, err)
	res := report.Results[0]
	assert.Equal(t, 0, res.Write.Added)
	assert.Equal(t, 0, res.Write.Updated)
	assert.Equal(t, 0, res.Write.Deleted)
	assert.Equal(t, 1, res.Write.Skipped)
	assert.Equal(t, 1, f.index.Len())
}

func TestOrchestrator_FullFlagForcesCompletePull(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.fetcher.records["venue"] = []domain.SourceRecord{
		{
			"_id":         "e1",
			"name":        "Beach Club",
			"description": "A beachfront venue with ocean views and a pool, suitable for up to 200 guests.",
		},
	}
	_, err := f.orch.Run(ctx, []string{"venue"}, driving.RunOptions{})
	require.NoError(t, err)

	report, err := f.orch.Run(ctx, []string{"venue"}, driving.RunOptions{Full: true})
	require.NoError(t, err)
	assert.Nil(t, f.fetcher.lastSince("venue"), "--full must ignore the stored timestamp")
	assert.True(t, report.Results[0].Full)
}

func TestOrchestrator_ScopeFailureIsIsolated(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	description := func(n string) string {
		return "The " + n + " hall hosts conferences, weddings and exhibitions all year round."
	}
	f.fetcher.records["venue"] = []domain.SourceRecord{
		{"_id": "v1", "name": "North Hall", "description": description("north")},
	}
	f.fetcher.errs["event"] = domain.ErrAuthFailed
	f.fetcher.records["faq"] = []domain.SourceRecord{
		{"_id": "f1", "question": "Is parking available on site?", "answer": "Yes, the venue has 300 parking spots for guests."},
	}

	report, err := f.orch.Run(ctx, []string{"venue", "event", "faq"}, driving.RunOptions{})
	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "event", report.Errors[0].ObjectType)
	assert.ErrorIs(t, report.Errors[0].Err, domain.ErrAuthFailed)

	assert.Equal(t, driving.ScopeDone, report.Results[0].State)
	assert.Equal(t, driving.ScopeFailed, report.Results[1].State)
	assert.Equal(t, driving.ScopeDone, report.Results[2].State)
	assert.Equal(t, 2, report.TotalDocuments())

	// The failed scope recorded a failure and kept its window open.
	state, err := f.states.Get(ctx, "event")
	require.NoError(t, err)
	assert.Equal(t, 1, state.ErrorCount)
	assert.True(t, state.LastSync.IsZero())
}

func TestOrchestrator_AbsentObjectTypeIsEmptySuccess(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.fetcher.errs["venue"] = domain.ErrObjectTypeNotFound

	report, err := f.orch.Run(ctx, []string{"venue"}, driving.RunOptions{})
	require.NoError(t, err)
	require.Empty(t, report.Errors)

	res := report.Results[0]
	assert.Equal(t, driving.ScopeDone, res.State)
	assert.Equal(t, 0, res.Records)

	// The scope still advanced its sync state.
	state, err := f.states.Get(ctx, "venue")
	require.NoError(t, err)
	assert.False(t, state.LastSync.IsZero())
}

func TestOrchestrator_DryRunWritesNothing(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	f.fetcher.records["venue"] = []domain.SourceRecord{
		{
			"_id":         "e1",
			"name":        "Beach Club",
			"description": "A beachfront venue with ocean views and a pool, suitable for up to 200 guests.",
		},
	}

	report, err := f.orch.Run(ctx, []string{"venue"}, driving.RunOptions{DryRun: true})
	require.NoError(t, err)

	res := report.Results[0]
	assert.Equal(t, driving.ScopeDone, res.State)
	assert.Equal(t, 1, res.Chunks)
	assert.Equal(t, 0, f.index.Len())
	assert.Equal(t, 0, f.refs.Len())

	_, err = f.states.Get(ctx, "venue")
	assert.ErrorIs(t, err, domain.ErrNotFound, "dry runs must not advance sync state")
}

func TestOrchestrator_DedupSpansObjectTypesWithinRun(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	shared := "Identical marketing copy reused across two different object types."
	f.fetcher.records["venue"] = []domain.SourceRecord{
		{"_id": "v1", "name": "Copy Venue", "description": shared},
	}
	f.fetcher.records["event"] = []domain.SourceRecord{
		{"_id": "e1", "name": "Copy Venue", "description": shared},
	}

	report, err := f.orch.Run(ctx, []string{"venue", "event"}, driving.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Results[0].Documents)
	assert.Equal(t, 0, report.Results[1].Documents)
	assert.Equal(t, 1, report.Results[1].Dropped)
}

func TestOrchestrator_SyncTimeCapturedBeforeFetch(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	before := time.Now().UTC()
	f.fetcher.records["venue"] = []domain.SourceRecord{
		{
			"_id":         "e1",
			"name":        "Beach Club",
			"description": "A beachfront venue with ocean views and a pool, suitable for up to 200 guests.",
		},
	}
	_, err := f.orch.Run(ctx, []string{"venue"}, driving.RunOptions{})
	require.NoError(t, err)
	after := time.Now().UTC()

	state, err := f.states.Get(ctx, "venue")
	require.NoError(t, err)
	assert.False(t, state.LastSync.Before(before))
	assert.False(t, state.LastSync.After(after))
}
