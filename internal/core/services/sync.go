package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/praxis-labs/bubblesync/internal/core/domain"
	"github.com/praxis-labs/bubblesync/internal/core/ports/driven"
	"github.com/praxis-labs/bubblesync/internal/core/ports/driving"
)

// Ensure Orchestrator implements the interface.
var _ driving.SyncOrchestrator = (*Orchestrator)(nil)

// Orchestrator runs the fetch -> map -> chunk -> write pipeline per object
// type, sequentially, and records sync state after each scope. One scope's
// failure never aborts the remaining scopes.
type Orchestrator struct {
	fetcher   driven.RecordFetcher
	mapper    *Mapper
	pipeline  driven.PostProcessorPipeline
	writer    *Writer
	syncStore driven.SyncStateStore
	logger    *zap.Logger
}

// NewOrchestrator creates a sync orchestrator. Pass a nil logger for no-op
// logging.
func NewOrchestrator(
	fetcher driven.RecordFetcher,
	mapper *Mapper,
	pipeline driven.PostProcessorPipeline,
	writer *Writer,
	syncStore driven.SyncStateStore,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		fetcher:   fetcher,
		mapper:    mapper,
		pipeline:  pipeline,
		writer:    writer,
		syncStore: syncStore,
		logger:    logger,
	}
}

// Run synchronises the given object types and returns the aggregate report.
// Callers decide whether a non-empty error list is a process failure; the
// CLI exits non-zero only when the total indexed document count is zero.
func (o *Orchestrator) Run(ctx context.Context, objectTypes []string, opts driving.RunOptions) (*driving.RunReport, error) {
	report := &driving.RunReport{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}

	// Deduplication is per run, spanning all object types in it.
	o.mapper.ResetRun()

	for _, objectType := range objectTypes {
		result, err := o.syncScope(ctx, objectType, opts)
		report.Results = append(report.Results, result)
		if err != nil {
			o.logger.Error("scope failed",
				zap.String("object_type", objectType),
				zap.Error(err),
			)
			report.Errors = append(report.Errors, driving.ScopeError{
				ObjectType: objectType,
				Err:        err,
			})
		}
	}

	report.FinishedAt = time.Now().UTC()
	o.logger.Info("sync run finished",
		zap.String("run_id", report.RunID),
		zap.Int("scopes", len(report.Results)),
		zap.Int("documents", report.TotalDocuments()),
		zap.Int("chunks_written", report.TotalChunksWritten()),
		zap.Int("errors", len(report.Errors)),
	)
	return report, nil
}

// Status returns the stored sync state for every known scope.
func (o *Orchestrator) Status(ctx context.Context) ([]domain.SyncState, error) {
	return o.syncStore.List(ctx)
}

// syncScope drives one object type through the scope state machine:
// PENDING -> FETCHING -> MAPPING -> WRITING -> DONE, with FAILED reachable
// from any state.
func (o *Orchestrator) syncScope(ctx context.Context, objectType string, opts driving.RunOptions) (driving.ScopeResult, error) {
	result := driving.ScopeResult{
		ObjectType: objectType,
		State:      driving.ScopePending,
	}

	fail := func(err error) (driving.ScopeResult, error) {
		result.State = driving.ScopeFailed
		if !opts.DryRun {
			if recErr := o.syncStore.RecordFailure(ctx, objectType); recErr != nil {
				o.logger.Warn("record failure", zap.String("object_type", objectType), zap.Error(recErr))
			}
		}
		return result, err
	}

	var since *time.Time
	if !opts.Full {
		stored, err := o.syncStore.GetLastSync(ctx, objectType)
		if err != nil {
			return fail(fmt.Errorf("get last sync: %w", err))
		}
		since = stored
	}
	result.Full = since == nil

	// Captured before fetching so the next incremental run re-covers
	// everything modified while this run was in flight.
	syncTime := time.Now().UTC()

	result.State = driving.ScopeFetching
	records, err := o.collect(ctx, objectType, since)
	if err != nil {
		if errors.Is(err, domain.ErrObjectTypeNotFound) {
			// Some deployments legitimately lack certain object types.
			o.logger.Info("object type absent, treating as empty",
				zap.String("object_type", objectType))
			records = nil
		} else {
			return fail(fmt.Errorf("fetch: %w", err))
		}
	}
	result.Records = len(records)

	result.State = driving.ScopeMapping
	var documents []*domain.Document
	for _, record := range records {
		doc, err := o.mapper.Map(record, objectType)
		if err != nil {
			// A single malformed record never aborts the scope.
			o.logger.Warn("record mapping failed",
				zap.String("object_type", objectType),
				zap.String("record_id", record.ID()),
				zap.Error(err),
			)
			result.Dropped++
			continue
		}
		if doc == nil {
			result.Dropped++
			continue
		}
		documents = append(documents, doc)
	}
	result.Documents = len(documents)

	result.State = driving.ScopeWriting
	var chunks []domain.Chunk
	for _, doc := range documents {
		docChunks, err := o.pipeline.Process(ctx, doc)
		if err != nil {
			o.logger.Warn("chunking failed",
				zap.String("source", doc.Source()),
				zap.Error(err),
			)
			result.Dropped++
			continue
		}
		chunks = append(chunks, docChunks...)
	}
	result.Chunks = len(chunks)

	if opts.DryRun {
		result.State = driving.ScopeDone
		return result, nil
	}

	mode := domain.CleanupIncremental
	if result.Full {
		mode = domain.CleanupFull
	}
	stats, err := o.writer.Reconcile(ctx, objectType, chunks, mode)
	result.Write = stats
	if err != nil {
		return fail(fmt.Errorf("reconcile: %w", err))
	}

	// Only after the writer succeeded; never before (at-least-once on crash).
	if err := o.syncStore.RecordSuccess(ctx, objectType, syncTime, result.Documents); err != nil {
		return fail(fmt.Errorf("record success: %w", err))
	}

	result.State = driving.ScopeDone
	return result, nil
}

// collect drains the fetcher's channels into a slice.
func (o *Orchestrator) collect(ctx context.Context, objectType string, since *time.Time) ([]domain.SourceRecord, error) {
	recordsCh, errsCh := o.fetcher.FetchAll(ctx, objectType, since)

	var records []domain.SourceRecord
	for recordsCh != nil || errsCh != nil {
		select {
		case <-ctx.Done():
			return records, ctx.Err()

		case record, ok := <-recordsCh:
			if !ok {
				recordsCh = nil
				continue
			}
			records = append(records, record)

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if err != nil {
				return records, err
			}
		}
	}
	return records, nil
}
