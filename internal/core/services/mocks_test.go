package services

import (
	"context"
	"crypto/sha256"
	"strings"
	"sync"
	"time"

	"github.com/praxis-labs/bubblesync/internal/core/domain"
)

// fakeEmbedder produces deterministic vectors derived from the text, so
// identical text always embeds identically.
type fakeEmbedder struct {
	dims int

	// failOn makes Embed fail for any text containing the substring.
	failOn   string
	failWith error

	mu    sync.Mutex
	calls int
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{dims: 4}
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, f.failWith
	}

	sum := sha256.Sum256([]byte(text))
	vector := make([]float32, f.dims)
	for i := range vector {
		vector[i] = float32(sum[i]) / 255.0
	}
	return vector, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vector, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vector
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int                { return f.dims }
func (f *fakeEmbedder) ModelName() string              { return "fake" }
func (f *fakeEmbedder) Ping(ctx context.Context) error { return nil }
func (f *fakeEmbedder) Close() error                   { return nil }

func (f *fakeEmbedder) embedCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeFetcher serves canned records per object type and remembers the since
// value of the last fetch.
type fakeFetcher struct {
	mu      sync.Mutex
	records map[string][]domain.SourceRecord
	errs    map[string]error
	since   map[string]*time.Time
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		records: make(map[string][]domain.SourceRecord),
		errs:    make(map[string]error),
		since:   make(map[string]*time.Time),
	}
}

func (f *fakeFetcher) FetchAll(ctx context.Context, objectType string, since *time.Time) (<-chan domain.SourceRecord, <-chan error) {
	f.mu.Lock()
	f.since[objectType] = since
	records := f.records[objectType]
	err := f.errs[objectType]
	f.mu.Unlock()

	recordsCh := make(chan domain.SourceRecord, len(records))
	errsCh := make(chan error, 1)
	if err != nil {
		errsCh <- err
	} else {
		for _, record := range records {
			recordsCh <- record
		}
	}
	close(recordsCh)
	close(errsCh)
	return recordsCh, errsCh
}

func (f *fakeFetcher) lastSince(objectType string) *time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.since[objectType]
}
