package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"clipsearch/internal/model"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestBackfillVideoEmbedsSegmentsAndTranscript(t *testing.T) {
	store := newFakeEmbedStore()
	store.missingSegments[1] = []model.Segment{
		{ID: 10, VideoID: 1, Text: "segment one"},
		{ID: 11, VideoID: 1, Text: "segment two"},
	}
	store.missingTranscripts[1] = []model.Transcript{
		{ID: 5, VideoID: 1, FullText: "full transcript text"},
	}
	embedder := &fakeEmbedder{}

	b := NewBackfiller(store, embedder, 128)
	b.sleep = noSleep

	written, err := b.BackfillVideo(context.Background(), 1)

	assert.Equal(t, err, nil)
	assert.Equal(t, written, 3)
	assert.NotEqual(t, store.segmentVectors[10], nil)
	assert.NotEqual(t, store.segmentVectors[11], nil)
	assert.NotEqual(t, store.transcriptVectors[5], nil)
	// Both segments travel in a single provider call.
	assert.Equal(t, len(embedder.batches[0]), 2)
}

func TestBackfillVideoRespectsBatchSize(t *testing.T) {
	store := newFakeEmbedStore()
	for i := 0; i < 5; i++ {
		store.missingSegments[1] = append(store.missingSegments[1], model.Segment{
			ID: int64(i + 1), VideoID: 1, Text: fmt.Sprintf("segment %d", i),
		})
	}
	embedder := &fakeEmbedder{}

	b := NewBackfiller(store, embedder, 2)
	b.sleep = noSleep

	written, err := b.BackfillVideo(context.Background(), 1)

	assert.Equal(t, err, nil)
	assert.Equal(t, written, 5)
	assert.Equal(t, len(embedder.batches), 3)
	assert.Equal(t, len(embedder.batches[0]), 2)
	assert.Equal(t, len(embedder.batches[2]), 1)
}

func TestBackfillVideoHonorsInvocationLimit(t *testing.T) {
	store := newFakeEmbedStore()
	for i := 0; i < 5; i++ {
		store.missingSegments[1] = append(store.missingSegments[1], model.Segment{
			ID: int64(i + 1), VideoID: 1, Text: fmt.Sprintf("segment %d", i),
		})
	}
	store.missingTranscripts[1] = []model.Transcript{
		{ID: 9, VideoID: 1, FullText: "full transcript text"},
	}
	embedder := &fakeEmbedder{}

	b := NewBackfiller(store, embedder, 2)
	b.limit = 3
	b.sleep = noSleep

	written, err := b.BackfillVideo(context.Background(), 1)

	assert.Equal(t, err, nil)
	assert.Equal(t, written, 3)
	assert.Equal(t, len(store.segmentVectors), 3)
	assert.Equal(t, len(store.transcriptVectors), 0)

	// The next invocation picks up where the capped one stopped.
	written, err = b.BackfillVideo(context.Background(), 1)
	assert.Equal(t, err, nil)
	assert.Equal(t, written, 3)
	assert.Equal(t, len(store.segmentVectors), 5)
	assert.Equal(t, len(store.transcriptVectors), 1)
}

func TestBackfillVideoNothingMissing(t *testing.T) {
	store := newFakeEmbedStore()
	embedder := &fakeEmbedder{}

	b := NewBackfiller(store, embedder, 128)
	b.sleep = noSleep

	written, err := b.BackfillVideo(context.Background(), 1)

	assert.Equal(t, err, nil)
	assert.Equal(t, written, 0)
	// No provider call for a fully embedded video.
	assert.Equal(t, len(embedder.batches), 0)
}

func TestBackfillVideoProviderError(t *testing.T) {
	store := newFakeEmbedStore()
	store.missingSegments[1] = []model.Segment{{ID: 1, VideoID: 1, Text: "text"}}
	embedder := &fakeEmbedder{err: fmt.Errorf("rate limited")}

	b := NewBackfiller(store, embedder, 128)
	b.sleep = noSleep

	written, err := b.BackfillVideo(context.Background(), 1)

	assert.Equal(t, written, 0)
	assert.NotEqual(t, err, nil)
}

func TestBackfillAllIsolatesVideoFailures(t *testing.T) {
	store := newFakeEmbedStore()
	store.missingVideos = []int64{1, 2}
	store.missingSegments[1] = []model.Segment{{ID: 1, VideoID: 1, Text: "poison"}}
	store.missingSegments[2] = []model.Segment{{ID: 2, VideoID: 2, Text: "b"}}
	embedder := &fakeEmbedder{failOn: "poison"}

	b := NewBackfiller(store, embedder, 128)
	b.sleep = noSleep

	report := b.BackfillAll(context.Background())

	// Video 1 fails at the provider; video 2 is still swept.
	assert.Equal(t, report.Videos, 1)
	assert.Equal(t, report.Vectors, 1)
	assert.NotEqual(t, report.Errors[1], nil)
	assert.Equal(t, len(report.Errors), 1)
}
