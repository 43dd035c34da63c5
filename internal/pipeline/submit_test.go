package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-playground/assert/v2"

	"clipsearch/internal/model"
	"clipsearch/pkg/catalog"
	"clipsearch/pkg/transcribe"
)

func pendingVideo(id int64, externalID string) *model.Video {
	dur := 600
	return &model.Video{
		ID:              id,
		ExternalID:      externalID,
		Title:           "A talk",
		URL:             "https://www.youtube.com/watch?v=" + externalID,
		DurationSeconds: &dur,
		Status:          model.StatusPending,
	}
}

func TestSubmitGateVideoNotFound(t *testing.T) {
	videos := newFakeVideoStore(pendingVideo(1, "gone"))
	cat := newFakeCatalog() // no details for "gone"
	chain := &fakeChain{}

	s := NewSubmitter(videos, newFakeTranscriptStore(), cat, chain, nil)
	err := s.Submit(context.Background(), 1)

	assert.Equal(t, err, nil)
	v, _ := videos.GetByID(1)
	assert.Equal(t, v.Status, model.StatusFailed)
	assert.Equal(t, *v.ErrorReason, model.ReasonVideoNotFound)
	// The provider must never see a gated video.
	assert.Equal(t, len(chain.calls), 0)
}

func TestSubmitGateCurrentlyLive(t *testing.T) {
	videos := newFakeVideoStore(pendingVideo(1, "live1"))
	cat := newFakeCatalog()
	dur := 0
	cat.details["live1"] = catalog.Details{ExternalID: "live1", DurationSeconds: &dur, Live: true}
	chain := &fakeChain{}

	s := NewSubmitter(videos, newFakeTranscriptStore(), cat, chain, nil)
	err := s.Submit(context.Background(), 1)

	assert.Equal(t, err, nil)
	v, _ := videos.GetByID(1)
	assert.Equal(t, *v.ErrorReason, model.ReasonCurrentlyLive)
	assert.Equal(t, len(chain.calls), 0)
}

func TestSubmitGateNoDuration(t *testing.T) {
	video := pendingVideo(1, "processing-upload")
	video.DurationSeconds = nil
	videos := newFakeVideoStore(video)
	cat := newFakeCatalog()
	cat.details["processing-upload"] = catalog.Details{ExternalID: "processing-upload"}
	chain := &fakeChain{}

	s := NewSubmitter(videos, newFakeTranscriptStore(), cat, chain, nil)
	err := s.Submit(context.Background(), 1)

	assert.Equal(t, err, nil)
	v, _ := videos.GetByID(1)
	assert.Equal(t, *v.ErrorReason, model.ReasonNoDuration)
	assert.Equal(t, len(chain.calls), 0)
}

func TestSubmitAsyncProvider(t *testing.T) {
	videos := newFakeVideoStore(pendingVideo(1, "vid1"))
	cat := newFakeCatalog()
	dur := 600
	cat.details["vid1"] = catalog.Details{ExternalID: "vid1", DurationSeconds: &dur}
	chain := &fakeChain{submissions: map[string]*transcribe.Submission{
		"vid1": {Provider: "assemblyai", JobID: "job-abc"},
	}}

	s := NewSubmitter(videos, newFakeTranscriptStore(), cat, chain, nil)
	err := s.Submit(context.Background(), 1)

	assert.Equal(t, err, nil)
	v, _ := videos.GetByID(1)
	assert.Equal(t, v.Status, model.StatusProcessing)
	assert.Equal(t, *v.TranscriptionJobID, "job-abc")
	assert.NotEqual(t, v.ProcessingStartedAt, nil)
}

func TestSubmitSyncFallbackFinishesInline(t *testing.T) {
	videos := newFakeVideoStore(pendingVideo(1, "vid1"))
	transcripts := newFakeTranscriptStore()
	cat := newFakeCatalog()
	dur := 600
	cat.details["vid1"] = catalog.Details{ExternalID: "vid1", DurationSeconds: &dur}

	result := &transcribe.Result{
		Text: "this transcript is comfortably longer than the fifty character minimum",
		Tokens: []transcribe.Token{
			{Text: "this transcript is comfortably longer", Start: 0, End: 4},
			{Text: "than the fifty character minimum", Start: 4, End: 8},
		},
	}
	chain := &fakeChain{submissions: map[string]*transcribe.Submission{
		"vid1": {Provider: "captions", Result: result},
	}}
	backfill := &fakeBackfiller{}

	s := NewSubmitter(videos, transcripts, cat, chain, backfill)
	err := s.Submit(context.Background(), 1)

	assert.Equal(t, err, nil)
	v, _ := videos.GetByID(1)
	assert.Equal(t, v.Status, model.StatusCompleted)
	assert.Equal(t, *v.TranscriptionJobID, "captions:inline")
	assert.Equal(t, transcripts.saves, 1)
	assert.Equal(t, backfill.videoIDs, []int64{1})
}

func TestSubmitAllProvidersFailed(t *testing.T) {
	videos := newFakeVideoStore(pendingVideo(1, "vid1"))
	cat := newFakeCatalog()
	dur := 600
	cat.details["vid1"] = catalog.Details{ExternalID: "vid1", DurationSeconds: &dur}
	chain := &fakeChain{submitErr: fmt.Errorf("all transcription tiers failed"), fallbacks: true}

	s := NewSubmitter(videos, newFakeTranscriptStore(), cat, chain, nil)
	err := s.Submit(context.Background(), 1)

	assert.Equal(t, err, nil)
	v, _ := videos.GetByID(1)
	assert.Equal(t, v.Status, model.StatusFailed)
	assert.Equal(t, *v.ErrorReason, model.ReasonAllProvidersFailed)
}

func TestSubmitSkipsNonPending(t *testing.T) {
	video := pendingVideo(1, "vid1")
	video.Status = model.StatusCompleted
	videos := newFakeVideoStore(video)
	cat := newFakeCatalog()
	chain := &fakeChain{}

	s := NewSubmitter(videos, newFakeTranscriptStore(), cat, chain, nil)
	err := s.Submit(context.Background(), 1)

	assert.Equal(t, err, nil)
	assert.Equal(t, len(chain.calls), 0)
	assert.Equal(t, len(cat.detailsCalls), 0)
	v, _ := videos.GetByID(1)
	assert.Equal(t, v.Status, model.StatusCompleted)
}

func TestSubmitFillsMissingDuration(t *testing.T) {
	video := pendingVideo(1, "vid1")
	video.DurationSeconds = nil
	videos := newFakeVideoStore(video)
	cat := newFakeCatalog()
	dur := 432
	cat.details["vid1"] = catalog.Details{ExternalID: "vid1", DurationSeconds: &dur}
	chain := &fakeChain{submissions: map[string]*transcribe.Submission{
		"vid1": {Provider: "assemblyai", JobID: "job-1"},
	}}

	s := NewSubmitter(videos, newFakeTranscriptStore(), cat, chain, nil)
	err := s.Submit(context.Background(), 1)

	assert.Equal(t, err, nil)
	v, _ := videos.GetByID(1)
	assert.Equal(t, *v.DurationSeconds, 432)
}

func TestSubmitBatchCollectsErrors(t *testing.T) {
	videos := newFakeVideoStore(pendingVideo(1, "vid1"), pendingVideo(2, "vid2"))
	cat := newFakeCatalog()
	dur := 600
	cat.details["vid1"] = catalog.Details{ExternalID: "vid1", DurationSeconds: &dur}
	cat.details["vid2"] = catalog.Details{ExternalID: "vid2", DurationSeconds: &dur}
	chain := &fakeChain{submissions: map[string]*transcribe.Submission{
		"vid1": {Provider: "assemblyai", JobID: "job-1"},
		"vid2": {Provider: "assemblyai", JobID: "job-2"},
	}}

	s := NewSubmitter(videos, newFakeTranscriptStore(), cat, chain, nil)
	// Id 99 does not exist; its failure must not block the others.
	result := s.SubmitBatch(context.Background(), []int64{1, 99, 2})

	assert.Equal(t, result.Submitted, 2)
	assert.Equal(t, len(result.Errors), 1)
	assert.NotEqual(t, result.Errors[99], nil)
}
