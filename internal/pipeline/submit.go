package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"clipsearch/internal/model"
	"clipsearch/pkg/catalog"
	"clipsearch/pkg/transcribe"
)

const (
	// submitBatchSize bounds concurrent provider submissions.
	submitBatchSize = 5
	// submitBatchDelay spaces batches out so the provider never sees a burst.
	submitBatchDelay = 2 * time.Second
)

type SubmitVideoStore interface {
	GetByID(id int64) (*model.Video, error)
	UpdateDuration(id int64, seconds int) error
	MarkProcessing(id int64, jobID string) (bool, error)
	MarkCompleted(id int64) (bool, error)
	MarkFailed(id int64, reason string) (bool, error)
}

// SubmissionChain is the slice of the provider chain the submitter needs.
type SubmissionChain interface {
	Submit(ctx context.Context, ref transcribe.MediaRef) (*transcribe.Submission, error)
	HasFallbacks() bool
}

// Submitter moves pending videos into transcription. Every video passes the
// source gates first; a video that fails a gate is marked failed without ever
// reaching a provider.
type Submitter struct {
	videos      SubmitVideoStore
	transcripts TranscriptStore
	catalog     catalog.Client
	chain       SubmissionChain
	backfill    EmbeddingBackfiller
}

func NewSubmitter(videos SubmitVideoStore, transcripts TranscriptStore, cat catalog.Client, chain SubmissionChain, backfill EmbeddingBackfiller) *Submitter {
	return &Submitter{
		videos:      videos,
		transcripts: transcripts,
		catalog:     cat,
		chain:       chain,
		backfill:    backfill,
	}
}

// Submit runs one video through the gates and into the provider chain. A
// non-pending video is a no-op, which makes replayed queue entries harmless.
func (s *Submitter) Submit(ctx context.Context, videoID int64) error {
	video, err := s.videos.GetByID(videoID)
	if err != nil {
		return fmt.Errorf("load video: %w", err)
	}
	if video == nil {
		return fmt.Errorf("video %d not found", videoID)
	}
	if video.Status != model.StatusPending {
		slog.Info("skipping non-pending video", "video_id", videoID, "status", video.Status)
		return nil
	}

	if reason, err := s.checkGates(ctx, video); err != nil {
		return err
	} else if reason != "" {
		if _, err := s.videos.MarkFailed(videoID, reason); err != nil {
			return fmt.Errorf("mark gate failure: %w", err)
		}
		slog.Info("video failed submission gate", "video_id", videoID, "reason", reason)
		return nil
	}

	ref := transcribe.MediaRef{URL: video.URL, ExternalID: video.ExternalID}
	submission, err := s.chain.Submit(ctx, ref)
	if err != nil {
		reason := model.ReasonSubmissionFailed
		if s.chain.HasFallbacks() {
			reason = model.ReasonAllProvidersFailed
		}
		if _, markErr := s.videos.MarkFailed(videoID, reason); markErr != nil {
			return fmt.Errorf("mark submission failure: %w", markErr)
		}
		slog.Error("transcription submission failed", "video_id", videoID, "error", err)
		return nil
	}

	jobRef := submission.JobID
	if jobRef == "" {
		jobRef = submission.Provider + ":inline"
	}
	claimed, err := s.videos.MarkProcessing(videoID, jobRef)
	if err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	if !claimed {
		slog.Warn("video already claimed by another submitter", "video_id", videoID)
		return nil
	}

	// Synchronous fallback tiers return the transcript inline; the item
	// finishes here instead of waiting on the reconciler.
	if submission.Result != nil {
		_, err := finishTranscription(ctx, s.videos, s.transcripts, s.backfill, videoID, submission.Result)
		return err
	}

	slog.Info("video submitted for transcription",
		"video_id", videoID, "provider", submission.Provider, "job_id", submission.JobID)
	return nil
}

// checkGates re-resolves the video against the source catalog and returns a
// failure reason when it is not technically processable. Details are fetched
// fresh because live state and duration can change after discovery.
func (s *Submitter) checkGates(ctx context.Context, video *model.Video) (string, error) {
	details, err := s.catalog.BatchDetails(ctx, []string{video.ExternalID})
	if err != nil {
		return "", fmt.Errorf("resolve video details: %w", err)
	}

	d, ok := details[video.ExternalID]
	if !ok {
		return model.ReasonVideoNotFound, nil
	}
	if d.Live {
		return model.ReasonCurrentlyLive, nil
	}
	if d.DurationSeconds == nil {
		return model.ReasonNoDuration, nil
	}

	if video.DurationSeconds == nil {
		if err := s.videos.UpdateDuration(video.ID, *d.DurationSeconds); err != nil {
			slog.Error("error persisting duration", "video_id", video.ID, "error", err)
		}
	}
	return "", nil
}

type SubmitBatchResult struct {
	Submitted int
	Errors    map[int64]error
}

// SubmitBatch processes ids in groups of submitBatchSize, each group
// concurrently, with a delay between groups.
func (s *Submitter) SubmitBatch(ctx context.Context, ids []int64) SubmitBatchResult {
	result := SubmitBatchResult{Errors: make(map[int64]error)}
	var mu sync.Mutex

	for start := 0; start < len(ids); start += submitBatchSize {
		end := start + submitBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		var wg sync.WaitGroup
		for _, id := range ids[start:end] {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				err := s.Submit(ctx, id)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Errors[id] = err
					return
				}
				result.Submitted++
			}(id)
		}
		wg.Wait()

		if end < len(ids) {
			select {
			case <-ctx.Done():
				return result
			case <-time.After(submitBatchDelay):
			}
		}
	}

	return result
}
