package pipeline

import (
	"context"
	"log/slog"
	"time"

	"clipsearch/internal/model"
	"clipsearch/pkg/transcribe"
)

type ReconcileVideoStore interface {
	GetProcessing() ([]model.Video, error)
	MarkCompleted(id int64) (bool, error)
	MarkFailed(id int64, reason string) (bool, error)
}

type JobPoller interface {
	Poll(ctx context.Context, jobID string) (*transcribe.Job, error)
}

type ReconcileResult struct {
	Completed    int
	Failed       int
	TimedOut     int
	StillRunning int
	Errors       int
}

// Reconciler drives in-flight transcriptions to a terminal state. It owns the
// processing → completed and processing → failed transitions; the provider is
// only consulted for items that have not yet exceeded the processing timeout.
type Reconciler struct {
	videos      ReconcileVideoStore
	transcripts TranscriptStore
	poller      JobPoller
	backfill    EmbeddingBackfiller
	timeout     time.Duration
	now         func() time.Time
}

func NewReconciler(videos ReconcileVideoStore, transcripts TranscriptStore, poller JobPoller, backfill EmbeddingBackfiller, timeout time.Duration) *Reconciler {
	return &Reconciler{
		videos:      videos,
		transcripts: transcripts,
		poller:      poller,
		backfill:    backfill,
		timeout:     timeout,
		now:         time.Now,
	}
}

// Run reconciles every processing video once. One item's failure never stops
// the pass.
func (r *Reconciler) Run(ctx context.Context) ReconcileResult {
	var result ReconcileResult

	videos, err := r.videos.GetProcessing()
	if err != nil {
		slog.Error("error loading processing videos", "error", err)
		result.Errors++
		return result
	}

	for i := range videos {
		r.reconcileOne(ctx, &videos[i], &result)
	}

	slog.Info("reconcile pass complete",
		"completed", result.Completed, "failed", result.Failed,
		"timed_out", result.TimedOut, "still_running", result.StillRunning,
		"errors", result.Errors)
	return result
}

func (r *Reconciler) reconcileOne(ctx context.Context, video *model.Video, result *ReconcileResult) {
	// Timeout is checked before polling so a hung provider cannot keep an
	// item in processing forever.
	if video.ProcessingStartedAt != nil && r.now().Sub(*video.ProcessingStartedAt) > r.timeout {
		failed, err := r.videos.MarkFailed(video.ID, model.ReasonProcessingTimeout)
		if err != nil {
			slog.Error("error failing timed-out video", "video_id", video.ID, "error", err)
			result.Errors++
			return
		}
		if !failed {
			// A concurrent pass finished the item between our read and now.
			slog.Info("timed-out video already finalized", "video_id", video.ID)
			return
		}
		slog.Warn("transcription timed out", "video_id", video.ID)
		result.TimedOut++
		return
	}

	if video.TranscriptionJobID == nil {
		slog.Error("processing video has no job id", "video_id", video.ID)
		result.Errors++
		return
	}

	job, err := r.poller.Poll(ctx, *video.TranscriptionJobID)
	if err != nil {
		// Transient poll failure: leave the item processing, the next pass
		// retries. The timeout is the backstop.
		slog.Error("error polling transcription job",
			"video_id", video.ID, "job_id", *video.TranscriptionJobID, "error", err)
		result.Errors++
		return
	}

	switch job.Status {
	case transcribe.StatusQueued, transcribe.StatusProcessing:
		result.StillRunning++

	case transcribe.StatusError:
		reason := model.ReasonProviderErrorPrefix + job.ErrorDetail
		failed, err := r.videos.MarkFailed(video.ID, reason)
		if err != nil {
			slog.Error("error failing video", "video_id", video.ID, "error", err)
			result.Errors++
			return
		}
		if !failed {
			slog.Info("failed video already finalized", "video_id", video.ID)
			return
		}
		slog.Warn("transcription job failed", "video_id", video.ID, "detail", job.ErrorDetail)
		result.Failed++

	case transcribe.StatusCompleted:
		if job.Result == nil {
			slog.Error("completed job carries no result", "video_id", video.ID, "job_id", job.ID)
			result.Errors++
			return
		}
		usable, err := finishTranscription(ctx, r.videos, r.transcripts, r.backfill, video.ID, job.Result)
		if err != nil {
			slog.Error("error finishing transcription", "video_id", video.ID, "error", err)
			result.Errors++
			return
		}
		if usable {
			result.Completed++
		} else {
			result.Failed++
		}

	default:
		slog.Error("unknown job status", "video_id", video.ID, "status", job.Status)
		result.Errors++
	}
}
