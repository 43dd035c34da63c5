package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"clipsearch/internal/model"
	"clipsearch/pkg/transcribe"
)

// MinUsableTextChars is the shortest transcript worth indexing. Anything
// below it is music, silence or provider noise and fails the item instead.
const MinUsableTextChars = 50

type TranscriptStore interface {
	SaveWithSegments(transcript *model.Transcript, segments []model.Segment) error
	ExistsForVideo(videoID int64) (bool, error)
}

type FinishVideoStore interface {
	MarkCompleted(id int64) (bool, error)
	MarkFailed(id int64, reason string) (bool, error)
}

// EmbeddingBackfiller is the hook completion uses to kick off embedding
// generation for the finished video. Failures are logged, never fatal; the
// backfill worker sweeps up anything missed.
type EmbeddingBackfiller interface {
	BackfillVideo(ctx context.Context, videoID int64) (int, error)
}

// finishTranscription persists a completed transcription result and moves the
// video to its terminal status. Returns false when the text failed the usable
// length gate and the video was marked failed instead. Safe to call twice for
// the same video: the existence check and the conditional completed write
// make the second call a no-op.
func finishTranscription(ctx context.Context, videos FinishVideoStore, transcripts TranscriptStore, backfill EmbeddingBackfiller, videoID int64, result *transcribe.Result) (bool, error) {
	text := strings.TrimSpace(result.Text)
	if len(text) < MinUsableTextChars {
		if _, err := videos.MarkFailed(videoID, model.ReasonNoUsableText); err != nil {
			return false, fmt.Errorf("mark failed: %w", err)
		}
		slog.Info("transcript below usable length, video failed", "video_id", videoID, "chars", len(text))
		return false, nil
	}

	exists, err := transcripts.ExistsForVideo(videoID)
	if err != nil {
		return false, fmt.Errorf("check existing transcript: %w", err)
	}
	if !exists {
		transcript := model.Transcript{VideoID: videoID, FullText: text, Language: result.Language}

		windows := transcribe.SegmentTokens(result.Tokens, transcribe.DefaultWindowSeconds, transcribe.DefaultOverlapSeconds)
		segments := make([]model.Segment, 0, len(windows))
		for _, w := range windows {
			segments = append(segments, model.Segment{
				VideoID:      videoID,
				StartSeconds: w.Start,
				EndSeconds:   w.End,
				Text:         w.Text,
			})
		}

		if err := transcripts.SaveWithSegments(&transcript, segments); err != nil {
			return false, fmt.Errorf("save transcript: %w", err)
		}
		slog.Info("transcript saved", "video_id", videoID, "segments", len(segments), "chars", len(text))
	}

	completed, err := videos.MarkCompleted(videoID)
	if err != nil {
		return false, fmt.Errorf("mark completed: %w", err)
	}
	if completed && backfill != nil {
		if _, err := backfill.BackfillVideo(ctx, videoID); err != nil {
			slog.Error("embedding backfill after completion failed", "video_id", videoID, "error", err)
		}
	}
	return true, nil
}
