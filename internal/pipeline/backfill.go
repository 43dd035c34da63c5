package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"clipsearch/internal/model"
	"clipsearch/pkg/embed"
)

// backfillBatchDelay paces embedding batches to stay under provider rate
// limits.
const backfillBatchDelay = 500 * time.Millisecond

// DefaultBackfillLimit caps how many vectors one BackfillVideo call writes.
// Anything left over waits for the next sweep.
const DefaultBackfillLimit = 500

type EmbeddingStore interface {
	VideosMissingEmbeddings() ([]int64, error)
	SegmentsMissingEmbedding(videoID int64, limit int) ([]model.Segment, error)
	TranscriptsMissingEmbedding(videoID int64) ([]model.Transcript, error)
	UpdateSegmentEmbedding(segmentID int64, vec []float32) error
	UpdateTranscriptEmbedding(transcriptID int64, vec []float32) error
}

// Backfiller generates embeddings for stored text that does not have them
// yet. Vectors are written one row at a time so a crash mid-batch loses at
// most the in-flight batch; everything already written survives.
type Backfiller struct {
	store     EmbeddingStore
	embedder  embed.Client
	batchSize int
	limit     int
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewBackfiller(store EmbeddingStore, embedder embed.Client, batchSize int) *Backfiller {
	return &Backfiller{
		store:     store,
		embedder:  embedder,
		batchSize: batchSize,
		limit:     DefaultBackfillLimit,
		sleep:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// BackfillVideo embeds segments and transcripts of one video that are still
// missing a vector, up to the per-invocation limit. Returns the number of
// vectors written.
func (b *Backfiller) BackfillVideo(ctx context.Context, videoID int64) (int, error) {
	written := 0

	for written < b.limit {
		want := b.batchSize
		if remaining := b.limit - written; remaining < want {
			want = remaining
		}

		segments, err := b.store.SegmentsMissingEmbedding(videoID, want)
		if err != nil {
			return written, fmt.Errorf("load segments: %w", err)
		}
		if len(segments) == 0 {
			break
		}

		texts := make([]string, len(segments))
		for i, seg := range segments {
			texts[i] = seg.Text
		}
		vectors, err := b.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return written, fmt.Errorf("embed segments: %w", err)
		}

		for i, seg := range segments {
			if err := b.store.UpdateSegmentEmbedding(seg.ID, vectors[i]); err != nil {
				return written, fmt.Errorf("store segment embedding: %w", err)
			}
			written++
		}

		if len(segments) < want {
			break
		}
		if written < b.limit {
			if err := b.sleep(ctx, backfillBatchDelay); err != nil {
				return written, err
			}
		}
	}

	if written >= b.limit {
		slog.Info("backfill limit reached", "video_id", videoID, "limit", b.limit)
		return written, nil
	}

	transcripts, err := b.store.TranscriptsMissingEmbedding(videoID)
	if err != nil {
		return written, fmt.Errorf("load transcripts: %w", err)
	}
	for _, t := range transcripts {
		if written >= b.limit {
			slog.Info("backfill limit reached", "video_id", videoID, "limit", b.limit)
			break
		}
		vectors, err := b.embedder.EmbedBatch(ctx, []string{t.FullText})
		if err != nil {
			return written, fmt.Errorf("embed transcript: %w", err)
		}
		if err := b.store.UpdateTranscriptEmbedding(t.ID, vectors[0]); err != nil {
			return written, fmt.Errorf("store transcript embedding: %w", err)
		}
		written++
	}

	if written > 0 {
		slog.Info("embeddings backfilled", "video_id", videoID, "vectors", written)
	}
	return written, nil
}

type BackfillReport struct {
	Videos  int
	Vectors int
	Errors  map[int64]error
}

// BackfillAll sweeps every video with missing embeddings. Per-video failures
// are collected; the sweep always visits every video.
func (b *Backfiller) BackfillAll(ctx context.Context) BackfillReport {
	report := BackfillReport{Errors: make(map[int64]error)}

	ids, err := b.store.VideosMissingEmbeddings()
	if err != nil {
		slog.Error("error listing videos missing embeddings", "error", err)
		report.Errors[0] = err
		return report
	}

	for _, id := range ids {
		n, err := b.BackfillVideo(ctx, id)
		report.Vectors += n
		if err != nil {
			slog.Error("error backfilling video", "video_id", id, "error", err)
			report.Errors[id] = err
			continue
		}
		report.Videos++
	}

	return report
}
