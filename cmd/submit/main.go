package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"clipsearch/db"
	"clipsearch/internal/config"
	"clipsearch/internal/pipeline"
	"clipsearch/internal/repository"
	"clipsearch/pkg/catalog"
	"clipsearch/pkg/embed"
	"clipsearch/pkg/transcribe"
)

const (
	popTimeout = 5 * time.Second
	batchSize  = 5
)

func main() {

	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	err = db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("error connecting to DB: %v", err)
	}
	defer db.Close()

	err = db.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("error connecting to Redis: %v", err)
	}
	defer db.CloseRedis()

	ctx := context.Background()

	catalogClient, err := catalog.NewYouTubeClient(ctx, cfg.YouTubeAPIKey)
	if err != nil {
		log.Fatalf("error creating catalog client: %v", err)
	}

	videoRepo := repository.NewVideoRepository(db.DB)
	transcriptRepo := repository.NewTranscriptRepository(db.DB)

	embedder := embed.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	backfiller := pipeline.NewBackfiller(transcriptRepo, embedder, cfg.EmbedBatchSize)

	chain := buildChain(cfg)
	submitter := pipeline.NewSubmitter(videoRepo, transcriptRepo, catalogClient, chain, backfiller)

	for {
		ids := drainQueue()
		if len(ids) == 0 {
			continue
		}

		result := submitter.SubmitBatch(ctx, ids)

		for id, submitErr := range result.Errors {
			slog.Error("error submitting video, dead-lettering", "video_id", id, "error", submitErr)
			if err := db.PushToQueue(db.DeadLetterKey, strconv.FormatInt(id, 10)); err != nil {
				slog.Error("error pushing to dead letter queue", "video_id", id, "error", err)
			}
		}

		slog.Info("submit batch complete", "submitted", result.Submitted, "errors", len(result.Errors))
	}
}

// drainQueue pops up to batchSize ids, returning early on the first blocking
// timeout so a trickle of work is never held hostage to a full batch.
func drainQueue() []int64 {
	var ids []int64

	for len(ids) < batchSize {
		raw, err := db.PopFromQueue(db.SubmitQueueKey, popTimeout)
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				slog.Error("error popping from Redis queue", "error", err)
				time.Sleep(popTimeout)
			}
			break
		}

		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			slog.Error("invalid video id in queue, dead-lettering", "id", raw, "error", err)
			db.PushToQueue(db.DeadLetterKey, raw)
			continue
		}
		ids = append(ids, id)
	}

	return ids
}

func buildChain(cfg config.Config) *transcribe.Chain {
	var primary transcribe.AsyncProvider
	if cfg.AssemblyAIKey != "" {
		primary = transcribe.NewAssemblyAIClient(cfg.AssemblyAIKey, cfg.AssemblyAIBaseURL)
	}

	var fallbacks []transcribe.Transcriber
	if cfg.ModalEndpointURL != "" {
		fallbacks = append(fallbacks, transcribe.NewModalClient(cfg.ModalEndpointURL))
	}
	fallbacks = append(fallbacks, transcribe.NewCaptionsClient("en"))

	return transcribe.NewChain(primary, fallbacks...)
}
