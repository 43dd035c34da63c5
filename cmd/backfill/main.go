package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"clipsearch/db"
	"clipsearch/internal/config"
	"clipsearch/internal/pipeline"
	"clipsearch/internal/repository"
	"clipsearch/pkg/embed"

	"github.com/joho/godotenv"
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

	transcriptRepo := repository.NewTranscriptRepository(db.DB)
	embedder := embed.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.EmbeddingModel)

	backfiller := pipeline.NewBackfiller(transcriptRepo, embedder, cfg.EmbedBatchSize)

	report := backfiller.BackfillAll(context.Background())

	slog.Info("embedding backfill complete", "videos", report.Videos, "vectors", report.Vectors, "errors", len(report.Errors))
	if len(report.Errors) > 0 {
		os.Exit(1)
	}
}
