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
	"clipsearch/pkg/transcribe"

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

	videoRepo := repository.NewVideoRepository(db.DB)
	transcriptRepo := repository.NewTranscriptRepository(db.DB)

	embedder := embed.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	backfiller := pipeline.NewBackfiller(transcriptRepo, embedder, cfg.EmbedBatchSize)

	var primary transcribe.AsyncProvider
	if cfg.AssemblyAIKey != "" {
		primary = transcribe.NewAssemblyAIClient(cfg.AssemblyAIKey, cfg.AssemblyAIBaseURL)
	}
	chain := transcribe.NewChain(primary)

	reconciler := pipeline.NewReconciler(videoRepo, transcriptRepo, chain, backfiller, cfg.ProcessingTimeout)

	result := reconciler.Run(context.Background())

	if result.Errors > 0 {
		os.Exit(1)
	}
}
