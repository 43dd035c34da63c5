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
	"clipsearch/pkg/catalog"

	"github.com/joho/godotenv"
)

type submitQueue struct{}

func (submitQueue) Push(id string) error {
	return db.PushToQueue(db.SubmitQueueKey, id)
}

func main() {

	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	if len(cfg.ChannelIDs) == 0 {
		slog.Error("no channel ids configured")
		return
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

	channelRepo := repository.NewChannelRepository(db.DB)
	videoRepo := repository.NewVideoRepository(db.DB)

	discovery := pipeline.NewDiscovery(catalogClient, channelRepo, videoRepo, submitQueue{}, cfg.ChannelIDs)

	result := discovery.Run(ctx)

	slog.Info("discovery sweep complete", "new_videos", result.NewVideos, "channel_errors", len(result.Errors))
	if len(result.Errors) > 0 {
		os.Exit(1)
	}
}
