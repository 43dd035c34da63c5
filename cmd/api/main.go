package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"clipsearch/db"
	"clipsearch/internal/config"
	"clipsearch/internal/handler"
	"clipsearch/internal/pipeline"
	"clipsearch/internal/repository"
	"clipsearch/internal/search"
	"clipsearch/pkg/catalog"
	"clipsearch/pkg/embed"
	"clipsearch/pkg/llm"
	"clipsearch/pkg/transcribe"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
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
	searchRepo := repository.NewSearchRepository(db.DB)
	conversationRepo := repository.NewConversationRepository(db.DB)
	keywordRepo := repository.NewKeywordRepository(db.DB)

	embedder := embed.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	backfiller := pipeline.NewBackfiller(transcriptRepo, embedder, cfg.EmbedBatchSize)

	chain := buildChain(cfg)
	submitter := pipeline.NewSubmitter(videoRepo, transcriptRepo, catalogClient, chain, backfiller)
	reconciler := pipeline.NewReconciler(videoRepo, transcriptRepo, chain, backfiller, cfg.ProcessingTimeout)

	engine := search.NewEngine(searchRepo, embedder)
	chat := search.NewChat(conversationRepo, engine, answerClient(cfg))

	searchHandler := handler.NewSearchHandler(engine)
	chatHandler := handler.NewChatHandler(chat)
	videoHandler := handler.NewVideoHandler(videoRepo, searchRepo, catalogClient, submitter, reconciler, backfiller, submitQueue{})
	keywordHandler := handler.NewKeywordHandler(keywordRepo)

	r := gin.Default()

	allowedOrigins := []string{"http://localhost:3000"}
	if cfg.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.FrontendURL)
	}

	slog.Info("AllowOrigins URL:", "urls", allowedOrigins)

	r.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
	}))

	r.POST("/search", searchHandler.Search)
	r.POST("/chat", chatHandler.Chat)
	r.GET("/videos", videoHandler.GetVideos)
	r.GET("/videos/:id", videoHandler.GetVideo)
	r.GET("/keywords", keywordHandler.GetKeywords)
	r.GET("/health", videoHandler.GetHealth)

	admin := r.Group("/", handler.RequireAdmin(cfg.AdminToken))
	admin.POST("/videos", videoHandler.CreateVideo)
	admin.POST("/videos/:id/submit", videoHandler.SubmitVideo)
	admin.POST("/videos/:id/retry", videoHandler.RetryVideo)
	admin.POST("/retry-failed", videoHandler.RetryFailed)
	admin.POST("/reconcile", videoHandler.Reconcile)
	admin.POST("/backfill", videoHandler.Backfill)
	admin.POST("/keywords", keywordHandler.CreateKeyword)
	admin.PUT("/keywords/:id", keywordHandler.UpdateKeyword)
	admin.DELETE("/keywords/:id", keywordHandler.DeleteKeyword)

	err = r.Run(":" + cfg.Port)
	if err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}

// buildChain assembles the transcription tiers from whatever is configured:
// AssemblyAI as the async primary, the Modal whisper endpoint and official
// captions as synchronous fallbacks.
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

func answerClient(cfg config.Config) llm.AnswerClient {
	if cfg.ChatProvider == "anthropic" {
		return llm.NewAnthropicClient(cfg.AnthropicAPIKey)
	}
	return llm.NewOpenAIClient(cfg.OpenAIAPIKey)
}
