package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config collects every environment setting the binaries need, so components
// receive explicit configuration instead of reading the environment themselves.
type Config struct {
	Port        string
	FrontendURL string
	AdminToken  string

	DatabaseURL string
	RedisURL    string

	YouTubeAPIKey string
	ChannelIDs    []string

	AssemblyAIKey     string
	AssemblyAIBaseURL string
	ModalEndpointURL  string

	OpenAIAPIKey    string
	AnthropicAPIKey string
	ChatProvider    string
	EmbeddingModel  string

	ProcessingTimeout time.Duration
	EmbedBatchSize    int
}

func Load() (Config, error) {
	cfg := Config{}

	cfg.Port = envOrDefault("PORT", "8080")
	cfg.FrontendURL = os.Getenv("FRONTEND_URL")
	cfg.AdminToken = os.Getenv("ADMIN_API_TOKEN")

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.RedisURL = os.Getenv("REDIS_URL")

	cfg.YouTubeAPIKey = os.Getenv("YOUTUBE_API_KEY")
	if ids := os.Getenv("CHANNEL_IDS"); ids != "" {
		for _, id := range strings.Split(ids, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.ChannelIDs = append(cfg.ChannelIDs, id)
			}
		}
	}

	cfg.AssemblyAIKey = os.Getenv("ASSEMBLYAI_API_KEY")
	cfg.AssemblyAIBaseURL = envOrDefault("ASSEMBLYAI_BASE_URL", "https://api.assemblyai.com")
	cfg.ModalEndpointURL = os.Getenv("MODAL_ENDPOINT_URL")

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.ChatProvider = envOrDefault("CHAT_PROVIDER", "openai")
	cfg.EmbeddingModel = envOrDefault("EMBEDDING_MODEL", "text-embedding-3-small")

	timeoutHours, err := parseIntEnv("PROCESSING_TIMEOUT_HOURS", 6)
	if err != nil {
		return Config{}, fmt.Errorf("parse PROCESSING_TIMEOUT_HOURS: %w", err)
	}
	cfg.ProcessingTimeout = time.Duration(timeoutHours) * time.Hour

	batchSize, err := parseIntEnv("EMBED_BATCH_SIZE", 128)
	if err != nil {
		return Config{}, fmt.Errorf("parse EMBED_BATCH_SIZE: %w", err)
	}
	cfg.EmbedBatchSize = int(batchSize)

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseIntEnv(key string, fallback int64) (int64, error) {
	value := envOrDefault(key, "")
	if value == "" {
		return fallback, nil
	}

	num, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	return num, nil
}
