package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port   string
	APIKey string

	DatabaseURL  string
	MaxOpenConns int
	MaxIdleConns int

	OpenAIAPIKey          string
	OpenAIModelTranscribe string
	OpenAIModelGenerate   string
	GeminiAPIKey          string
	ReplicateAPIToken     string
	TranscribeServiceURL  string

	StorageURL    string
	StorageKey    string
	StorageBucket string

	BaseURL     string
	ShareSecret string
	ShareTTL    time.Duration

	MaxUploadBytes  int64
	RetentionDays   int
	SweepInterval   time.Duration
	TaskWorkers     int
	ResolverCeiling time.Duration
}

func LoadConfig() (Config, error) {
	cfg := Config{}

	cfg.Port = envOrDefault("PORT", "8080")
	cfg.APIKey = os.Getenv("API_KEY")

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}

	maxOpen, err := parseIntEnv("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_MAX_OPEN_CONNS: %w", err)
	}
	cfg.MaxOpenConns = int(maxOpen)

	maxIdle, err := parseIntEnv("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_MAX_IDLE_CONNS: %w", err)
	}
	cfg.MaxIdleConns = int(maxIdle)

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIModelTranscribe = envOrDefault("OPENAI_MODEL_TRANSCRIBE", "whisper-1")
	cfg.OpenAIModelGenerate = envOrDefault("OPENAI_MODEL_GENERATE", "gpt-4o-mini")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.ReplicateAPIToken = os.Getenv("REPLICATE_API_TOKEN")
	cfg.TranscribeServiceURL = os.Getenv("TRANSCRIBE_SERVICE_URL")

	cfg.StorageURL = os.Getenv("STORAGE_URL")
	cfg.StorageKey = os.Getenv("STORAGE_KEY")
	cfg.StorageBucket = envOrDefault("STORAGE_BUCKET", "gomemo")

	cfg.BaseURL = envOrDefault("BASE_URL", "http://localhost:"+cfg.Port)
	cfg.ShareSecret = os.Getenv("SHARE_SECRET")

	shareTTLHours, err := parseIntEnv("SHARE_TTL_HOURS", 72)
	if err != nil {
		return Config{}, fmt.Errorf("parse SHARE_TTL_HOURS: %w", err)
	}
	cfg.ShareTTL = time.Duration(shareTTLHours) * time.Hour

	maxUploadMB, err := parseIntEnv("MAX_UPLOAD_MB", 50)
	if err != nil {
		return Config{}, fmt.Errorf("parse MAX_UPLOAD_MB: %w", err)
	}
	cfg.MaxUploadBytes = maxUploadMB * 1024 * 1024

	retentionDays, err := parseIntEnv("RETENTION_DAYS", 90)
	if err != nil {
		return Config{}, fmt.Errorf("parse RETENTION_DAYS: %w", err)
	}
	cfg.RetentionDays = int(retentionDays)

	sweepHours, err := parseIntEnv("SWEEP_INTERVAL_HOURS", 24)
	if err != nil {
		return Config{}, fmt.Errorf("parse SWEEP_INTERVAL_HOURS: %w", err)
	}
	cfg.SweepInterval = time.Duration(sweepHours) * time.Hour

	workers, err := parseIntEnv("TASK_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse TASK_WORKERS: %w", err)
	}
	cfg.TaskWorkers = int(workers)

	ceilingMinutes, err := parseIntEnv("RESOLVER_CEILING_MINUTES", 90)
	if err != nil {
		return Config{}, fmt.Errorf("parse RESOLVER_CEILING_MINUTES: %w", err)
	}
	cfg.ResolverCeiling = time.Duration(ceilingMinutes) * time.Minute

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
