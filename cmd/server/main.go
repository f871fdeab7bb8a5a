package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/gomemo-fmtpla/backend/internal/config"
	httpserver "github.com/gomemo-fmtpla/backend/internal/http"
	"github.com/gomemo-fmtpla/backend/internal/notes"
	"github.com/gomemo-fmtpla/backend/internal/retention"
	"github.com/gomemo-fmtpla/backend/internal/services"
	"github.com/gomemo-fmtpla/backend/internal/storage"
	"github.com/gomemo-fmtpla/backend/internal/tasks"
	"github.com/gomemo-fmtpla/backend/internal/transcript"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.NewStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	blobs := storage.NewBlobStore(cfg)
	openaiSvc := services.NewOpenAIService(cfg)
	chatSvc := services.NewChatService(cfg)

	gen := notes.Generators{
		Summary:    openaiSvc,
		Flashcards: openaiSvc,
		Quizzes:    openaiSvc,
		Translator: openaiSvc,
		Chat:       chatSvc,
	}
	if cfg.GeminiAPIKey != "" {
		gemini, err := services.NewGeminiService(ctx, cfg)
		if err != nil {
			log.Fatalf("failed to init gemini client: %v", err)
		}
		gen.SummaryFallback = gemini
	}

	cache := notes.NewArtifactCache(store, gen, true)

	sources := []transcript.Source{transcript.NewCaptionSource()}
	if cfg.TranscribeServiceURL != "" {
		sources = append(sources, transcript.NewHostedSource(cfg.TranscribeServiceURL))
	}
	sources = append(sources, transcript.NewWhisperSource(openaiSvc))
	resolver := transcript.NewResolver(cfg.ResolverCeiling, sources...)

	queue := tasks.NewQueue(store, resolver, cache, cfg.TaskWorkers)
	go queue.Run(ctx)

	window := time.Duration(cfg.RetentionDays) * 24 * time.Hour
	sweeper := retention.NewSweeper(store, blobs, window, cfg.SweepInterval)
	go sweeper.Run(ctx)

	srv := httpserver.NewServer(cfg, store, blobs, cache, resolver, queue)
	if err := srv.Run(); err != nil {
		log.Fatalf("server stopped with error: %v", err)
	}
}
