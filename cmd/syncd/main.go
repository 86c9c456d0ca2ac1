// Command syncd runs C5's pull-based ingestion loop standalone: fetch
// pending properties from the Property Backend, embed and upsert them into
// the vector store, and acknowledge success, once on startup and then on
// the configured interval (spec §4.4/§5).
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/ripinlibinus/rag-property-assistant/internal/backend"
	"github.com/ripinlibinus/rag-property-assistant/internal/config"
	"github.com/ripinlibinus/rag-property-assistant/internal/embedding"
	"github.com/ripinlibinus/rag-property-assistant/internal/observability"
	"github.com/ripinlibinus/rag-property-assistant/internal/syncpipeline"
	"github.com/ripinlibinus/rag-property-assistant/internal/vectorstore"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		_ = godotenv.Load("example.env")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		log.Fatal().Err(err).Msg("failed to load config")
	}

	observability.InitLogger(cfg.LogPath, cfg.LogLevel)

	backendTimeout := time.Duration(cfg.Backend.TimeoutSeconds) * time.Second
	backendClient := backend.New(cfg.Backend.BaseURL, backendTimeout)

	embedSvc := embedding.New(embedding.Config{
		BaseURL:  cfg.Embedding.BaseURL,
		APIKey:   cfg.Embedding.APIKey,
		ModelID:  cfg.Embedding.Model,
		CacheTTL: time.Duration(cfg.Embedding.CacheTTLSeconds) * time.Second,
	})

	var store vectorstore.Store
	switch cfg.VectorStore.Backend {
	case "qdrant":
		qs, err := vectorstore.NewQdrantStore(context.Background(), cfg.VectorStore.QdrantURL, cfg.Embedding.Model, cfg.Embedding.Dimensions, "cosine")
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init qdrant vector store")
		}
		store = qs
	default:
		store = vectorstore.NewMemoryStore(cfg.Embedding.Model, cfg.Embedding.Dimensions)
	}

	pipeline := syncpipeline.New(backendClient, embedSvc, store, syncpipeline.Config{
		BatchLimit: cfg.Sync.BatchSize,
		Interval:   time.Duration(cfg.Sync.IntervalSeconds) * time.Second,
		ModelID:    cfg.Embedding.Model,
	}, log.Logger)

	scheduler := syncpipeline.NewScheduler(pipeline, time.Duration(cfg.Sync.IntervalSeconds)*time.Second, log.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Dur("interval", time.Duration(cfg.Sync.IntervalSeconds)*time.Second).Msg("syncd starting")
	scheduler.Run(ctx)
	log.Info().Msg("syncd stopped")
}
