package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"hellio/internal/config"
	"hellio/internal/embedding"
	"hellio/internal/storage"
)

// Backfills embeddings for candidates and positions whose detached embed
// step failed or predates the embedding feature.
func main() {
	var dryRun bool
	var limit int
	flag.BoolVar(&dryRun, "dry-run", true, "If true, do not persist embeddings; just print what would be embedded")
	flag.IntVar(&limit, "limit", 200, "Max number of entities to process in one run")
	flag.Parse()

	cfg := config.LoadConfig()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("build logger:", err)
	}
	defer logger.Sync()

	store, err := storage.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer store.Close()

	embedClient := embedding.NewClient(cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingURL)
	engine := embedding.NewEngine(store, embedClient, logger)

	ctx := context.Background()

	candidateIDs, positionIDs, err := store.MissingEmbeddingIDs(ctx, limit)
	if err != nil {
		logger.Fatal("list entities without embeddings", zap.Error(err))
	}
	logger.Info("backfill scope",
		zap.Int("candidates", len(candidateIDs)),
		zap.Int("positions", len(positionIDs)),
		zap.Bool("dry_run", dryRun))

	processed := 0
	for _, id := range candidateIDs {
		if dryRun {
			logger.Info("would embed candidate", zap.String("id", id))
			continue
		}
		if err := engine.EmbedCandidate(ctx, id); err != nil {
			logger.Warn("embed candidate failed", zap.String("id", id), zap.Error(err))
			continue
		}
		processed++
		time.Sleep(200 * time.Millisecond) // embedding API rate limit
	}

	for _, id := range positionIDs {
		if dryRun {
			logger.Info("would embed position", zap.String("id", id))
			continue
		}
		if err := engine.EmbedPosition(ctx, id); err != nil {
			logger.Warn("embed position failed", zap.String("id", id), zap.Error(err))
			continue
		}
		processed++
		time.Sleep(200 * time.Millisecond)
	}

	logger.Info("backfill complete", zap.Int("embedded", processed))
}
