package app

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"miam-planner/internal/acquisition"
	"miam-planner/internal/clipper"
	"miam-planner/internal/config"
	"miam-planner/internal/database"
	"miam-planner/internal/ghost"
	"miam-planner/internal/llm"
	"miam-planner/internal/media"
	"miam-planner/internal/metrics"
	"miam-planner/internal/pantry"
	"miam-planner/internal/planner"
	"miam-planner/internal/recipe"
	"miam-planner/internal/shared"
	"miam-planner/internal/shopping"
	"miam-planner/internal/store"
)

// Bootstrap builds an App from configuration. The returned cleanup closes
// the database and the embedding client.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, func(), error) {
	clock := clockwork.NewRealClock()
	ids := shared.NewIDGenerator(clock)

	db, err := database.NewDB(cfg.DatabasePath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	var kv store.Store
	switch cfg.StoreBackend {
	case config.StoreBackendFile:
		fs, err := store.NewFileStore(cfg.DataDir)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to initialize file store: %w", err)
		}
		kv = fs
	default:
		kv = store.NewSQLStore(db.SQL)
	}

	gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, llm.GeminiModels{
		Text:  cfg.TextModel,
		Image: cfg.ImageModel,
		Video: cfg.VideoModel,
	}, cfg.GeminiRequestsPerMinute, logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	embedder, err := llm.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbeddingModel)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	cachedEmbedder, err := llm.NewCachedEmbeddingGenerator(embedder, cfg.EmbeddingCachePath, logger)
	if err != nil {
		embedder.Close()
		db.Close()
		return nil, nil, err
	}

	pantrySvc := pantry.New(kv, ids)
	metricsStore := metrics.NewStore(db.SQL, clock)

	acquirer := acquisition.NewAcquirer(
		acquisition.NewBuilder(pantrySvc, clipper.NewClipper(nil)),
		gemini,
		acquisition.NewFinalizer(ids, logger),
		metricsStore,
		clock,
		logger,
	)
	enricher := media.NewEnricher(gemini, gemini, media.StaticCredentials{Key: cfg.GeminiAPIKey}, clock, media.Config{
		MediaDir:     cfg.MediaDir,
		PollInterval: cfg.VideoPollInterval,
		MaxWait:      cfg.VideoMaxWait,
	}, logger)

	var ghostClient ghost.Client
	if cfg.GhostEnabled() {
		ghostClient = ghost.NewClient(cfg)
	}

	a := NewApp(Components{
		Pantry:     pantrySvc,
		Shopping:   shopping.NewList(kv, ids),
		Planner:    planner.New(kv),
		Acquirer:   acquirer,
		Enricher:   enricher,
		Recipes:    recipe.NewRepository(db.SQL, logger),
		Vectors:    llm.NewVectorRepository(db.SQL, logger),
		Embeddings: cachedEmbedder,
		Ghost:      ghostClient,
		Metrics:    metricsStore,
		IDs:        ids,
		DataDir:    cfg.DataDir,
		MediaDir:   cfg.MediaDir,
	}, logger)

	cleanup := func() {
		if err := cachedEmbedder.SaveCache(); err != nil {
			logger.Warn("failed to save embedding cache", zap.Error(err))
		}
		embedder.Close()
		db.Close()
	}
	return a, cleanup, nil
}
