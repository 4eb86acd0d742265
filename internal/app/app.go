package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"miam-planner/internal/acquisition"
	"miam-planner/internal/ghost"
	"miam-planner/internal/llm"
	"miam-planner/internal/media"
	"miam-planner/internal/metrics"
	"miam-planner/internal/pantry"
	"miam-planner/internal/planner"
	"miam-planner/internal/recipe"
	"miam-planner/internal/shared"
	"miam-planner/internal/shopping"
)

// EmbeddingCache is an EmbeddingGenerator that can persist what it learned.
type EmbeddingCache interface {
	llm.EmbeddingGenerator
	SaveCache() error
}

// Components are the services an App is assembled from. Ghost may be nil
// when publishing is not configured.
type Components struct {
	Pantry   *pantry.Pantry
	Shopping *shopping.List
	Planner  *planner.Planner

	Acquirer *acquisition.Acquirer
	Enricher *media.Enricher

	Recipes    *recipe.Repository
	Vectors    *llm.VectorRepository
	Embeddings EmbeddingCache
	Ghost      ghost.Client
	Metrics    *metrics.Store

	IDs      *shared.IDGenerator
	DataDir  string
	MediaDir string
}

// App holds the application's dependencies and exposes every user
// operation to the front-ends.
type App struct {
	Components
	logger *zap.Logger
}

// NewApp creates and initializes a new App instance.
func NewApp(c Components, logger *zap.Logger) *App {
	return &App{Components: c, logger: logger}
}

// SearchRecipe generates a recipe for a text query. onUpdate receives the
// growing buffer. A blank query returns nil, nil.
func (a *App) SearchRecipe(ctx context.Context, query string, onUpdate func(string)) (*recipe.Recipe, error) {
	return a.Acquirer.Search(ctx, query, onUpdate)
}

// RecipeFromImage extracts a recipe from a photo.
func (a *App) RecipeFromImage(ctx context.Context, payload acquisition.ImagePayload, onUpdate func(string)) (*recipe.Recipe, error) {
	return a.Acquirer.FromImage(ctx, payload, onUpdate)
}

// RecipeFromURL extracts a recipe from a web page.
func (a *App) RecipeFromURL(ctx context.Context, url string, onUpdate func(string)) (*recipe.Recipe, error) {
	return a.Acquirer.FromURL(ctx, url, onUpdate)
}

// ManualRecipe builds a recipe from the hand-entry form.
func (a *App) ManualRecipe(m recipe.Manual) (*recipe.Recipe, error) {
	return recipe.FromManual(m, a.IDs.NewID())
}

// GenerateImage attaches a generated picture to r.
func (a *App) GenerateImage(ctx context.Context, r recipe.Recipe, size media.ImageSize) (recipe.Recipe, error) {
	return a.Enricher.GenerateImage(ctx, r, size)
}

// AnimateVideo attaches a generated clip to r.
func (a *App) AnimateVideo(ctx context.Context, r recipe.Recipe, onPoll media.PollFunc) (recipe.Recipe, error) {
	return a.Enricher.AnimateVideo(ctx, r, onPoll)
}

// SaveRecipe stores r in the recipe book together with its embedding.
func (a *App) SaveRecipe(ctx context.Context, r recipe.Recipe) error {
	var embedding []float32

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Recipes.Save(gctx, r)
	})
	g.Go(func() error {
		var err error
		embedding, err = a.Embeddings.GenerateEmbedding(gctx, r.ToEmbeddingText())
		if err != nil {
			return fmt.Errorf("failed to generate embedding: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	// The embedding row references the recipe row, so it goes last.
	if err := a.Vectors.Save(ctx, r.ID, embedding); err != nil {
		return err
	}
	if err := a.Embeddings.SaveCache(); err != nil {
		a.logger.Warn("failed to persist embedding cache", zap.Error(err))
	}

	a.logger.Info("recipe saved", zap.String("id", r.ID), zap.String("title", r.Title))
	return nil
}

// ListRecipes returns the recipe book, most recently saved first.
func (a *App) ListRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	return a.Recipes.List(ctx)
}

// GetRecipe loads one saved recipe; nil when unknown.
func (a *App) GetRecipe(ctx context.Context, id string) (*recipe.Recipe, error) {
	return a.Recipes.Get(ctx, id)
}

// DeleteRecipe removes a saved recipe and its embedding.
func (a *App) DeleteRecipe(ctx context.Context, id string) error {
	return a.Recipes.Delete(ctx, id)
}

// ScoredRecipe is a recipe book hit.
type ScoredRecipe struct {
	Recipe recipe.Recipe
	Score  float64
}

// FindSimilarRecipes ranks saved recipes by semantic closeness to query.
func (a *App) FindSimilarRecipes(ctx context.Context, query string, limit int) ([]ScoredRecipe, error) {
	queryEmbedding, err := a.Embeddings.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	scored, err := a.Vectors.FindSimilar(ctx, queryEmbedding, limit, nil)
	if err != nil {
		return nil, err
	}
	return a.loadScored(ctx, scored)
}

// RelatedRecipes ranks saved recipes by closeness to the saved recipe id,
// leaving id itself out.
func (a *App) RelatedRecipes(ctx context.Context, id string, limit int) ([]ScoredRecipe, error) {
	embedding, err := a.Vectors.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if embedding == nil {
		return nil, fmt.Errorf("recipe %s is not in the recipe book", id)
	}

	scored, err := a.Vectors.FindSimilar(ctx, embedding, limit, []string{id})
	if err != nil {
		return nil, err
	}
	return a.loadScored(ctx, scored)
}

func (a *App) loadScored(ctx context.Context, scored []llm.ScoredID) ([]ScoredRecipe, error) {
	ids := make([]string, len(scored))
	for i, s := range scored {
		ids[i] = s.RecipeID
	}
	recipes, err := a.Recipes.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]recipe.Recipe, len(recipes))
	for _, r := range recipes {
		byID[r.ID] = r
	}
	out := make([]ScoredRecipe, 0, len(scored))
	for _, s := range scored {
		if r, ok := byID[s.RecipeID]; ok {
			out = append(out, ScoredRecipe{Recipe: r, Score: s.Score})
		}
	}
	return out, nil
}

// PublishRecipe posts r to the configured Ghost blog.
func (a *App) PublishRecipe(ctx context.Context, r recipe.Recipe) (*ghost.Post, error) {
	if a.Ghost == nil {
		return nil, ghost.ErrPublishingDisabled
	}
	post, err := a.Ghost.CreatePost(ctx, r.Title, recipe.FormatHTML(r), true)
	if err != nil {
		return nil, fmt.Errorf("failed to publish recipe: %w", err)
	}
	a.logger.Info("recipe published", zap.String("id", r.ID), zap.String("post_id", post.ID))
	return post, nil
}

// Report is token usage for recent days plus process and recipe book health.
type Report struct {
	Usage        []metrics.DailyUsage
	Health       metrics.SysHealth
	SavedRecipes int
}

// UsageReport returns token usage for the last days plus process health.
func (a *App) UsageReport(ctx context.Context, days int) (*Report, error) {
	usage, err := a.Metrics.GetDailyUsage(ctx, days)
	if err != nil {
		return nil, err
	}
	saved, err := a.Recipes.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &Report{
		Usage:        usage,
		Health:       metrics.CollectHealth(a.DataDir, a.MediaDir),
		SavedRecipes: saved,
	}, nil
}

// CleanupMetrics drops metric rows older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	return a.Metrics.Cleanup(ctx, days)
}
