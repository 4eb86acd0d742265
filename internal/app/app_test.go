package app

import (
	"context"
	"errors"
	"iter"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"miam-planner/internal/acquisition"
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

type scriptedStreamer struct {
	text string
	got  []llm.RecipeRequest
}

func (s *scriptedStreamer) StreamRecipe(_ context.Context, req llm.RecipeRequest) iter.Seq2[llm.StreamChunk, error] {
	s.got = append(s.got, req)
	return func(yield func(llm.StreamChunk, error) bool) {
		half := len(s.text) / 2
		if !yield(llm.StreamChunk{Text: s.text[:half]}, nil) {
			return
		}
		yield(llm.StreamChunk{
			Text:  s.text[half:],
			Usage: shared.TokenUsage{PromptTokens: 20, CompletionTokens: 10, Model: "test"},
		}, nil)
	}
}

// keywordEmbedder maps text onto a fixed vocabulary.
type keywordEmbedder struct {
	saves int
	err   error
}

var vocabulary = []string{"soupe", "tarte", "salade"}

func (k *keywordEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	if k.err != nil {
		return nil, k.err
	}
	text = strings.ToLower(text)
	v := make([]float32, len(vocabulary))
	for i, w := range vocabulary {
		v[i] = float32(strings.Count(text, w))
	}
	return v, nil
}

func (k *keywordEmbedder) SaveCache() error {
	k.saves++
	return nil
}

type fakeGhost struct {
	title, html string
}

func (f *fakeGhost) CreatePost(_ context.Context, title, html string, _ bool) (*ghost.Post, error) {
	f.title, f.html = title, html
	return &ghost.Post{ID: "post-1", Title: title}, nil
}

type fakeImages struct{}

func (fakeImages) GenerateImage(context.Context, string, string) ([]recipe.Image, error) {
	return []recipe.Image{{MIMEType: "image/png", Data: []byte{1, 2, 3}}}, nil
}

type testEnv struct {
	app      *App
	streamer *scriptedStreamer
	embedder *keywordEmbedder
	clock    *clockwork.FakeClock
}

func newTestEnv(t *testing.T, body string) *testEnv {
	t.Helper()
	logger := zap.NewNop()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC))
	ids := shared.NewIDGenerator(clock)

	db, err := database.NewDB(filepath.Join(t.TempDir(), "app.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	kv := store.NewSQLStore(db.SQL)
	pantrySvc := pantry.New(kv, ids)
	metricsStore := metrics.NewStore(db.SQL, clock)
	streamer := &scriptedStreamer{text: body}
	embedder := &keywordEmbedder{}

	a := NewApp(Components{
		Pantry:   pantrySvc,
		Shopping: shopping.NewList(kv, ids),
		Planner:  planner.New(kv),
		Acquirer: acquisition.NewAcquirer(
			acquisition.NewBuilder(pantrySvc, nil),
			streamer,
			acquisition.NewFinalizer(ids, logger),
			metricsStore,
			clock,
			logger,
		),
		Enricher:   media.NewEnricher(fakeImages{}, nil, media.StaticCredentials{Key: "k"}, clock, media.Config{MediaDir: t.TempDir()}, logger),
		Recipes:    recipe.NewRepository(db.SQL, logger),
		Vectors:    llm.NewVectorRepository(db.SQL, logger),
		Embeddings: embedder,
		Metrics:    metricsStore,
		IDs:        ids,
		DataDir:    t.TempDir(),
	}, logger)

	return &testEnv{app: a, streamer: streamer, embedder: embedder, clock: clock}
}

func TestSearchSaveAndFind(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, `{"title":"Soupe de potiron","description":"Douce","ingredients":["potiron"],"instructions":["mixer"]}`)
	a := env.app

	_, err := a.Pantry.Add(ctx, "Potiron", "1")
	require.NoError(t, err)

	var updates []string
	r, err := a.SearchRecipe(ctx, "soupe", func(buf string) { updates = append(updates, buf) })
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "Soupe de potiron", r.Title)
	assert.Len(t, updates, 2)
	assert.Contains(t, env.streamer.got[0].Prompt, "Potiron")

	withImage, err := a.GenerateImage(ctx, *r, media.Size1K)
	require.NoError(t, err)
	require.NoError(t, a.SaveRecipe(ctx, withImage))
	assert.Equal(t, 1, env.embedder.saves)

	env.clock.Advance(time.Millisecond)
	tart, err := a.ManualRecipe(recipe.Manual{Title: "Tarte aux pommes", Ingredients: "pommes\npâte"})
	require.NoError(t, err)
	require.NoError(t, a.SaveRecipe(ctx, *tart))

	t.Run("List", func(t *testing.T) {
		book, err := a.ListRecipes(ctx)
		require.NoError(t, err)
		assert.Len(t, book, 2)
	})

	t.Run("Get", func(t *testing.T) {
		got, err := a.GetRecipe(ctx, r.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		_, hasImage := got.Image()
		assert.True(t, hasImage)
	})

	t.Run("FindSimilar", func(t *testing.T) {
		hits, err := a.FindSimilarRecipes(ctx, "une tarte", 1)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "Tarte aux pommes", hits[0].Recipe.Title)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	})

	t.Run("UsageReport", func(t *testing.T) {
		report, err := a.UsageReport(ctx, 7)
		require.NoError(t, err)
		require.Len(t, report.Usage, 1)
		assert.Equal(t, 20, report.Usage[0].TotalPrompt)
		assert.Equal(t, 1, report.Usage[0].TotalExecution)
		assert.Positive(t, report.Health.Goroutines)
		assert.Equal(t, 2, report.SavedRecipes)
	})

	t.Run("Related", func(t *testing.T) {
		hits, err := a.RelatedRecipes(ctx, tart.ID, 5)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, r.ID, hits[0].Recipe.ID)

		_, err = a.RelatedRecipes(ctx, "unknown", 5)
		assert.Error(t, err)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, a.DeleteRecipe(ctx, tart.ID))
		hits, err := a.FindSimilarRecipes(ctx, "tarte", 5)
		require.NoError(t, err)
		for _, h := range hits {
			assert.NotEqual(t, tart.ID, h.Recipe.ID)
		}
	})
}

func TestSaveRecipeEmbeddingFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, `{}`)
	env.embedder.err = errors.New("quota")

	r, err := env.app.ManualRecipe(recipe.Manual{Title: "Pain"})
	require.NoError(t, err)
	require.Error(t, env.app.SaveRecipe(ctx, *r))
}

func TestPublishRecipe(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, `{}`)
	r := recipe.Recipe{ID: "1", Title: "Soupe", Ingredients: []string{"eau"}, Media: recipe.NoMedia{}}

	t.Run("Disabled", func(t *testing.T) {
		_, err := env.app.PublishRecipe(ctx, r)
		assert.ErrorIs(t, err, ghost.ErrPublishingDisabled)
	})

	t.Run("Enabled", func(t *testing.T) {
		g := &fakeGhost{}
		env.app.Ghost = g
		post, err := env.app.PublishRecipe(ctx, r)
		require.NoError(t, err)
		assert.Equal(t, "post-1", post.ID)
		assert.Equal(t, "Soupe", g.title)
		assert.Contains(t, g.html, "<li>eau</li>")
	})
}

func TestKeyValueFeaturesShareOneStore(t *testing.T) {
	ctx := context.Background()
	a := newTestEnv(t, `{}`).app

	_, err := a.Shopping.Add(ctx, "Lait")
	require.NoError(t, err)
	_, err = a.Planner.UpdateMeal(ctx, planner.Monday, planner.Dinner, "Soupe")
	require.NoError(t, err)

	items, err := a.Shopping.Items(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	plan, err := a.Planner.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Soupe", plan[planner.Monday].Get(planner.Dinner))

	pantryItems, err := a.Pantry.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, pantryItems)
}
