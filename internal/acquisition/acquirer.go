package acquisition

import (
	"context"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"miam-planner/internal/llm"
	"miam-planner/internal/recipe"
	"miam-planner/internal/shared"
)

// AgentName labels recipe streams in the execution metrics.
const AgentName = "RecipeStream"

// MetricsRecorder stores token usage for a finished stream.
type MetricsRecorder interface {
	RecordMeta(ctx context.Context, meta shared.AgentMeta) error
}

// Acquirer runs the build, stream, aggregate and finalize steps.
type Acquirer struct {
	builder   *Builder
	streamer  llm.RecipeStreamer
	finalizer *Finalizer
	metrics   MetricsRecorder
	clock     clockwork.Clock
	logger    *zap.Logger
}

// NewAcquirer wires the pipeline. metrics may be nil.
func NewAcquirer(
	builder *Builder,
	streamer llm.RecipeStreamer,
	finalizer *Finalizer,
	metrics MetricsRecorder,
	clock clockwork.Clock,
	logger *zap.Logger,
) *Acquirer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Acquirer{
		builder:   builder,
		streamer:  streamer,
		finalizer: finalizer,
		metrics:   metrics,
		clock:     clock,
		logger:    logger,
	}
}

// Search generates a recipe for a free-text query, grounded by web search and
// biased toward the pantry. A blank query returns nil, nil.
func (a *Acquirer) Search(ctx context.Context, query string, onUpdate func(string)) (*recipe.Recipe, error) {
	req, err := a.builder.BuildSearch(ctx, query)
	if err != nil || req == nil {
		return nil, err
	}
	return a.run(ctx, req, onUpdate)
}

// FromImage extracts a recipe from a photo or screenshot.
func (a *Acquirer) FromImage(ctx context.Context, payload ImagePayload, onUpdate func(string)) (*recipe.Recipe, error) {
	req, err := a.builder.BuildImage(payload)
	if err != nil || req == nil {
		return nil, err
	}
	return a.run(ctx, req, onUpdate)
}

// FromURL extracts a recipe from a web page.
func (a *Acquirer) FromURL(ctx context.Context, url string, onUpdate func(string)) (*recipe.Recipe, error) {
	req, err := a.builder.BuildClip(ctx, url)
	if err != nil || req == nil {
		return nil, err
	}
	return a.run(ctx, req, onUpdate)
}

func (a *Acquirer) run(ctx context.Context, req *llm.RecipeRequest, onUpdate func(string)) (*recipe.Recipe, error) {
	start := a.clock.Now()

	res, err := Aggregate(ctx, a.streamer.StreamRecipe(ctx, *req), onUpdate)
	if err != nil {
		return nil, err
	}

	if a.metrics != nil {
		meta := shared.NewAgentMeta(AgentName, res.Usage, start, a.clock.Now())
		if err := a.metrics.RecordMeta(ctx, meta); err != nil {
			a.logger.Warn("failed to record stream metrics", zap.Error(err))
		}
	}

	r := a.finalizer.Finalize(*res)
	a.logger.Info("recipe acquired",
		zap.String("mode", string(req.Mode)),
		zap.String("id", r.ID),
		zap.String("title", r.Title),
		zap.Int("sources", len(r.Sources)),
		zap.Int("completion_tokens", res.Usage.CompletionTokens))
	return &r, nil
}

// AlertMessage is the user-facing text for a failed acquisition.
func AlertMessage(mode llm.Mode) string {
	if mode == llm.ModeImage {
		return "L'analyse de l'image a échoué."
	}
	return "Erreur lors de la génération."
}
