package acquisition

import (
	"go.uber.org/zap"

	"miam-planner/internal/recipe"
	"miam-planner/internal/shared"
)

const (
	placeholderTitle       = "Recette"
	placeholderDescription = "La génération a réussi mais le formatage est incorrect."
)

// Finalizer turns an aggregated buffer into a Recipe.
type Finalizer struct {
	ids    *shared.IDGenerator
	logger *zap.Logger
}

func NewFinalizer(ids *shared.IDGenerator, logger *zap.Logger) *Finalizer {
	return &Finalizer{ids: ids, logger: logger}
}

// Finalize never fails. Output that does not parse yields a placeholder
// recipe that still carries the collected sources.
func (f *Finalizer) Finalize(res Result) recipe.Recipe {
	sources := res.Sources
	if sources == nil {
		sources = []recipe.Source{}
	}

	draft, err := recipe.ParseDraft(res.Text)
	if err != nil {
		f.logger.Warn("model output is not valid recipe JSON, using placeholder",
			zap.Error(&shared.ParseError{Length: len(res.Text), Err: err}))
		return recipe.Recipe{
			ID:           f.ids.NewID(),
			Title:        placeholderTitle,
			Description:  placeholderDescription,
			Ingredients:  []string{},
			Instructions: []string{},
			Sources:      sources,
			Media:        recipe.NoMedia{},
		}
	}

	ingredients, instructions := draft.Ingredients, draft.Instructions
	if ingredients == nil {
		ingredients = []string{}
	}
	if instructions == nil {
		instructions = []string{}
	}
	return recipe.Recipe{
		ID:           f.ids.NewID(),
		Title:        draft.Title,
		Description:  draft.Description,
		Ingredients:  ingredients,
		Instructions: instructions,
		Sources:      sources,
		Media:        recipe.NoMedia{},
	}
}
