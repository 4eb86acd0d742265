package main

import (
	"errors"
	"fmt"
	"io"

	"miam-planner/internal/media"
	"miam-planner/internal/recipe"
	"miam-planner/internal/shared"
)

// applyStage returns the stage's result, or reports the failure on w and
// keeps the recipe as it was before the stage. The error is passed back so
// the command can still exit non-zero once the recipe has been handled.
func applyStage(w io.Writer, stage string, before, after recipe.Recipe, err error) (recipe.Recipe, error) {
	if err == nil {
		return after, nil
	}
	fmt.Fprintf(w, "⚠️  %s: %s\n", stage, stageMessage(err))
	return before, fmt.Errorf("%s stage: %w", stage, err)
}

func stageMessage(err error) string {
	switch {
	case errors.Is(err, media.ErrStageBusy):
		return "a generation is already running for this recipe"
	case errors.Is(err, shared.ErrImageRequired):
		return "generate an image first"
	case errors.Is(err, shared.ErrNoCredential):
		return "an API key is required for media generation"
	case errors.Is(err, shared.ErrVideoTimeout):
		return "the video was not ready in time"
	case shared.IsGeneration(err):
		return "the model returned nothing usable"
	case shared.IsTransport(err):
		return "network failure: " + err.Error()
	}
	return err.Error()
}
