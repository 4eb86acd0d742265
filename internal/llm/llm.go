package llm

import (
	"context"
	"iter"

	"miam-planner/internal/recipe"
	"miam-planner/internal/shared"
)

// Mode identifies how a recipe request was built.
type Mode string

const (
	ModeSearch Mode = "search"
	ModeImage  Mode = "image"
	ModeClip   Mode = "clip"
)

// RecipeRequest is the request descriptor handed to a RecipeStreamer.
type RecipeRequest struct {
	Mode   Mode
	Prompt string
	// Image is attached before the prompt in image mode.
	Image *recipe.Image
	// Search enables web search grounding.
	Search bool
}

// StreamChunk is one incremental response. Any field may be empty.
type StreamChunk struct {
	Text    string
	Sources []recipe.Source
	Usage   shared.TokenUsage
}

// RecipeStreamer opens a streaming recipe generation. The sequence yields a
// non-nil error at most once, as its last element.
type RecipeStreamer interface {
	StreamRecipe(ctx context.Context, req RecipeRequest) iter.Seq2[StreamChunk, error]
}

// ImageGenerator renders a picture from a prompt and returns the inline
// images found in the response, in order.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt, size string) ([]recipe.Image, error)
}

// VideoOperation is a snapshot of a long-running video generation.
type VideoOperation struct {
	Name  string
	Done  bool
	Video *recipe.Video
	Error string
}

// VideoGenerator starts and polls image-to-video operations.
type VideoGenerator interface {
	StartVideo(ctx context.Context, prompt string, img recipe.Image) (*VideoOperation, error)
	PollVideo(ctx context.Context, name string) (*VideoOperation, error)
	DownloadVideo(ctx context.Context, uri string) ([]byte, error)
}

// EmbeddingGenerator is an interface for generating vector embeddings from text.
type EmbeddingGenerator interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}
