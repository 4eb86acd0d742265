package llm

import (
	"context"
	"fmt"

	gai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiEmbedder generates text embeddings for the recipe book.
type GeminiEmbedder struct {
	client *gai.Client
	model  *gai.EmbeddingModel
}

// NewGeminiEmbedder creates an embedding client for the given model.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string) (*GeminiEmbedder, error) {
	client, err := gai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini embedding client: %w", err)
	}
	return &GeminiEmbedder{client: client, model: client.EmbeddingModel(model)}, nil
}

// GenerateEmbedding implements EmbeddingGenerator.
func (e *GeminiEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	res, err := e.model.EmbedContent(ctx, gai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if res == nil || res.Embedding == nil {
		return nil, fmt.Errorf("no embedding returned")
	}
	return res.Embedding.Values, nil
}

// Close closes the underlying client.
func (e *GeminiEmbedder) Close() error {
	return e.client.Close()
}
