package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"miam-planner/internal/recipe"
)

func TestRecipeContents(t *testing.T) {
	t.Run("TextOnly", func(t *testing.T) {
		contents := recipeContents(RecipeRequest{Mode: ModeSearch, Prompt: "hello", Search: true})
		require.Len(t, contents, 1)
		require.Len(t, contents[0].Parts, 1)
		assert.Equal(t, "hello", contents[0].Parts[0].Text)
		assert.Equal(t, "user", contents[0].Role)
	})

	t.Run("ImageBeforePrompt", func(t *testing.T) {
		img := &recipe.Image{MIMEType: "image/jpeg", Data: []byte{1, 2}}
		contents := recipeContents(RecipeRequest{Mode: ModeImage, Prompt: "extract", Image: img})
		parts := contents[0].Parts
		require.Len(t, parts, 2)
		require.NotNil(t, parts[0].InlineData)
		assert.Equal(t, "image/jpeg", parts[0].InlineData.MIMEType)
		assert.Equal(t, []byte{1, 2}, parts[0].InlineData.Data)
		assert.Equal(t, "extract", parts[1].Text)
	})
}

func TestChunkFromResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking...", Thought: true},
				{Text: `{"title":`},
				{Text: ` "Soupe"`},
			}},
			GroundingMetadata: &genai.GroundingMetadata{GroundingChunks: []*genai.GroundingChunk{
				{Web: &genai.GroundingChunkWeb{Title: "Marmiton", URI: "https://marmiton.org/soupe"}},
				{Web: &genai.GroundingChunkWeb{URI: "https://no-title.example"}},
				{Web: &genai.GroundingChunkWeb{Title: "no uri"}},
				{},
			}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     12,
			CandidatesTokenCount: 30,
			TotalTokenCount:      42,
		},
	}

	chunk := chunkFromResponse(resp, "gemini-test")
	assert.Equal(t, `{"title": "Soupe"`, chunk.Text)
	assert.Equal(t, []recipe.Source{{Title: "Marmiton", URI: "https://marmiton.org/soupe"}}, chunk.Sources)
	assert.Equal(t, 12, chunk.Usage.PromptTokens)
	assert.Equal(t, 30, chunk.Usage.CompletionTokens)
	assert.Equal(t, 42, chunk.Usage.TotalTokens)
	assert.Equal(t, "gemini-test", chunk.Usage.Model)

	assert.Equal(t, StreamChunk{}, chunkFromResponse(nil, "m"))
	assert.True(t, chunkFromResponse(&genai.GenerateContentResponse{}, "m").Usage.IsZero())
}

func TestInlineImages(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "Voici votre image"},
				{InlineData: &genai.Blob{Data: []byte{1}}},
				{InlineData: &genai.Blob{Data: []byte{2}, MIMEType: "image/jpeg"}},
			}},
		}},
	}
	images := inlineImages(resp)
	require.Len(t, images, 2)
	assert.Equal(t, recipe.Image{MIMEType: "image/png", Data: []byte{1}}, images[0])
	assert.Equal(t, "image/jpeg", images[1].MIMEType)

	assert.Empty(t, inlineImages(&genai.GenerateContentResponse{}))
}

func TestVideoOperation(t *testing.T) {
	t.Run("Running", func(t *testing.T) {
		op := videoOperation(&genai.GenerateVideosOperation{Name: "operations/1"})
		assert.Equal(t, "operations/1", op.Name)
		assert.False(t, op.Done)
		assert.Nil(t, op.Video)
	})

	t.Run("Done", func(t *testing.T) {
		op := videoOperation(&genai.GenerateVideosOperation{
			Name: "operations/1",
			Done: true,
			Response: &genai.GenerateVideosResponse{GeneratedVideos: []*genai.GeneratedVideo{
				{Video: &genai.Video{URI: "https://files.example/v.mp4?alt=media"}},
			}},
		})
		require.NotNil(t, op.Video)
		assert.Equal(t, "https://files.example/v.mp4?alt=media", op.Video.URI)
		assert.Equal(t, "video/mp4", op.Video.MIMEType)
	})

	t.Run("Failed", func(t *testing.T) {
		op := videoOperation(&genai.GenerateVideosOperation{
			Done:  true,
			Error: map[string]any{"message": "quota exceeded"},
		})
		assert.Equal(t, "quota exceeded", op.Error)
		assert.Nil(t, op.Video)
	})
}
