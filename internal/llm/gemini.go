package llm

import (
	"context"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"miam-planner/internal/recipe"
	"miam-planner/internal/shared"
)

// RecipeSchema constrains streamed output to the recipe draft shape.
var RecipeSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":        {Type: genai.TypeString},
		"description":  {Type: genai.TypeString},
		"ingredients":  {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"instructions": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
	},
	Required: []string{"title", "description", "ingredients", "instructions"},
}

// GeminiModels names the model used for each kind of call.
type GeminiModels struct {
	Text  string
	Image string
	Video string
}

// GeminiClient talks to the Gemini API for text, image and video generation.
type GeminiClient struct {
	client  *genai.Client
	models  GeminiModels
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewGeminiClient creates a new Gemini API client. requestsPerMinute paces
// every outbound call, the free tier rejects bursts.
func NewGeminiClient(ctx context.Context, apiKey string, models GeminiModels, requestsPerMinute int, logger *zap.Logger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 15
	}
	return &GeminiClient{
		client:  client,
		models:  models,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
		logger:  logger,
	}, nil
}

// StreamRecipe implements RecipeStreamer.
func (c *GeminiClient) StreamRecipe(ctx context.Context, req RecipeRequest) iter.Seq2[StreamChunk, error] {
	return func(yield func(StreamChunk, error) bool) {
		if err := c.limiter.Wait(ctx); err != nil {
			yield(StreamChunk{}, err)
			return
		}

		cfg := &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   RecipeSchema,
		}
		if req.Search {
			cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
		}

		c.logger.Debug("opening recipe stream",
			zap.String("mode", string(req.Mode)),
			zap.String("model", c.models.Text),
			zap.Bool("search", req.Search))

		for resp, err := range c.client.Models.GenerateContentStream(ctx, c.models.Text, recipeContents(req), cfg) {
			if err != nil {
				yield(StreamChunk{}, err)
				return
			}
			if !yield(chunkFromResponse(resp, c.models.Text), nil) {
				return
			}
		}
	}
}

// GenerateImage implements ImageGenerator with a square aspect ratio.
func (c *GeminiClient) GenerateImage(ctx context.Context, prompt, size string) ([]recipe.Image, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.models.Image,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ImageConfig: &genai.ImageConfig{AspectRatio: "1:1", ImageSize: size},
		})
	if err != nil {
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}
	return inlineImages(resp), nil
}

// StartVideo implements VideoGenerator.
func (c *GeminiClient) StartVideo(ctx context.Context, prompt string, img recipe.Image) (*VideoOperation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	op, err := c.client.Models.GenerateVideos(ctx, c.models.Video, prompt,
		&genai.Image{ImageBytes: img.Data, MIMEType: img.MIMEType},
		&genai.GenerateVideosConfig{
			NumberOfVideos: 1,
			Resolution:     "720p",
			AspectRatio:    "16:9",
		})
	if err != nil {
		return nil, fmt.Errorf("failed to start video generation: %w", err)
	}
	return videoOperation(op), nil
}

// PollVideo implements VideoGenerator.
func (c *GeminiClient) PollVideo(ctx context.Context, name string) (*VideoOperation, error) {
	op, err := c.client.Operations.GetVideosOperation(ctx, &genai.GenerateVideosOperation{Name: name}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to poll video operation %s: %w", name, err)
	}
	return videoOperation(op), nil
}

// DownloadVideo implements VideoGenerator. The client appends the API key.
func (c *GeminiClient) DownloadVideo(ctx context.Context, uri string) ([]byte, error) {
	data, err := c.client.Files.Download(ctx, genai.NewDownloadURIFromVideo(&genai.Video{URI: uri}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download video: %w", err)
	}
	return data, nil
}

func recipeContents(req RecipeRequest) []*genai.Content {
	var parts []*genai.Part
	if req.Image != nil {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{
			Data:     req.Image.Data,
			MIMEType: req.Image.MIMEType,
		}})
	}
	parts = append(parts, &genai.Part{Text: req.Prompt})
	return []*genai.Content{{Role: genai.RoleUser, Parts: parts}}
}

func chunkFromResponse(resp *genai.GenerateContentResponse, model string) StreamChunk {
	var chunk StreamChunk
	if resp == nil {
		return chunk
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		cand := resp.Candidates[0]
		if cand.Content != nil {
			for _, p := range cand.Content.Parts {
				if p != nil && !p.Thought {
					chunk.Text += p.Text
				}
			}
		}
		chunk.Sources = groundingSources(cand.GroundingMetadata)
	}
	if u := resp.UsageMetadata; u != nil {
		chunk.Usage = shared.TokenUsage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
			Model:            model,
		}
	}
	return chunk
}

// groundingSources keeps web chunks that carry both a title and a URI.
func groundingSources(meta *genai.GroundingMetadata) []recipe.Source {
	if meta == nil {
		return nil
	}
	var out []recipe.Source
	for _, gc := range meta.GroundingChunks {
		if gc == nil || gc.Web == nil || gc.Web.URI == "" || gc.Web.Title == "" {
			continue
		}
		out = append(out, recipe.Source{Title: gc.Web.Title, URI: gc.Web.URI})
	}
	return out
}

func inlineImages(resp *genai.GenerateContentResponse) []recipe.Image {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return nil
	}
	var out []recipe.Image
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.InlineData == nil || len(p.InlineData.Data) == 0 {
			continue
		}
		mime := p.InlineData.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		out = append(out, recipe.Image{MIMEType: mime, Data: p.InlineData.Data})
	}
	return out
}

func videoOperation(op *genai.GenerateVideosOperation) *VideoOperation {
	if op == nil {
		return &VideoOperation{}
	}
	out := &VideoOperation{Name: op.Name, Done: op.Done}
	if op.Error != nil {
		out.Error = fmt.Sprint(op.Error["message"])
	}
	if op.Response != nil && len(op.Response.GeneratedVideos) > 0 {
		if v := op.Response.GeneratedVideos[0]; v != nil && v.Video != nil && v.Video.URI != "" {
			mime := v.Video.MIMEType
			if mime == "" {
				mime = "video/mp4"
			}
			out.Video = &recipe.Video{URI: v.Video.URI, MIMEType: mime}
		}
	}
	return out
}
