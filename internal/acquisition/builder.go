// Package acquisition turns a user request into a finalized recipe: it
// builds the model request, aggregates the streamed answer and parses it.
package acquisition

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"miam-planner/internal/clipper"
	"miam-planner/internal/llm"
	"miam-planner/internal/recipe"
	"miam-planner/internal/shared"
)

var (
	//go:embed search_prompt.md
	searchPrompt string
	//go:embed image_prompt.md
	imagePrompt string
	//go:embed clip_prompt.md
	clipPrompt string

	funcs = template.FuncMap{"join": strings.Join}

	searchTmpl = template.Must(template.New("search").Funcs(funcs).Parse(strings.TrimSpace(searchPrompt)))
	clipTmpl   = template.Must(template.New("clip").Funcs(funcs).Parse(strings.TrimSpace(clipPrompt)))
)

// PantryReader provides the ingredient names injected into searches.
type PantryReader interface {
	Names(ctx context.Context) ([]string, error)
}

// PageFetcher downloads and cleans a recipe page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*clipper.Page, error)
}

// ImagePayload is a picked file: a data URI and the file's MIME type.
type ImagePayload struct {
	DataURI  string
	MIMEType string
}

// Builder assembles RecipeRequests. It never retries.
type Builder struct {
	pantry PantryReader
	pages  PageFetcher
}

// NewBuilder creates a Builder. pages may be nil when clip mode is unused.
func NewBuilder(pantry PantryReader, pages PageFetcher) *Builder {
	return &Builder{pantry: pantry, pages: pages}
}

// BuildSearch builds a grounded text search. A blank query returns nil
// without error. The pantry is read once, here.
func (b *Builder) BuildSearch(ctx context.Context, query string) (*llm.RecipeRequest, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	names, err := b.pantry.Names(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read pantry: %w", err)
	}

	var buf bytes.Buffer
	if err := searchTmpl.Execute(&buf, struct {
		Query  string
		Pantry []string
	}{query, names}); err != nil {
		return nil, fmt.Errorf("failed to render search prompt: %w", err)
	}

	return &llm.RecipeRequest{Mode: llm.ModeSearch, Prompt: buf.String(), Search: true}, nil
}

// BuildImage builds an extraction request from a picked image. The data URI
// is split at its first comma; the part after it is the base64 payload. An
// empty payload returns nil without error.
func (b *Builder) BuildImage(p ImagePayload) (*llm.RecipeRequest, error) {
	if strings.TrimSpace(p.DataURI) == "" {
		return nil, nil
	}
	img, err := recipe.ParseDataURI(p.DataURI)
	if err != nil {
		return nil, err
	}
	if p.MIMEType != "" {
		img.MIMEType = p.MIMEType
	}
	return &llm.RecipeRequest{
		Mode:   llm.ModeImage,
		Prompt: strings.TrimSpace(imagePrompt),
		Image:  &img,
	}, nil
}

// BuildClip fetches url and builds an extraction request from its text.
func (b *Builder) BuildClip(ctx context.Context, url string) (*llm.RecipeRequest, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, nil
	}
	if b.pages == nil {
		return nil, fmt.Errorf("clip mode is not configured")
	}

	page, err := b.pages.Fetch(ctx, url)
	if err != nil {
		return nil, &shared.TransportError{Op: "page fetch", Err: err}
	}

	var buf bytes.Buffer
	if err := clipTmpl.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("failed to render clip prompt: %w", err)
	}
	return &llm.RecipeRequest{Mode: llm.ModeClip, Prompt: buf.String()}, nil
}
