package acquisition

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"miam-planner/internal/clipper"
	"miam-planner/internal/llm"
	"miam-planner/internal/shared"
)

func TestBuildSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("IncludesQueryAndPantry", func(t *testing.T) {
		b := NewBuilder(&fakePantry{names: []string{"Farine", "Oeufs"}}, nil)
		req, err := b.BuildSearch(ctx, "  Crêpes  ")
		require.NoError(t, err)
		require.NotNil(t, req)

		assert.Equal(t, llm.ModeSearch, req.Mode)
		assert.True(t, req.Search)
		assert.Nil(t, req.Image)
		assert.Equal(t,
			`Génère une recette détaillée pour "Crêpes". Utilise autant que possible ces ingrédients du garde-manger : Farine, Oeufs. Réponds au format JSON.`,
			req.Prompt)
	})

	t.Run("EmptyPantry", func(t *testing.T) {
		b := NewBuilder(&fakePantry{}, nil)
		req, err := b.BuildSearch(ctx, "Soupe")
		require.NoError(t, err)
		assert.Contains(t, req.Prompt, "garde-manger : . Réponds")
	})

	t.Run("BlankQueryIsNoop", func(t *testing.T) {
		pantry := &fakePantry{}
		b := NewBuilder(pantry, nil)
		req, err := b.BuildSearch(ctx, " \n\t ")
		require.NoError(t, err)
		assert.Nil(t, req)
		assert.Zero(t, pantry.calls, "pantry must not be read for a no-op")
	})

	t.Run("PantryFailure", func(t *testing.T) {
		b := NewBuilder(&fakePantry{err: errNetwork}, nil)
		_, err := b.BuildSearch(ctx, "Soupe")
		assert.ErrorIs(t, err, errNetwork)
	})
}

func TestBuildImage(t *testing.T) {
	b := NewBuilder(&fakePantry{}, nil)
	raw := []byte("not really a jpeg")
	encoded := base64.StdEncoding.EncodeToString(raw)

	t.Run("SplitsAtFirstComma", func(t *testing.T) {
		req, err := b.BuildImage(ImagePayload{DataURI: "data:image/jpeg;base64," + encoded, MIMEType: "image/jpeg"})
		require.NoError(t, err)
		require.NotNil(t, req.Image)

		assert.Equal(t, llm.ModeImage, req.Mode)
		assert.False(t, req.Search)
		assert.Equal(t, raw, req.Image.Data)
		assert.Equal(t, "image/jpeg", req.Image.MIMEType)
		assert.Equal(t, "Analyse cette image (photo de recette, capture d'écran) et extrais la recette complète. Réponds strictement au format JSON.", req.Prompt)
	})

	t.Run("PayloadMIMETypeWins", func(t *testing.T) {
		req, err := b.BuildImage(ImagePayload{DataURI: "data:application/octet-stream;base64," + encoded, MIMEType: "image/webp"})
		require.NoError(t, err)
		assert.Equal(t, "image/webp", req.Image.MIMEType)
	})

	t.Run("BarePayload", func(t *testing.T) {
		req, err := b.BuildImage(ImagePayload{DataURI: encoded})
		require.NoError(t, err)
		assert.Equal(t, raw, req.Image.Data)
	})

	t.Run("EmptyIsNoop", func(t *testing.T) {
		req, err := b.BuildImage(ImagePayload{})
		require.NoError(t, err)
		assert.Nil(t, req)
	})

	t.Run("BadBase64", func(t *testing.T) {
		_, err := b.BuildImage(ImagePayload{DataURI: "data:image/png;base64,@@@"})
		assert.Error(t, err)
	})
}

func TestBuildClip(t *testing.T) {
	ctx := context.Background()
	pages := &fakePages{page: &clipper.Page{Title: "Tarte Tatin", Text: "Caraméliser les pommes."}}
	b := NewBuilder(&fakePantry{}, pages)

	req, err := b.BuildClip(ctx, "https://example.com/tatin")
	require.NoError(t, err)
	assert.Equal(t, llm.ModeClip, req.Mode)
	assert.False(t, req.Search)
	assert.Contains(t, req.Prompt, `("Tarte Tatin")`)
	assert.Contains(t, req.Prompt, "https://example.com/tatin")
	assert.Contains(t, req.Prompt, "Caraméliser les pommes.")

	t.Run("FetchFailure", func(t *testing.T) {
		_, err := NewBuilder(&fakePantry{}, &fakePages{err: errNetwork}).BuildClip(ctx, "https://x")
		assert.ErrorIs(t, err, errNetwork)
		assert.True(t, shared.IsTransport(err))
	})

	t.Run("NotConfigured", func(t *testing.T) {
		_, err := NewBuilder(&fakePantry{}, nil).BuildClip(ctx, "https://x")
		assert.Error(t, err)
	})

	t.Run("BlankIsNoop", func(t *testing.T) {
		req, err := b.BuildClip(ctx, "  ")
		require.NoError(t, err)
		assert.Nil(t, req)
	})
}
