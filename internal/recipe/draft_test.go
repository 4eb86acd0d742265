package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDraft(t *testing.T) {
	t.Run("KeepsOrder", func(t *testing.T) {
		d, err := ParseDraft(`{"title":"Crêpes","description":"Simple","ingredients":["farine","oeufs","lait"],"instructions":["mélanger","reposer","cuire"]}`)
		require.NoError(t, err)
		assert.Equal(t, []string{"farine", "oeufs", "lait"}, d.Ingredients)
		assert.Equal(t, []string{"mélanger", "reposer", "cuire"}, d.Instructions)
	})

	t.Run("EmptyBufferIsEmptyObject", func(t *testing.T) {
		d, err := ParseDraft("  ")
		require.NoError(t, err)
		assert.True(t, d.IsEmpty())
	})

	t.Run("Truncated", func(t *testing.T) {
		_, err := ParseDraft(`{"title": "X"`)
		assert.Error(t, err)
	})
}

func TestTryParsePartial(t *testing.T) {
	tests := []struct {
		name   string
		buffer string
		want   *Draft
	}{
		{name: "Empty", buffer: "", want: nil},
		{name: "OpeningBrace", buffer: "{", want: nil},
		{name: "KeyWithoutValue", buffer: `{"title":`, want: nil},
		{name: "OpenTitle", buffer: `{"title": "Sou`, want: &Draft{Title: "Sou"}},
		{name: "ClosedTitle", buffer: `{"title": "X"`, want: &Draft{Title: "X"}},
		{
			name:   "DanglingKey",
			buffer: `{"title": "Soupe", "ingr`,
			want:   &Draft{Title: "Soupe"},
		},
		{
			name:   "OpenList",
			buffer: `{"title": "Soupe", "ingredients": ["poireaux", "pom`,
			want:   &Draft{Title: "Soupe", Ingredients: []string{"poireaux", "pom"}},
		},
		{
			name:   "TrailingComma",
			buffer: `{"title": "Soupe", "ingredients": ["poireaux",`,
			want:   &Draft{Title: "Soupe", Ingredients: []string{"poireaux"}},
		},
		{
			name:   "DanglingEscape",
			buffer: `{"title": "Le \"vrai`,
			want:   &Draft{Title: `Le "vrai`},
		},
		{
			name:   "CutEscape",
			buffer: `{"title": "a\`,
			want:   &Draft{Title: "a"},
		},
		{
			name:   "Complete",
			buffer: `{"title":"T","description":"D","ingredients":["i"],"instructions":["s"]}`,
			want:   &Draft{Title: "T", Description: "D", Ingredients: []string{"i"}, Instructions: []string{"s"}},
		},
		{name: "WrongShape", buffer: `{"title": 12}`, want: nil},
		{name: "NotJSON", buffer: "désolé, je ne peux pas", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TryParsePartial(tt.buffer))
		})
	}
}
