package recipe

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Manual is the hand-entry form. Ingredients and Instructions hold one entry
// per line.
type Manual struct {
	Title        string `validate:"required,max=200"`
	Description  string `validate:"max=2000"`
	Ingredients  string
	Instructions string
}

// FromManual builds a recipe from the form. A blank title is a no-op and
// returns nil without error.
func FromManual(m Manual, id string) (*Recipe, error) {
	m.Title = strings.TrimSpace(m.Title)
	if m.Title == "" {
		return nil, nil
	}
	if err := validate.Struct(m); err != nil {
		return nil, fmt.Errorf("invalid manual recipe: %w", err)
	}
	return &Recipe{
		ID:           id,
		Title:        m.Title,
		Description:  m.Description,
		Ingredients:  splitLines(m.Ingredients),
		Instructions: splitLines(m.Instructions),
		IsManual:     true,
		Media:        NoMedia{},
	}, nil
}

// splitLines keeps non-blank lines as written.
func splitLines(s string) []string {
	out := []string{}
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
