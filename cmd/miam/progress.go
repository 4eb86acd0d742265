package main

import (
	"fmt"
	"io"

	"miam-planner/internal/recipe"
)

// progress prints the parts of a streaming draft once they can no longer
// change: a field is final when a later field has started, a list item when
// the next item has.
type progress struct {
	out          io.Writer
	title        bool
	ingredients  int
	instructions int
}

func (p *progress) show(d *recipe.Draft) {
	if d == nil {
		return
	}
	later := d.Description != "" || len(d.Ingredients) > 0 || len(d.Instructions) > 0
	if !p.title && d.Title != "" && later {
		fmt.Fprintf(p.out, "🍳 %s\n", d.Title)
		p.title = true
	}

	complete := len(d.Ingredients)
	if len(d.Instructions) == 0 {
		complete--
	}
	for ; p.ingredients < complete; p.ingredients++ {
		if p.ingredients == 0 {
			fmt.Fprintln(p.out, "🛒 Ingrédients :")
		}
		fmt.Fprintf(p.out, "  - %s\n", d.Ingredients[p.ingredients])
	}

	for ; p.instructions < len(d.Instructions)-1; p.instructions++ {
		if p.instructions == 0 {
			fmt.Fprintln(p.out, "👨‍🍳 Préparation :")
		}
		fmt.Fprintf(p.out, "  %d. %s\n", p.instructions+1, d.Instructions[p.instructions])
	}
}
