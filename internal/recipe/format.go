package recipe

import (
	"fmt"
	"html"
	"strings"
)

// FormatText renders the recipe for the clipboard or a chat message.
func FormatText(r Recipe) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🍳 %s\n%s\n\n", strings.ToUpper(r.Title), r.Description)

	sb.WriteString("🛒 INGRÉDIENTS :\n")
	for _, ing := range r.Ingredients {
		fmt.Fprintf(&sb, "- %s\n", ing)
	}

	sb.WriteString("\n👨‍🍳 PRÉPARATION :\n")
	for i, step := range r.Instructions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, step)
	}

	sb.WriteString("\nGénéré par MiamPlanner Pro 🚀")
	return sb.String()
}

// FormatHTML renders the recipe as a blog post body.
func FormatHTML(r Recipe) string {
	var sb strings.Builder
	if r.Description != "" {
		fmt.Fprintf(&sb, "<p><i>%s</i></p>", html.EscapeString(r.Description))
	}
	if img, ok := r.Image(); ok {
		fmt.Fprintf(&sb, "<img src=\"%s\" alt=\"%s\">", img.DataURI(), html.EscapeString(r.Title))
	}

	sb.WriteString("<h2>Ingrédients</h2><ul>")
	for _, ing := range r.Ingredients {
		fmt.Fprintf(&sb, "<li>%s</li>", html.EscapeString(ing))
	}
	sb.WriteString("</ul>")

	sb.WriteString("<h2>Préparation</h2><ol>")
	for _, step := range r.Instructions {
		fmt.Fprintf(&sb, "<li>%s</li>", html.EscapeString(step))
	}
	sb.WriteString("</ol>")

	if len(r.Sources) > 0 {
		sb.WriteString("<hr><h3>Sources</h3><ul>")
		for _, s := range r.Sources {
			fmt.Fprintf(&sb, "<li><a href=\"%s\">%s</a></li>", html.EscapeString(s.URI), html.EscapeString(s.Title))
		}
		sb.WriteString("</ul>")
	}
	return sb.String()
}
