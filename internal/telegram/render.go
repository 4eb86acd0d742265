package telegram

import (
	"fmt"
	"net/url"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"miam-planner/internal/app"
	"miam-planner/internal/media"
	"miam-planner/internal/pantry"
	"miam-planner/internal/planner"
	"miam-planner/internal/recipe"
	"miam-planner/internal/shopping"
)

// maxMessageLen is Telegram's limit on message text, in runes.
const maxMessageLen = 4096

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxMessageLen {
		return text
	}
	return string(runes[:maxMessageLen-1]) + "…"
}

// isURL reports whether text is a single absolute http(s) link.
func isURL(text string) bool {
	text = strings.TrimSpace(text)
	if strings.ContainsAny(text, " \n\t") {
		return false
	}
	u, err := url.Parse(text)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// renderDraft shows a partially streamed recipe under the status line.
func renderDraft(status string, d *recipe.Draft) string {
	var sb strings.Builder
	sb.WriteString("⏳ " + status)
	if d == nil {
		return sb.String()
	}
	if d.Title != "" {
		fmt.Fprintf(&sb, "\n\n🍳 %s", strings.ToUpper(d.Title))
	}
	if d.Description != "" {
		fmt.Fprintf(&sb, "\n%s", d.Description)
	}
	if len(d.Ingredients) > 0 {
		sb.WriteString("\n\n🛒 INGRÉDIENTS :")
		for _, ing := range d.Ingredients {
			fmt.Fprintf(&sb, "\n- %s", ing)
		}
	}
	if len(d.Instructions) > 0 {
		sb.WriteString("\n\n👨‍🍳 PRÉPARATION :")
		for i, step := range d.Instructions {
			fmt.Fprintf(&sb, "\n%d. %s", i+1, step)
		}
	}
	return sb.String()
}

// renderRecipe is the final message for a recipe, sources included.
func renderRecipe(r recipe.Recipe) string {
	text := recipe.FormatText(r)
	if len(r.Sources) == 0 {
		return text
	}
	var sb strings.Builder
	sb.WriteString(text)
	sb.WriteString("\n\n🔗 Sources :")
	for _, s := range r.Sources {
		fmt.Fprintf(&sb, "\n- %s (%s)", s.Title, s.URI)
	}
	return sb.String()
}

// Callback actions carried by inline buttons.
const (
	actionImage   = "img"
	actionVideo   = "vid"
	actionSave    = "save"
	actionPublish = "pub"
)

// callback is a decoded inline button press.
type callback struct {
	Action   string
	Size     media.ImageSize
	RecipeID string
}

func (c callback) data() string {
	if c.Action == actionImage {
		return strings.Join([]string{c.Action, string(c.Size), c.RecipeID}, "|")
	}
	return c.Action + "|" + c.RecipeID
}

func parseCallback(data string) (callback, error) {
	parts := strings.Split(data, "|")
	switch {
	case len(parts) == 3 && parts[0] == actionImage:
		size, err := media.ParseImageSize(parts[1])
		if err != nil {
			return callback{}, err
		}
		return callback{Action: actionImage, Size: size, RecipeID: parts[2]}, nil
	case len(parts) == 2 && parts[1] != "":
		switch parts[0] {
		case actionVideo, actionSave, actionPublish:
			return callback{Action: parts[0], RecipeID: parts[1]}, nil
		}
	}
	return callback{}, fmt.Errorf("unknown callback data %q", data)
}

// recipeKeyboard offers the media stages plus save, and publish when a blog
// is configured. The video button only appears once an image exists.
func recipeKeyboard(r recipe.Recipe, canPublish bool) tgbotapi.InlineKeyboardMarkup {
	var sizes []tgbotapi.InlineKeyboardButton
	for _, s := range []media.ImageSize{media.Size1K, media.Size2K, media.Size4K} {
		cb := callback{Action: actionImage, Size: s, RecipeID: r.ID}
		sizes = append(sizes, tgbotapi.NewInlineKeyboardButtonData("🖼 "+string(s), cb.data()))
	}
	rows := [][]tgbotapi.InlineKeyboardButton{sizes}

	if _, ok := r.Image(); ok {
		cb := callback{Action: actionVideo, RecipeID: r.ID}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🎬 Animer (VEO)", cb.data())))
	}

	last := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("💾 Enregistrer", callback{Action: actionSave, RecipeID: r.ID}.data()),
	}
	if canPublish {
		last = append(last, tgbotapi.NewInlineKeyboardButtonData("📰 Publier", callback{Action: actionPublish, RecipeID: r.ID}.data()))
	}
	rows = append(rows, last)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func formatPantry(items []pantry.Item) string {
	if len(items) == 0 {
		return "🥫 Garde-manger vide."
	}
	var sb strings.Builder
	sb.WriteString("🥫 Garde-manger\n")
	for _, it := range items {
		fmt.Fprintf(&sb, "\n• %s (%s) [%s]", it.Name, it.Quantity, it.ID)
	}
	return sb.String()
}

func formatShopping(items []shopping.Item) string {
	if len(items) == 0 {
		return "🛒 Liste de courses vide."
	}
	var sb strings.Builder
	sb.WriteString("🛒 Liste de courses\n")
	for _, it := range items {
		box := "☐"
		if it.Checked {
			box = "☑"
		}
		fmt.Fprintf(&sb, "\n%s %s [%s]", box, it.Name, it.ID)
	}
	return sb.String()
}

func formatPlan(plan planner.WeeklyPlan) string {
	var sb strings.Builder
	sb.WriteString("📅 Planning de la semaine\n")
	for _, day := range planner.Days {
		meals := plan[day]
		fmt.Fprintf(&sb, "\n%s\n  Midi : %s\n  Soir : %s",
			day, orDash(meals.Get(planner.Lunch)), orDash(meals.Get(planner.Dinner)))
	}
	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatBook(recipes []recipe.Recipe) string {
	if len(recipes) == 0 {
		return "📚 Aucune recette enregistrée."
	}
	var sb strings.Builder
	sb.WriteString("📚 Mes recettes\n")
	for _, r := range recipes {
		fmt.Fprintf(&sb, "\n• %s [%s]", r.Title, r.ID)
	}
	return sb.String()
}

func formatSimilar(results []app.ScoredRecipe) string {
	if len(results) == 0 {
		return "🔎 Aucune recette proche."
	}
	var sb strings.Builder
	sb.WriteString("🔎 Recettes proches\n")
	for _, s := range results {
		fmt.Fprintf(&sb, "\n• %s (%.2f) [%s]", s.Recipe.Title, s.Score, s.Recipe.ID)
	}
	return sb.String()
}

func formatUsage(report *app.Report) string {
	usage, health := report.Usage, report.Health
	var sb strings.Builder
	sb.WriteString("📊 Usage & Health Report\n\n")

	sb.WriteString("🗓 Recent LLM Activity\n")
	if len(usage) == 0 {
		sb.WriteString("No data yet\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• %s: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
	}

	sb.WriteString("\n🧠 System Health\n")
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", health.DataDiskSize)
	fmt.Fprintf(&sb, "• Media: %s (%d files)\n", health.MediaDiskSize, health.MediaFiles)
	fmt.Fprintf(&sb, "• Saved recipes: %d\n", report.SavedRecipes)
	return sb.String()
}
