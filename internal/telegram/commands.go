package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"miam-planner/internal/planner"
	"miam-planner/internal/recipe"
)

const helpText = `🍽 MiamPlanner

Envoyez du texte pour générer une recette, une photo pour l'extraire, ou un lien pour la récupérer.

/pantry [add <nom> | <quantité>] [rm <id>]
/shop [add <nom>] [toggle <id>] [rm <id>] [clear]
/plan [set <Jour> <lunch|dinner> <plat>]
/manual <titre> puis ingrédients, une ligne "---", puis étapes
/book
/similar <recherche>
/related <id>
/metrics`

// similarLimit caps /similar and /related results.
const similarLimit = 5

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	var (
		text string
		err  error
	)
	switch msg.Command() {
	case "start", "help":
		text = helpText
	case "pantry":
		text, err = b.pantryCommand(ctx, args)
	case "shop":
		text, err = b.shopCommand(ctx, args)
	case "plan":
		text, err = b.planCommand(ctx, args)
	case "book":
		text, err = b.bookCommand(ctx)
	case "similar":
		text, err = b.similarCommand(ctx, args)
	case "related":
		text, err = b.relatedCommand(ctx, args)
	case "manual":
		b.manualCommand(chatID, msg.CommandArguments())
		return
	case "metrics":
		if msg.From.ID != b.cfg.AdminTelegramID {
			text = "⛔ Access Denied: Admin only."
			break
		}
		text, err = b.metricsCommand(ctx)
	default:
		text = "Commande inconnue. /help"
	}

	if err != nil {
		b.logger.Error("command failed", zap.String("command", msg.Command()), zap.Error(err))
		text = "❌ " + err.Error()
	}
	b.reply(chatID, text)
}

// cutWord splits off the first word of s.
func cutWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	word, rest, _ := strings.Cut(s, " ")
	return word, strings.TrimSpace(rest)
}

func (b *Bot) pantryCommand(ctx context.Context, args string) (string, error) {
	sub, rest := cutWord(args)
	switch sub {
	case "add":
		name, qty, _ := strings.Cut(rest, "|")
		if _, err := b.app.Pantry.Add(ctx, name, qty); err != nil {
			return "", err
		}
	case "rm":
		if err := b.app.Pantry.Remove(ctx, rest); err != nil {
			return "", err
		}
	case "":
	default:
		return "Usage : /pantry [add <nom> | <quantité>] [rm <id>]", nil
	}
	items, err := b.app.Pantry.List(ctx)
	if err != nil {
		return "", err
	}
	return formatPantry(items), nil
}

func (b *Bot) shopCommand(ctx context.Context, args string) (string, error) {
	sub, rest := cutWord(args)
	var err error
	switch sub {
	case "add":
		_, err = b.app.Shopping.Add(ctx, rest)
	case "toggle":
		err = b.app.Shopping.Toggle(ctx, rest)
	case "rm":
		err = b.app.Shopping.Remove(ctx, rest)
	case "clear":
		err = b.app.Shopping.ClearChecked(ctx)
	case "":
	default:
		return "Usage : /shop [add <nom>] [toggle <id>] [rm <id>] [clear]", nil
	}
	if err != nil {
		return "", err
	}
	items, err := b.app.Shopping.Items(ctx)
	if err != nil {
		return "", err
	}
	return formatShopping(items), nil
}

func (b *Bot) planCommand(ctx context.Context, args string) (string, error) {
	sub, rest := cutWord(args)
	switch sub {
	case "":
		plan, err := b.app.Planner.Get(ctx)
		if err != nil {
			return "", err
		}
		return formatPlan(plan), nil
	case "set":
		dayArg, rest := cutWord(rest)
		mealArg, value := cutWord(rest)
		day, err := planner.ParseDay(dayArg)
		if err != nil {
			return "", err
		}
		meal, err := planner.ParseMealType(mealArg)
		if err != nil {
			return "", err
		}
		plan, err := b.app.Planner.UpdateMeal(ctx, day, meal, value)
		if err != nil {
			return "", err
		}
		return formatPlan(plan), nil
	}
	return "Usage : /plan [set <Jour> <lunch|dinner> <plat>]", nil
}

func (b *Bot) bookCommand(ctx context.Context) (string, error) {
	recipes, err := b.app.ListRecipes(ctx)
	if err != nil {
		return "", err
	}
	return formatBook(recipes), nil
}

func (b *Bot) similarCommand(ctx context.Context, query string) (string, error) {
	if query == "" {
		return "Usage : /similar <recherche>", nil
	}
	results, err := b.app.FindSimilarRecipes(ctx, query, similarLimit)
	if err != nil {
		return "", err
	}
	return formatSimilar(results), nil
}

func (b *Bot) relatedCommand(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "Usage : /related <id>", nil
	}
	results, err := b.app.RelatedRecipes(ctx, id, similarLimit)
	if err != nil {
		return "", err
	}
	return formatSimilar(results), nil
}

func (b *Bot) metricsCommand(ctx context.Context) (string, error) {
	report, err := b.app.UsageReport(ctx, 7)
	if err != nil {
		return "", fmt.Errorf("error fetching metrics: %w", err)
	}
	return formatUsage(report), nil
}

// parseManual reads "/manual" arguments: the first line is the title, then
// ingredient lines, a "---" line, then instruction lines.
func parseManual(args string) recipe.Manual {
	title, body, _ := strings.Cut(args, "\n")
	ingredients, instructions, _ := strings.Cut("\n"+body, "\n---")
	return recipe.Manual{
		Title:        strings.TrimSpace(title),
		Ingredients:  ingredients,
		Instructions: strings.TrimPrefix(instructions, "\n"),
	}
}

func (b *Bot) manualCommand(chatID int64, args string) {
	r, err := b.app.ManualRecipe(parseManual(args))
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}
	if r == nil {
		b.reply(chatID, "Usage : /manual <titre> puis ingrédients, une ligne \"---\", puis étapes")
		return
	}
	b.showRecipe(chatID, *r)
}

// showRecipe sends r as a new message with its action buttons.
func (b *Bot) showRecipe(chatID int64, r recipe.Recipe) {
	b.setCurrent(chatID, r)
	msg := tgbotapi.NewMessage(chatID, truncate(renderRecipe(r)))
	msg.ReplyMarkup = recipeKeyboard(r, b.app.Ghost != nil)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("failed to send recipe", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
