package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"miam-planner/internal/acquisition"
	"miam-planner/internal/ghost"
	"miam-planner/internal/llm"
	"miam-planner/internal/media"
	"miam-planner/internal/recipe"
	"miam-planner/internal/shared"
)

// maxPhotoBytes bounds a downloaded Telegram photo.
const maxPhotoBytes = 20 << 20

func (b *Bot) handleSearch(ctx context.Context, msg *tgbotapi.Message) {
	b.acquire(ctx, msg.Chat.ID, llm.ModeSearch, func(onUpdate func(string)) (*recipe.Recipe, error) {
		return b.app.SearchRecipe(ctx, msg.Text, onUpdate)
	})
}

func (b *Bot) handleClip(ctx context.Context, msg *tgbotapi.Message) {
	b.acquire(ctx, msg.Chat.ID, llm.ModeClip, func(onUpdate func(string)) (*recipe.Recipe, error) {
		return b.app.RecipeFromURL(ctx, msg.Text, onUpdate)
	})
}

func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	b.acquire(ctx, msg.Chat.ID, llm.ModeImage, func(onUpdate func(string)) (*recipe.Recipe, error) {
		// Telegram lists sizes smallest first.
		photo := msg.Photo[len(msg.Photo)-1]
		payload, err := b.downloadPhoto(ctx, photo.FileID)
		if err != nil {
			return nil, err
		}
		return b.app.RecipeFromImage(ctx, payload, onUpdate)
	})
}

func (b *Bot) downloadPhoto(ctx context.Context, fileID string) (acquisition.ImagePayload, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return acquisition.ImagePayload{}, &shared.TransportError{Op: "photo lookup", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return acquisition.ImagePayload{}, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return acquisition.ImagePayload{}, &shared.TransportError{Op: "photo download", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return acquisition.ImagePayload{}, &shared.TransportError{Op: "photo download", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
	if err != nil {
		return acquisition.ImagePayload{}, &shared.TransportError{Op: "photo download", Err: err}
	}
	img := recipe.Image{MIMEType: http.DetectContentType(data), Data: data}
	return acquisition.ImagePayload{DataURI: img.DataURI(), MIMEType: img.MIMEType}, nil
}

// liveMessage is a chat message rewritten while a recipe streams in.
type liveMessage struct {
	bot       *Bot
	chatID    int64
	messageID int
	limiter   *rate.Limiter

	mu     sync.Mutex
	status string
	draft  *recipe.Draft
	shown  string
	done   bool
}

// finish stops further progress edits.
func (m *liveMessage) finish() {
	m.mu.Lock()
	m.done = true
	m.mu.Unlock()
}

func (m *liveMessage) setStatus(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
	m.refresh()
}

func (m *liveMessage) setDraft(status string, d *recipe.Draft) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
	if d != nil {
		m.draft = d
	}
	m.refresh()
}

// refresh edits the message unless nothing changed or the last edit is too
// recent. Skipped frames are covered by the final edit.
func (m *liveMessage) refresh() {
	if m.done {
		return
	}
	text := renderDraft(m.status, m.draft)
	if text == m.shown || !m.limiter.Allow() {
		return
	}
	m.shown = text
	m.bot.edit(m.chatID, m.messageID, text, nil)
}

// acquire runs one acquisition, mirroring its progress in a single message
// that ends up holding the recipe and its buttons.
func (b *Bot) acquire(ctx context.Context, chatID int64, mode llm.Mode, run func(onUpdate func(string)) (*recipe.Recipe, error)) {
	status := acquisition.NewLoadingStatus(b.clock)
	first := renderDraft(status.Message(), nil)
	sent, err := b.api.Send(tgbotapi.NewMessage(chatID, first))
	if err != nil {
		b.logger.Warn("failed to send initial reply", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}

	live := &liveMessage{bot: b, chatID: chatID, messageID: sent.MessageID, limiter: newEditLimiter(), shown: first}
	statusCtx, stopStatus := context.WithCancel(ctx)
	go status.Run(statusCtx, live.setStatus)

	r, err := run(func(buffer string) {
		status.MarkStreaming()
		live.setDraft(status.Message(), recipe.TryParsePartial(buffer))
	})
	stopStatus()
	live.finish()

	if err != nil {
		b.logger.Error("recipe acquisition failed", zap.String("mode", string(mode)), zap.Error(err))
		b.edit(chatID, sent.MessageID, "❌ "+acquisition.AlertMessage(mode), nil)
		if shared.IsTransport(err) {
			b.sendAdminAlert(fmt.Sprintf("⚠️ Acquisition failed\nMode: %s\n%v", mode, err))
		}
		return
	}
	if r == nil {
		b.edit(chatID, sent.MessageID, "Rien à chercher.", nil)
		return
	}

	b.setCurrent(chatID, *r)
	keyboard := recipeKeyboard(*r, b.app.Ghost != nil)
	b.edit(chatID, sent.MessageID, renderRecipe(*r), &keyboard)
}

func (b *Bot) handleCallbackQuery(q *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		b.logger.Debug("failed to answer callback", zap.Error(err))
	}
	if q.Message == nil {
		return
	}
	chatID := q.Message.Chat.ID

	cb, err := parseCallback(q.Data)
	if err != nil {
		b.logger.Warn("ignoring callback", zap.String("data", q.Data), zap.Error(err))
		return
	}
	r, ok := b.currentRecipe(chatID, cb.RecipeID)
	if !ok {
		b.reply(chatID, "Cette recette n'est plus active.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	switch cb.Action {
	case actionImage:
		err = b.generateImage(ctx, chatID, r, cb.Size)
	case actionVideo:
		err = b.animateVideo(ctx, chatID, r)
	case actionSave:
		if err = b.app.SaveRecipe(ctx, r); err == nil {
			b.reply(chatID, "✅ Recette enregistrée : "+r.Title)
		}
	case actionPublish:
		var post *ghost.Post
		if post, err = b.app.PublishRecipe(ctx, r); err == nil {
			b.reply(chatID, "📰 Recette publiée : "+post.URL)
		}
	}
	if err != nil {
		b.logger.Error("recipe action failed", zap.String("action", cb.Action), zap.String("recipe_id", r.ID), zap.Error(err))
		b.reply(chatID, errorMessage(err))
	}
}

func (b *Bot) generateImage(ctx context.Context, chatID int64, r recipe.Recipe, size media.ImageSize) error {
	if b.app.Enricher.ImageInProgress(r.ID) {
		return media.ErrStageBusy
	}
	b.reply(chatID, fmt.Sprintf("🖼 Génération de l'image (%s)...", size))

	updated, err := b.app.GenerateImage(ctx, r, size)
	if err != nil {
		return err
	}
	current := b.replaceCurrent(chatID, updated)

	img, _ := updated.Image()
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: updated.ID + ".png", Bytes: img.Data})
	photo.Caption = updated.Title
	// A newer recipe took over the chat; its buttons stay on its own message.
	if current {
		photo.ReplyMarkup = recipeKeyboard(updated, b.app.Ghost != nil)
	}
	_, err = b.api.Send(photo)
	return err
}

func (b *Bot) animateVideo(ctx context.Context, chatID int64, r recipe.Recipe) error {
	if b.app.Enricher.VideoInProgress(r.ID) {
		return media.ErrStageBusy
	}
	if _, ok := r.Image(); !ok {
		return shared.ErrImageRequired
	}

	sent, err := b.api.Send(tgbotapi.NewMessage(chatID, "🎬 Animation en cours..."))
	if err != nil {
		return err
	}
	updated, err := b.app.AnimateVideo(ctx, r, func(elapsed time.Duration) {
		b.edit(chatID, sent.MessageID, fmt.Sprintf("🎬 Animation en cours... (%s)", elapsed.Round(time.Second)), nil)
	})
	if err != nil {
		return err
	}
	current := b.replaceCurrent(chatID, updated)
	b.edit(chatID, sent.MessageID, "🎬 Animation terminée.", nil)

	vid, _ := updated.Video()
	video := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(vid.URI))
	video.Caption = updated.Title
	if current {
		video.ReplyMarkup = recipeKeyboard(updated, b.app.Ghost != nil)
	}
	_, err = b.api.Send(video)
	return err
}

// errorMessage is the chat text for a failed recipe action.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, media.ErrStageBusy):
		return "⏳ Génération déjà en cours."
	case errors.Is(err, shared.ErrImageRequired):
		return "Générez d'abord une image."
	case errors.Is(err, shared.ErrNoCredential):
		return "🔑 Clé API requise pour générer des médias."
	case errors.Is(err, shared.ErrVideoTimeout):
		return "⌛ La vidéo n'a pas été prête à temps."
	case errors.Is(err, ghost.ErrPublishingDisabled):
		return "Publication non configurée."
	case shared.IsGeneration(err):
		return "La génération n'a produit aucun résultat."
	}
	return "❌ Erreur : " + err.Error()
}
