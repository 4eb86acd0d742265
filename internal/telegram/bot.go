package telegram

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"miam-planner/internal/app"
	"miam-planner/internal/config"
	"miam-planner/internal/recipe"
)

// editInterval is the minimum gap between two edits of a streaming message.
// Telegram rejects bursts of edits on the same message.
const editInterval = 1500 * time.Millisecond

// botAPI is the part of *tgbotapi.BotAPI the bot uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Bot serves MiamPlanner over a Telegram webhook.
type Bot struct {
	api        botAPI
	updates    func(r *http.Request) (*tgbotapi.Update, error)
	app        *app.App
	cfg        *config.Config
	clock      clockwork.Clock
	httpClient *http.Client
	logger     *zap.Logger

	// current holds the last recipe shown in each chat; inline buttons act on it.
	mu      sync.Mutex
	current map[int64]recipe.Recipe
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, a *app.App, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("authorized on account", zap.String("username", api.Self.UserName))

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %q: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	logger.Info("webhook set", zap.String("description", resp.Description))

	b := newBot(api, cfg, a, clockwork.NewRealClock(), logger)
	b.updates = api.HandleUpdate
	return b, nil
}

func newBot(api botAPI, cfg *config.Config, a *app.App, clock clockwork.Clock, logger *zap.Logger) *Bot {
	return &Bot{
		api:        api,
		app:        a,
		cfg:        cfg,
		clock:      clock,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		current:    make(map[int64]recipe.Recipe),
	}
}

// RegisterHandlers registers the webhook and health handlers on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.updates(r)
	if err != nil {
		b.logger.Warn("failed to parse update", zap.Error(err))
		return
	}

	if q := update.CallbackQuery; q != nil {
		if q.From == nil || !b.cfg.IsAllowedTelegramUser(q.From.ID) {
			return
		}
		go b.handleCallbackQuery(q)
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if !b.cfg.IsAllowedTelegramUser(msg.From.ID) {
		b.logger.Warn("unauthorized access attempt",
			zap.Int64("user_id", msg.From.ID),
			zap.String("username", msg.From.UserName))
		return
	}

	go b.processMessage(msg)
}

// processMessage routes a message: commands first, then photos (image mode),
// links (clip mode) and finally free text (search mode).
func (b *Bot) processMessage(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	case len(msg.Photo) > 0:
		b.handlePhoto(ctx, msg)
	case isURL(msg.Text):
		b.handleClip(ctx, msg)
	case msg.Text != "":
		b.handleSearch(ctx, msg)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, truncate(text))); err != nil {
		b.logger.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	e := tgbotapi.NewEditMessageText(chatID, messageID, truncate(text))
	e.ReplyMarkup = markup
	if _, err := b.api.Send(e); err != nil {
		b.logger.Debug("failed to edit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) sendAdminAlert(text string) {
	if b.cfg.AdminTelegramID == 0 {
		return
	}
	b.reply(b.cfg.AdminTelegramID, text)
}

func (b *Bot) setCurrent(chatID int64, r recipe.Recipe) {
	b.mu.Lock()
	b.current[chatID] = r
	b.mu.Unlock()
}

// replaceCurrent stores r only while the chat's current recipe still has
// r's id, and reports whether it did.
func (b *Bot) replaceCurrent(chatID int64, r recipe.Recipe) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cur, ok := b.current[chatID]; !ok || cur.ID != r.ID {
		return false
	}
	b.current[chatID] = r
	return true
}

// currentRecipe returns the chat's recipe when it still has the given id.
func (b *Bot) currentRecipe(chatID int64, id string) (recipe.Recipe, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.current[chatID]
	if !ok || r.ID != id {
		return recipe.Recipe{}, false
	}
	return r, true
}

func newEditLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(editInterval), 1)
}
