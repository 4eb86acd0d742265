package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Store backends accepted by STORE_BACKEND.
const (
	StoreBackendSQLite = "sqlite"
	StoreBackendFile   = "file"
)

// Config holds the configuration for the application.
type Config struct {
	GeminiAPIKey            string `env:"GEMINI_API_KEY"`
	TextModel               string `env:"GEMINI_TEXT_MODEL" env-default:"gemini-3-flash-preview"`
	ImageModel              string `env:"GEMINI_IMAGE_MODEL" env-default:"gemini-3-pro-image-preview"`
	VideoModel              string `env:"GEMINI_VIDEO_MODEL" env-default:"veo-3.1-fast-generate-preview"`
	EmbeddingModel          string `env:"GEMINI_EMBEDDING_MODEL" env-default:"text-embedding-004"`
	GeminiRequestsPerMinute int    `env:"GEMINI_REQUESTS_PER_MINUTE" env-default:"15"`

	// Storage
	StoreBackend       string `env:"STORE_BACKEND" env-default:"sqlite"`
	DataDir            string `env:"DATA_DIR" env-default:"data"`
	DatabasePath       string `env:"DATABASE_PATH" env-default:"data/miam.db"`
	MediaDir           string `env:"MEDIA_DIR" env-default:"data/media"`
	EmbeddingCachePath string `env:"EMBEDDING_CACHE_PATH" env-default:"data/embeddings_cache.json"`

	// Video polling
	VideoPollInterval time.Duration `env:"VIDEO_POLL_INTERVAL" env-default:"10s"`
	VideoMaxWait      time.Duration `env:"VIDEO_MAX_WAIT" env-default:"10m"`

	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"console"`

	// Ghost publishing (optional)
	GhostURL      string `env:"GHOST_API_URL"`
	GhostAdminKey string `env:"GHOST_ADMIN_API_KEY"`

	// Telegram Config (optional for CLI, required for Bot)
	TelegramBotToken       string  `env:"TELEGRAM_BOT_TOKEN"`
	TelegramWebhookURL     string  `env:"TELEGRAM_WEBHOOK_URL"`
	TelegramAllowedUserIDs []int64 `env:"TELEGRAM_ALLOWED_USER_IDS" env-separator:","`
	AdminTelegramID        int64   `env:"ADMIN_TELEGRAM_ID"`
	Port                   string  `env:"PORT" env-default:"8080"`
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values cleanenv cannot express with tags.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreBackendSQLite, StoreBackendFile:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", StoreBackendSQLite, StoreBackendFile, c.StoreBackend)
	}
	if c.VideoPollInterval <= 0 {
		return fmt.Errorf("VIDEO_POLL_INTERVAL must be positive, got %s", c.VideoPollInterval)
	}
	if c.VideoMaxWait < c.VideoPollInterval {
		return fmt.Errorf("VIDEO_MAX_WAIT (%s) must be at least VIDEO_POLL_INTERVAL (%s)", c.VideoMaxWait, c.VideoPollInterval)
	}
	if c.GeminiRequestsPerMinute <= 0 {
		return fmt.Errorf("GEMINI_REQUESTS_PER_MINUTE must be positive, got %d", c.GeminiRequestsPerMinute)
	}
	return nil
}

// GhostEnabled reports whether recipe publishing is configured.
func (c *Config) GhostEnabled() bool {
	return c.GhostURL != "" && c.GhostAdminKey != ""
}

// IsAllowedTelegramUser reports whether the bot should answer this user.
func (c *Config) IsAllowedTelegramUser(id int64) bool {
	for _, allowed := range c.TelegramAllowedUserIDs {
		if allowed == id {
			return true
		}
	}
	return false
}
