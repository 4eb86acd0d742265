package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gemini_key")

		cfg, err := NewFromEnv()
		require.NoError(t, err)

		assert.Equal(t, "gemini_key", cfg.GeminiAPIKey)
		assert.Equal(t, "gemini-3-flash-preview", cfg.TextModel)
		assert.Equal(t, StoreBackendSQLite, cfg.StoreBackend)
		assert.Equal(t, 10*time.Second, cfg.VideoPollInterval)
		assert.Equal(t, 10*time.Minute, cfg.VideoMaxWait)
		assert.Equal(t, "8080", cfg.Port)
		assert.False(t, cfg.GhostEnabled())
	})

	t.Run("Overrides", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("STORE_BACKEND", "file")
		t.Setenv("VIDEO_POLL_INTERVAL", "2s")
		t.Setenv("TELEGRAM_ALLOWED_USER_IDS", "11,22")
		t.Setenv("GHOST_API_URL", "http://ghost.test")
		t.Setenv("GHOST_ADMIN_API_KEY", "id:abcd")

		cfg, err := NewFromEnv()
		require.NoError(t, err)

		assert.Equal(t, StoreBackendFile, cfg.StoreBackend)
		assert.Equal(t, 2*time.Second, cfg.VideoPollInterval)
		assert.Equal(t, []int64{11, 22}, cfg.TelegramAllowedUserIDs)
		assert.True(t, cfg.IsAllowedTelegramUser(22))
		assert.False(t, cfg.IsAllowedTelegramUser(33))
		assert.True(t, cfg.GhostEnabled())
	})

	t.Run("MissingGeminiAPIKey", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "")
		os.Unsetenv("GEMINI_API_KEY")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Equal(t, "GEMINI_API_KEY environment variable not set", err.Error())
	})

	t.Run("UnknownStoreBackend", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("STORE_BACKEND", "redis")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "STORE_BACKEND")
	})

	t.Run("MaxWaitBelowInterval", func(t *testing.T) {
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("VIDEO_POLL_INTERVAL", "30s")
		t.Setenv("VIDEO_MAX_WAIT", "10s")

		_, err := NewFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "VIDEO_MAX_WAIT")
	})
}
