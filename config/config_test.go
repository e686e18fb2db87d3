package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, 7, cfg.Sync.WindowDays)
	assert.Equal(t, 1, cfg.Sync.LiveWindowDays)
	assert.Equal(t, 30, cfg.Sync.ConnectTimeout)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Storage.Path)
}

func TestLoadConfig_ReadsTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
log_level = "debug"

[server]
port = 8080

[sync]
window_days = 30

[storage]
path = "data/onebox.db"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Sync.WindowDays)
	assert.Equal(t, "data/onebox.db", cfg.Storage.Path)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Untouched sections keep their defaults.
	assert.Equal(t, 1, cfg.Sync.LiveWindowDays)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.test/x")
	t.Setenv("WEBHOOK_URL", "https://example.test/hook")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.AI.APIKey)
	assert.Equal(t, "https://hooks.slack.test/x", cfg.Notify.SlackWebhookURL)
	assert.Equal(t, "https://example.test/hook", cfg.Notify.WebhookURL)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestSetupLogger_BadLevelFallsBack(t *testing.T) {
	cfg := &Config{LogLevel: "nonsense"}
	log := cfg.SetupLogger()

	assert.NotPanics(t, func() { log.Info().Msg("ok") })
}
