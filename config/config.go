package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type ServerConfig struct {
	Port int `toml:"port"`
}

type SyncConfig struct {
	WindowDays     int `toml:"window_days"`      // historical backfill window
	LiveWindowDays int `toml:"live_window_days"` // refetch window on a new-mail signal
	ConnectTimeout int `toml:"connect_timeout"`  // seconds
}

type AIConfig struct {
	Model             string `toml:"model"`
	Timeout           int    `toml:"timeout"` // seconds per API call
	RequestsPerMinute int    `toml:"requests_per_minute"`

	// From OPENAI_API_KEY, never from the config file.
	APIKey string `toml:"-"`
}

type NotifyConfig struct {
	// From SLACK_WEBHOOK_URL / WEBHOOK_URL, never from the config file.
	SlackWebhookURL string `toml:"-"`
	WebhookURL      string `toml:"-"`
}

type StorageConfig struct {
	// Path to the bbolt database file. Empty selects the in-memory store.
	Path string `toml:"path"`
}

type Config struct {
	Server   ServerConfig  `toml:"server"`
	Sync     SyncConfig    `toml:"sync"`
	AI       AIConfig      `toml:"ai"`
	Notify   NotifyConfig  `toml:"notify"`
	Storage  StorageConfig `toml:"storage"`
	LogLevel string        `toml:"log_level"`
}

// LoadConfig reads the TOML config file, then overlays secrets from the
// environment (a .env file is honored when present). A missing config
// file is not an error; defaults apply.
func LoadConfig(filepath string) (*Config, error) {
	var config Config

	// Set default values
	config.Server.Port = 3001
	config.Sync.WindowDays = 7
	config.Sync.LiveWindowDays = 1
	config.Sync.ConnectTimeout = 30
	config.AI.Model = "gpt-4o-mini"
	config.AI.Timeout = 20
	config.AI.RequestsPerMinute = 30
	config.LogLevel = "info"

	if filepath != "" {
		if _, err := toml.DecodeFile(filepath, &config); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading config %s: %w", filepath, err)
		}
	}

	// Secrets come from the environment only
	_ = godotenv.Load()
	config.AI.APIKey = os.Getenv("OPENAI_API_KEY")
	config.Notify.SlackWebhookURL = os.Getenv("SLACK_WEBHOOK_URL")
	config.Notify.WebhookURL = os.Getenv("WEBHOOK_URL")
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.LogLevel = level
	}

	return &config, nil
}

// SetupLogger configures the root zerolog logger for the service.
func (c *Config) SetupLogger() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "onebox").
		Logger()

	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}
