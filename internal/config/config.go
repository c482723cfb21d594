package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Pet       PetConfig       `yaml:"pet"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Discord   DiscordConfig   `yaml:"discord"`
	AI        AIConfig        `yaml:"ai"`
	Claude    ClaudeConfig    `yaml:"claude"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	Notify    NotifyConfig    `yaml:"notify"`
	Log       LogConfig       `yaml:"log"`
}

type PetConfig struct {
	Name             string        `yaml:"name" env:"HOG_NAME"`
	DecayInterval    time.Duration `yaml:"decay_interval"`
	SurpriseDuration time.Duration `yaml:"surprise_duration"`
}

type AnalyticsConfig struct {
	APIKey        string        `yaml:"api_key" env:"POSTHOG_API_KEY"`
	Host          string        `yaml:"host" env:"POSTHOG_HOST"`
	DistinctID    string        `yaml:"distinct_id" env:"POSTHOG_DISTINCT_ID"`
	FlushAt       int           `yaml:"flush_at"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

type DiscordConfig struct {
	BotToken          string   `yaml:"bot_token" env:"DISCORD_BOT_TOKEN"`
	ChannelID         string   `yaml:"channel_id" env:"DISCORD_CHANNEL_ID"`
	OwnerIDs          []string `yaml:"owner_ids" env:"DISCORD_OWNER_IDS" envSeparator:","`
	AllowSpectatorPet bool     `yaml:"allow_spectator_pet"`
}

type AIConfig struct {
	Provider string `yaml:"provider" env:"AI_PROVIDER"` // "claude", "gemini", or "" (auto-detect)
}

type ClaudeConfig struct {
	APIKey    string `yaml:"api_key" env:"ANTHROPIC_API_KEY"`
	Model     string `yaml:"model"`
	MaxTokens int64  `yaml:"max_tokens"`
	// Sliding window rate limiter
	RateLimit  int           `yaml:"rate_limit"`
	RateWindow time.Duration `yaml:"rate_window"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key" env:"GOOGLE_API_KEY"`
	Model  string `yaml:"model"`
}

type NotifyConfig struct {
	Enabled       bool          `yaml:"enabled"`
	CheckInterval time.Duration `yaml:"check_interval"`
	Cooldown      time.Duration `yaml:"cooldown"`
	BoredomAfter  time.Duration `yaml:"boredom_after"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryInitial  time.Duration `yaml:"retry_initial"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"LOG_FORMAT"` // text, json
}

// Load builds the config from defaults, the YAML file at path (optional),
// a .env file in the working directory and the environment, in that order.
func Load(path string) (*Config, error) {
	cfg := defaults()

	// .env never overrides variables that are already set.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// File doesn't exist — use defaults + env vars
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	// Env vars override config file (secrets live in .env or environment)
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	cfg.Discord.OwnerIDs = cleanIDs(cfg.Discord.OwnerIDs)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func cleanIDs(ids []string) []string {
	var cleaned []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" {
			cleaned = append(cleaned, id)
		}
	}
	return cleaned
}

func defaults() *Config {
	return &Config{
		Pet: PetConfig{
			Name:             "Max",
			DecayInterval:    30 * time.Second,
			SurpriseDuration: 500 * time.Millisecond,
		},
		Analytics: AnalyticsConfig{
			Host:          "https://us.i.posthog.com",
			FlushAt:       1,
			FlushInterval: 5 * time.Second,
		},
		Discord: DiscordConfig{
			AllowSpectatorPet: true,
		},
		Claude: ClaudeConfig{
			Model:      "claude-sonnet-4-5-20250929",
			MaxTokens:  256,
			RateLimit:  10,
			RateWindow: time.Hour,
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
		Notify: NotifyConfig{
			Enabled:       true,
			CheckInterval: 60 * time.Second,
			Cooldown:      30 * time.Minute,
			BoredomAfter:  2 * time.Hour,
			RetryAttempts: 3,
			RetryInitial:  500 * time.Millisecond,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func validate(cfg *Config) error {
	if cfg.Pet.DecayInterval <= 0 {
		return fmt.Errorf("pet.decay_interval must be positive, got %s", cfg.Pet.DecayInterval)
	}
	if cfg.Notify.Enabled {
		if cfg.Notify.CheckInterval <= 0 {
			return fmt.Errorf("notify.check_interval must be positive, got %s", cfg.Notify.CheckInterval)
		}
		if cfg.Notify.RetryAttempts < 1 {
			return fmt.Errorf("notify.retry_attempts must be at least 1, got %d", cfg.Notify.RetryAttempts)
		}
	}
	if cfg.Analytics.APIKey != "" && cfg.Analytics.FlushAt < 1 {
		return fmt.Errorf("analytics.flush_at must be at least 1, got %d", cfg.Analytics.FlushAt)
	}
	if cfg.Discord.BotToken != "" {
		if cfg.Discord.ChannelID == "" {
			return fmt.Errorf("missing DISCORD_CHANNEL_ID — required when DISCORD_BOT_TOKEN is set")
		}
		if len(cfg.Discord.OwnerIDs) == 0 {
			return fmt.Errorf("missing DISCORD_OWNER_IDS — required when DISCORD_BOT_TOKEN is set")
		}
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", cfg.Log.Format)
	}
	return nil
}
