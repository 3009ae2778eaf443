// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrBotTokenRequired is returned when BOT_TOKEN is not set.
	ErrBotTokenRequired = errors.New("config: BOT_TOKEN is required")
	// ErrInvalidConfig is returned when a value is outside its allowed range.
	ErrInvalidConfig = errors.New("config: invalid value")
)

// Config holds all configuration for the application.
type Config struct {
	// Telegram settings
	BotToken string `env:"BOT_TOKEN, required" json:"-" validate:"required"` // Masked in JSON

	// Video note settings. Telegram caps notes at 60 seconds and 640px.
	MaxDurationSec int `env:"MAX_DURATION_SEC, default=59" json:"max_duration_sec" validate:"min=1,max=60"`
	FrameSize      int `env:"FRAME_SIZE, default=360" json:"frame_size" validate:"min=2,max=640"`

	// Storage settings
	TempDir string `env:"TEMP_DIR, default=/tmp/videonote" json:"temp_dir" validate:"required"`

	// Processing settings
	MaxConcurrentTranscodes int           `env:"MAX_CONCURRENT_TRANSCODES, default=2" json:"max_concurrent_transcodes" validate:"min=1"`
	TranscodeTimeout        time.Duration `env:"TRANSCODE_TIMEOUT, default=5m" json:"transcode_timeout"`
	FFmpegPath              string        `env:"FFMPEG_PATH" json:"ffmpeg_path,omitempty"`
	FFprobePath             string        `env:"FFPROBE_PATH" json:"ffprobe_path,omitempty"`

	// Operational HTTP endpoint (health + metrics). Zero disables it.
	HTTPPort int `env:"HTTP_PORT, default=8080" json:"http_port" validate:"min=0,max=65535"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format" validate:"oneof=text json TEXT JSON"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`                                          // "debug", "info", "warn", "error"
}

// HTTPEnabled returns true if the health/metrics endpoint should be served.
func (c *Config) HTTPEnabled() bool {
	return c.HTTPPort > 0
}

// Load reads configuration from the environment using go-envconfig.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment take precedence over it.
func Load() (*Config, error) {
	// Missing .env is the normal case in containers.
	_ = godotenv.Load()

	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		if strings.Contains(err.Error(), "BOT_TOKEN") {
			return nil, ErrBotTokenRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and in range.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return ErrBotTokenRequired
	}
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	// yuv420p needs even frame dimensions.
	if c.FrameSize%2 != 0 {
		return fmt.Errorf("%w: FRAME_SIZE must be even, got %d", ErrInvalidConfig, c.FrameSize)
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{MaxDurationSec: %d, FrameSize: %d, TempDir: %s, MaxConcurrentTranscodes: %d, TranscodeTimeout: %s, HTTPPort: %d, LogFormat: %s, LogLevel: %s}",
		c.MaxDurationSec,
		c.FrameSize,
		c.TempDir,
		c.MaxConcurrentTranscodes,
		c.TranscodeTimeout,
		c.HTTPPort,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
