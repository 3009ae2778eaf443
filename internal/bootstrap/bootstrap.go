// Package bootstrap provides dependency initialization for the video note bot.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/maauso/videonote-bot/internal/config"
	"github.com/maauso/videonote-bot/internal/media"
	"github.com/maauso/videonote-bot/internal/metrics"
	"github.com/maauso/videonote-bot/internal/note"
	"github.com/maauso/videonote-bot/internal/storage"
	"github.com/maauso/videonote-bot/internal/telegram"
)

// Dependencies holds all initialized dependencies for the bot process.
type Dependencies struct {
	Bot      *telegram.Bot
	Service  *note.Service
	Registry *prometheus.Registry
}

// NewDependencies creates and initializes all dependencies for the application.
// It contacts the Bot API once to verify the token.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", store.TempDir()),
	)

	registry := NewRegistry()
	m := metrics.New(registry)

	client, err := telegram.NewClient(cfg.BotToken,
		bot.WithErrorsHandler(func(err error) {
			logger.Error("bot api error", slog.String("error", err.Error()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create bot client: %w", err)
	}

	transcoder := media.NewFFmpegTranscoder(cfg.FFmpegPath, cfg.FFprobePath)

	svc := note.NewService(
		transcoder,
		store,
		telegram.NewFileDownloader(client),
		telegram.NewNoteSender(client),
		logger,
		note.WithParams(media.Params{
			MaxDurationSec: cfg.MaxDurationSec,
			FrameSize:      cfg.FrameSize,
		}),
		note.WithMaxConcurrent(cfg.MaxConcurrentTranscodes),
		note.WithTimeout(cfg.TranscodeTimeout),
		note.WithMetrics(m),
	)

	return &Dependencies{
		Bot:      telegram.NewBot(client, svc, logger),
		Service:  svc,
		Registry: registry,
	}, nil
}

// NewRegistry returns a Prometheus registry with the Go runtime and process
// collectors already registered.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}
