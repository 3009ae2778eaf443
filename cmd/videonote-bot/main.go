// Package main provides the entry point for the video note bot.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maauso/videonote-bot/internal/bootstrap"
	"github.com/maauso/videonote-bot/internal/config"
	"github.com/maauso/videonote-bot/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create structured logger
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting video note bot",
		slog.Int("max_duration_sec", cfg.MaxDurationSec),
		slog.Int("frame_size", cfg.FrameSize),
		slog.String("temp_dir", cfg.TempDir),
		slog.Int("max_concurrent_transcodes", cfg.MaxConcurrentTranscodes),
		slog.Duration("transcode_timeout", cfg.TranscodeTimeout),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("log_format", cfg.LogFormat),
		slog.String("log_level", cfg.LogLevel),
	)

	deps, err := bootstrap.NewDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		deps.Bot.Run(ctx)
		return nil
	})

	if cfg.HTTPEnabled() {
		handlers := server.NewHandlers(logger)
		srv := &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
			Handler:      server.NewRouter(handlers, deps.Registry, logger),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		g.Go(func() error {
			logger.Info("HTTP server listening",
				slog.String("addr", srv.Addr),
			)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			logger.Info("shutting down HTTP server...")
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown failed: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("stopped gracefully")
	return nil
}
