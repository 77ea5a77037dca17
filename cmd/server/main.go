package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/vcpkg-harbor/vcpkg-harbor/internal/cache"
	"github.com/vcpkg-harbor/vcpkg-harbor/internal/config"
	"github.com/vcpkg-harbor/vcpkg-harbor/internal/server"
	"github.com/vcpkg-harbor/vcpkg-harbor/internal/storage"
	"github.com/vcpkg-harbor/vcpkg-harbor/internal/telemetry"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	cleanup, err := telemetry.SetupTelemetry(cfg.Sentry.Enabled, cfg.Sentry.Dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to setup telemetry")
	}
	if cleanup != nil {
		defer cleanup()
	}

	ctx := context.Background()
	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Select the storage backend once; there is no runtime re-selection.
	store, err := storage.New(cfg.BackendConfig())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create storage backend")
	}

	if mb, ok := store.(*storage.MinIOBackend); ok {
		if err := mb.EnsureBucket(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to ensure bucket")
		}
	}

	// The operating mode is fixed for the process lifetime.
	mode, err := cache.ModeFromFlags(cfg.Server.ReadOnly, cfg.Server.WriteOnly)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid operating mode")
	}

	service := cache.NewService(store, mode, logger)

	// Create and run server
	srv := server.New(cfg, service, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	// Run server
	if err := srv.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}

	logger.Info().Msg("server stopped")
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Configure output format
	var logger zerolog.Logger
	if cfg.Format == "json" {
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	}

	return logger
}
