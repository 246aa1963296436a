package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/feedrouter/internal/control"
	"github.com/vietddude/feedrouter/internal/core/config"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Secrets usually come from .env; a missing file is fine
	_ = godotenv.Load()

	// Load Configuration first (before setting up logger)
	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		// Fall back to default logger for config load errors
		stylelog.InitDefault()
		slog.Error("Failed to load config", "path", config.PathFromEnv(), "error", err)
		os.Exit(1)
	}

	stylelog.InitDefault(
		&tint.Options{
			Level:      parseLevel(cfg.Logging.Level),
			TimeFormat: time.RFC3339,
		})
	slog.Info("Logger initialized", "level", cfg.Logging.Level)

	app, err := control.NewApp(cfg)
	if err != nil {
		slog.Error("Failed to initialize feed router", "error", err)
		os.Exit(1)
	}

	// Setup Context with Cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle OS Signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.Start(ctx); err != nil {
		slog.Error("Failed to start feed router", "error", err)
		os.Exit(1)
	}

	// Wait for Signal
	sig := <-sigChan
	slog.Info("Received signal, shutting down...", "signal", sig)

	// Graceful Shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Feed router stopped gracefully")
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
