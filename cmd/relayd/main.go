package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hoanle0126/LuxeBeauty-sub003/internal/server"
	"github.com/hoanle0126/LuxeBeauty-sub003/pkg/config"
	"github.com/hoanle0126/LuxeBeauty-sub003/pkg/logging"
)

func main() {
	logger := logging.New(logging.ParseLevel(os.Getenv("RELAY_LOG_LEVEL")))
	slog.SetDefault(logger)

	cfg, err := config.Load(logger, "config")
	if err != nil {
		logger.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := server.NewApp(logger, ctx, cfg)
	if err := app.Run(); err != nil {
		logger.Error("Application run failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Application shut down successfully.")
}
