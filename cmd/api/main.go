package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"transfer-dapp-api/internal/app"
	"transfer-dapp-api/internal/cli"
	"transfer-dapp-api/internal/config"
	"transfer-dapp-api/pkg/logger"
)

func main() {
	log := logger.NewLogger("info")

	// Load environment variables
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = logger.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize provider")
	}
	defer a.Close()

	// Serve checks for a connected account and refreshes the count first
	if err := cli.Serve(ctx, a); err != nil {
		log.Error().Err(err).Msg("Server failed")
	}
}
