package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/rs/zerolog/log"

	"zoomhook/internal/pkg/logger"
	"zoomhook/internal/platform/config"
	"zoomhook/internal/platform/database"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	configPath := flag.String("config", "", "Path to config file")
	envFile := flag.String("env-file", ".env", "Path to dotenv file")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Fatal().Err(err).Msg("Failed to load env file")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logger.Init(cfg.Logging)

	if cfg.Storage.CredentialsDSN == "" {
		log.Fatal().Msg("CREDENTIALS_DSN is required")
	}

	if *direction != database.DirectionUp && *direction != database.DirectionDown {
		log.Fatal().Str("direction", *direction).Msg("Invalid direction: must be 'up' or 'down'")
	}

	ctx := context.Background()
	db, err := database.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open credentials DB")
	}
	defer db.Close()

	n, err := database.Migrate(ctx, db, *direction)
	if err != nil {
		_ = db.Close()
		log.Fatal().Err(err).Msg("Migration failed")
	}

	fmt.Printf("Migration completed successfully (%d applied)\n", n)
}
