package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"zoomhook/internal/engine/credentials"
	"zoomhook/internal/pkg/logger"
	"zoomhook/internal/platform/audit"
	"zoomhook/internal/platform/config"
	"zoomhook/internal/platform/repositories"
	"zoomhook/internal/platform/zoom/oauth"
	"zoomhook/internal/workers"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	envFile := flag.String("env-file", ".env", "Path to dotenv file")
	once := flag.Bool("once", false, "Run each job once and exit")
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
		log.Fatal().Msg("CREDENTIALS_DSN is required; the in-memory store is maintained by the server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.Logger.WithContext(ctx)

	storage, err := repositories.OpenStorage(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open credential store")
	}
	defer storage.Close()

	refresher := oauth.NewClient(oauth.Config{
		Host:         cfg.Zoom.Host,
		ClientID:     cfg.Zoom.ClientID,
		ClientSecret: cfg.Zoom.ClientSecret,
		RedirectURL:  cfg.Zoom.RedirectURL,
	})
	creds := credentials.NewService(storage.Credentials, refresher, credentials.WithAuditor(audit.NewLogger(storage.DB)))

	log.Info().Msg("Starting credential workers")

	if *once {
		if err := workers.RefreshExpiringCredentials(ctx, creds, cfg.Workers); err != nil {
			log.Error().Err(err).Msg("refresh run failed")
		}
		if err := workers.PurgeRevokedCredentials(ctx, creds, cfg.Workers); err != nil {
			log.Error().Err(err).Msg("purge run failed")
		}
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return workers.Every(gctx, "credential-refresh", cfg.Workers.RefreshInterval, func(ctx context.Context) error {
			return workers.RefreshExpiringCredentials(ctx, creds, cfg.Workers)
		})
	})
	g.Go(func() error {
		return workers.Every(gctx, "credential-purge", cfg.Workers.PurgeInterval, func(ctx context.Context) error {
			return workers.PurgeRevokedCredentials(ctx, creds, cfg.Workers)
		})
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("worker exited")
	}
	log.Info().Msg("Workers stopped")
}
