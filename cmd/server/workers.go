package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/rs/zerolog/log"

	"zoomhook/internal/engine/credentials"
	"zoomhook/internal/platform/config"
	"zoomhook/internal/workers"
)

// addWorker registers a periodic job that stops when the group is
// interrupted.
func addWorker(parent context.Context, g *run.Group, name string, interval time.Duration, job func(context.Context) error) {
	ctx, cancel := context.WithCancel(parent)
	g.Add(func() error {
		err := workers.Every(ctx, name, interval, job)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}, func(error) {
		cancel()
	})
}

func addCredentialWorkers(ctx context.Context, g *run.Group, creds *credentials.Service, cfg config.WorkersConfig) {
	addWorker(ctx, g, "credential-refresh", cfg.RefreshInterval, func(ctx context.Context) error {
		return workers.RefreshExpiringCredentials(ctx, creds, cfg)
	})
	addWorker(ctx, g, "credential-purge", cfg.PurgeInterval, func(ctx context.Context) error {
		return workers.PurgeRevokedCredentials(ctx, creds, cfg)
	})
}

// addSignalHandler ends the group on SIGINT or SIGTERM.
func addSignalHandler(parent context.Context, g *run.Group) {
	ctx, cancel := context.WithCancel(parent)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	g.Add(func() error {
		select {
		case sig := <-sigs:
			log.Info().Str("signal", sig.String()).Msg("Shutting down")
		case <-ctx.Done():
		}
		return nil
	}, func(error) {
		signal.Stop(sigs)
		cancel()
	})
}
