package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"zoomhook/internal/api"
	"zoomhook/internal/api/handlers"
	"zoomhook/internal/api/middleware"
	"zoomhook/internal/engine/appcontext"
	"zoomhook/internal/engine/credentials"
	"zoomhook/internal/engine/installstate"
	"zoomhook/internal/engine/webhooks"
	"zoomhook/internal/platform/audit"
	"zoomhook/internal/platform/auth"
	"zoomhook/internal/platform/config"
	"zoomhook/internal/platform/metrics"
	"zoomhook/internal/platform/repositories"
	zoomapi "zoomhook/internal/platform/zoom/api"
	"zoomhook/internal/platform/zoom/oauth"
	"zoomhook/internal/workers"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

// application is the wired service, ready to run.
type application struct {
	server  *http.Server
	states  installstate.Store
	creds   *credentials.Service
	closers []func() error
}

func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Error().Err(err).Msg("failed to close resource")
		}
	}
}

func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	httpClient := &http.Client{Timeout: cfg.Zoom.RequestTimeout}

	oauthClient := oauth.NewClient(oauth.Config{
		Host:         cfg.Zoom.Host,
		ClientID:     cfg.Zoom.ClientID,
		ClientSecret: cfg.Zoom.ClientSecret,
		RedirectURL:  cfg.Zoom.RedirectURL,
		Account: oauth.AccountConfig{
			AccountID:    cfg.Zoom.Account.AccountID,
			ClientID:     cfg.Zoom.Account.ClientID,
			ClientSecret: cfg.Zoom.Account.ClientSecret,
			TokenURL:     cfg.Zoom.Account.OAuthEndpoint,
		},
		HTTPClient: httpClient,
		Metrics:    m,
	})

	var err error
	baseURL := cfg.Zoom.APIBaseURL
	if baseURL == "" {
		baseURL, err = zoomapi.BaseURLFromHost(cfg.Zoom.Host)
		if err != nil {
			return nil, err
		}
	}
	zoomClient := zoomapi.NewClient(zoomapi.Config{
		BaseURL:    baseURL,
		Timeout:    cfg.Zoom.RequestTimeout,
		HTTPClient: httpClient,
		Metrics:    m,
	})

	app := &application{}

	states, closeStates, err := openInstallStates(cfg)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closeStates)

	storage, err := repositories.OpenStorage(ctx, cfg.Storage)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.closers = append(app.closers, storage.Close)

	creds := credentials.NewService(storage.Credentials, oauthClient, credentials.WithAuditor(audit.NewLogger(storage.DB)))
	tokenSvc := auth.NewTokenService(cfg.Zoom)

	deps := &api.Dependencies{
		IndexHandler:      handlers.NewIndexHandler(),
		AuthHandler:       handlers.NewAuthHandler(oauthClient, states, creds, zoomClient),
		MeetingHandler:    handlers.NewMeetingHandler(creds, zoomClient, oauthClient, tokenSvc, cfg.Bot),
		WebhookHandler:    handlers.NewWebhookHandler(webhooks.NewVerifier(cfg.Webhook.SecretToken), webhooks.NewDefaultDispatcher(), m),
		AppContextHandler: handlers.NewAppContextHandler(),
		HealthHandler: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"install_states": states,
			"credentials":    creds,
		}),
		MetricsHandler:       handlers.NewMetricsHandler(registry),
		SessionMiddleware:    middleware.NewSessionMiddleware(cfg.Session),
		AppContextMiddleware: middleware.NewAppContextMiddleware(appcontext.NewDecryptor(cfg.Zoom.ClientSecret)),
	}

	app.states = states
	app.creds = creds
	app.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return app, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	ctx = log.Logger.WithContext(ctx)

	app, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := app.server
	var g run.Group

	g.Add(func() error {
		log.Info().Str("addr", srv.Addr).Msg("Listening for requests")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, func(error) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown failed")
		}
	})

	addSignalHandler(ctx, &g)

	addWorker(ctx, &g, "install-state-sweeper", sweepInterval, func(ctx context.Context) error {
		return workers.SweepInstallStates(ctx, app.states)
	})

	// With the in-memory store nothing else can reach the credentials, so
	// maintenance runs in-process. The SQLite store is maintained by cmd/worker.
	if cfg.Storage.CredentialsDSN == "" {
		addCredentialWorkers(ctx, &g, app.creds, cfg.Workers)
	}

	return g.Run()
}

func openInstallStates(cfg *config.Config) (installstate.Store, func() error, error) {
	if cfg.Storage.RedisURL == "" {
		return installstate.NewMemoryStore(cfg.Session.StateTTL), func() error { return nil }, nil
	}

	store, err := installstate.NewRedisStoreFromURL(cfg.Storage.RedisURL, cfg.Session.StateTTL)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Msg("using redis install-state store")
	return store, store.Close, nil
}
