package workers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"zoomhook/internal/platform/config"
)

type CredentialMaintainer interface {
	RefreshExpiring(ctx context.Context, window time.Duration) (int, error)
	PurgeRevoked(ctx context.Context, olderThan time.Duration) (int64, error)
}

type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// RefreshExpiringCredentials refreshes credentials that expire within the
// configured window.
func RefreshExpiringCredentials(ctx context.Context, m CredentialMaintainer, cfg config.WorkersConfig) error {
	n, err := m.RefreshExpiring(ctx, cfg.RefreshWindow)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Ctx(ctx).Info().Int("refreshed", n).Msg("Worker: refreshed expiring credentials")
	}
	return nil
}

func PurgeRevokedCredentials(ctx context.Context, m CredentialMaintainer, cfg config.WorkersConfig) error {
	n, err := m.PurgeRevoked(ctx, cfg.PurgeAfter)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Ctx(ctx).Info().Int64("purged", n).Msg("Worker: purged revoked credentials")
	}
	return nil
}

func SweepInstallStates(ctx context.Context, s Sweeper) error {
	n, err := s.Sweep(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Ctx(ctx).Debug().Int("swept", n).Msg("Worker: swept expired install states")
	}
	return nil
}

// Every runs job on each tick until ctx is cancelled. Job errors are logged
// and do not stop the loop.
func Every(ctx context.Context, name string, interval time.Duration, job func(context.Context) error) error {
	if interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger := log.Ctx(ctx).With().Str("worker", name).Logger()
	logger.Info().Dur("interval", interval).Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("worker stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := job(logger.WithContext(ctx)); err != nil {
				logger.Error().Err(err).Msg("worker run failed")
			}
		}
	}
}
