// Package credentials manages the lifecycle of per-session Zoom tokens:
// issued on install, refreshed before expiry, revoked on request.
package credentials

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	apperrors "zoomhook/internal/pkg/errors"
	"zoomhook/internal/platform/audit"
	"zoomhook/internal/platform/models"
	"zoomhook/internal/platform/repositories"
	"zoomhook/internal/platform/zoom/oauth"
)

// refreshLeeway refreshes access tokens slightly before Zoom rejects them.
const refreshLeeway = time.Minute

type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth.Token, error)
}

type Auditor interface {
	Log(ctx context.Context, action, sessionID, userID string, metadata map[string]interface{})
}

type nopAuditor struct{}

func (nopAuditor) Log(context.Context, string, string, string, map[string]interface{}) {}

type Option func(*Service)

func WithAuditor(a Auditor) Option {
	return func(s *Service) {
		if a != nil {
			s.audit = a
		}
	}
}

type Service struct {
	store     repositories.CredentialStore
	refresher Refresher
	audit     Auditor
	now       func() time.Time

	// refreshes serializes token refreshes per session; Zoom refresh
	// tokens are single use.
	refreshes singleflight.Group
}

func NewService(store repositories.CredentialStore, refresher Refresher, opts ...Option) *Service {
	s := &Service{store: store, refresher: refresher, audit: nopAuditor{}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue stores a freshly exchanged token for the session.
func (s *Service) Issue(ctx context.Context, sessionID, userID string, token *oauth.Token) (*models.Credential, error) {
	cred := &models.Credential{
		SessionID: sessionID,
		UserID:    userID,
		Status:    models.CredentialIssued,
	}
	applyToken(cred, token)

	if err := s.store.Save(ctx, cred); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, audit.ActionIssued, sessionID, userID, map[string]interface{}{
		"scope":      cred.Scope,
		"expires_at": cred.ExpiresAt,
	})
	return cred, nil
}

// Current returns the session's active credential. A missing or revoked
// credential is an auth failure.
func (s *Service) Current(ctx context.Context, sessionID string) (*models.Credential, error) {
	if sessionID == "" {
		return nil, apperrors.Auth("credentials.current", repositories.ErrCredentialNotFound)
	}
	cred, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCredentialNotFound) {
			return nil, apperrors.Auth("credentials.current", err)
		}
		return nil, err
	}
	return cred, nil
}

// AccessToken returns a usable access token, refreshing first when the
// stored one is about to expire.
func (s *Service) AccessToken(ctx context.Context, sessionID string) (string, error) {
	cred, err := s.Current(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if !cred.Expired(s.now().Add(refreshLeeway)) {
		return cred.AccessToken, nil
	}

	cred, err = s.refresh(ctx, cred)
	if err != nil {
		return "", err
	}
	return cred.AccessToken, nil
}

func (s *Service) Refresh(ctx context.Context, sessionID string) (*models.Credential, error) {
	cred, err := s.Current(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.refresh(ctx, cred)
}

// refresh exchanges the refresh token seen in snapshot. If another caller
// rotated it in the meantime the stored credential is returned as is.
func (s *Service) refresh(ctx context.Context, snapshot *models.Credential) (*models.Credential, error) {
	v, err, _ := s.refreshes.Do(snapshot.SessionID, func() (interface{}, error) {
		// The rotation must be persisted even if the caller goes away.
		ctx := context.WithoutCancel(ctx)

		cred, err := s.store.Get(ctx, snapshot.SessionID)
		if err != nil {
			if errors.Is(err, repositories.ErrCredentialNotFound) {
				return nil, apperrors.Auth("credentials.refresh", err)
			}
			return nil, err
		}
		if cred.RefreshToken != snapshot.RefreshToken {
			return cred, nil
		}

		token, err := s.refresher.Refresh(ctx, cred.RefreshToken)
		if err != nil {
			return nil, err
		}

		applyToken(cred, token)
		cred.Status = models.CredentialRefreshed
		if err := s.store.Update(ctx, cred); err != nil {
			if errors.Is(err, repositories.ErrCredentialNotFound) {
				return nil, apperrors.Auth("credentials.refresh", err)
			}
			return nil, err
		}
		s.audit.Log(ctx, audit.ActionRefreshed, cred.SessionID, cred.UserID, map[string]interface{}{
			"expires_at": cred.ExpiresAt,
		})
		return cred, nil
	})
	if err != nil {
		return nil, err
	}
	c := *v.(*models.Credential)
	return &c, nil
}

func (s *Service) Revoke(ctx context.Context, sessionID string) error {
	err := s.store.Revoke(ctx, sessionID)
	if errors.Is(err, repositories.ErrCredentialNotFound) {
		return apperrors.Auth("credentials.revoke", err)
	}
	if err != nil {
		return err
	}
	s.audit.Log(ctx, audit.ActionRevoked, sessionID, "", nil)
	return nil
}

// RefreshExpiring refreshes every active credential expiring within window.
// Credentials whose refresh token Zoom rejects are revoked.
func (s *Service) RefreshExpiring(ctx context.Context, window time.Duration) (int, error) {
	creds, err := s.store.ListExpiring(ctx, s.now().Add(window).Unix())
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, cred := range creds {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}

		if _, err := s.refresh(ctx, cred); err != nil {
			logger := log.Ctx(ctx).With().Str("session_id", cred.SessionID).Logger()
			if errors.Is(err, repositories.ErrCredentialNotFound) {
				// revoked while the refresh was in flight
				continue
			}
			if apperrors.KindOf(err) == apperrors.KindAuth {
				logger.Warn().Err(err).Msg("refresh token rejected, revoking credential")
				if err := s.store.Revoke(ctx, cred.SessionID); err != nil {
					logger.Error().Err(err).Msg("failed to revoke credential")
					continue
				}
				s.audit.Log(ctx, audit.ActionRefreshRejected, cred.SessionID, cred.UserID, nil)
				continue
			}
			logger.Error().Err(err).Msg("failed to refresh credential")
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

// PurgeRevoked deletes credentials revoked more than olderThan ago.
func (s *Service) PurgeRevoked(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := s.store.PurgeRevoked(ctx, s.now().Add(-olderThan).Unix())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.audit.Log(ctx, audit.ActionPurged, "", "", map[string]interface{}{"count": n})
	}
	return n, nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func applyToken(cred *models.Credential, token *oauth.Token) {
	cred.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		cred.RefreshToken = token.RefreshToken
	}
	cred.TokenType = token.TokenType
	if token.Scope != "" {
		cred.Scope = token.Scope
	}
	if !token.Expiry.IsZero() {
		cred.ExpiresAt = token.Expiry.Unix()
	} else {
		cred.ExpiresAt = 0
	}
}
