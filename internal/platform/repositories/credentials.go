package repositories

import (
	"context"
	"errors"

	"zoomhook/internal/platform/models"
)

var ErrCredentialNotFound = errors.New("credential not found")

// CredentialStore holds per-session Zoom credentials. Get never returns a
// revoked credential.
type CredentialStore interface {
	Save(ctx context.Context, cred *models.Credential) error
	// Update replaces an active credential. It returns ErrCredentialNotFound
	// when the session has none or it was revoked, and never revives one.
	Update(ctx context.Context, cred *models.Credential) error
	Get(ctx context.Context, sessionID string) (*models.Credential, error)
	Revoke(ctx context.Context, sessionID string) error
	// ListExpiring returns active credentials with a refresh token that
	// expire before the given unix time.
	ListExpiring(ctx context.Context, before int64) ([]*models.Credential, error)
	// PurgeRevoked deletes credentials revoked before the given unix time.
	PurgeRevoked(ctx context.Context, olderThan int64) (int64, error)
	Ping(ctx context.Context) error
}
