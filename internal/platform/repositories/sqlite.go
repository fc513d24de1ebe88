package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"zoomhook/internal/platform/models"
)

const credentialColumns = `session_id, user_id, access_token, refresh_token, token_type, scope, expires_at, status, revoked_at, created_at, updated_at`

// CredentialRepository stores credentials in SQLite with both tokens sealed.
type CredentialRepository struct {
	db     *sql.DB
	sealer *Sealer
	now    func() time.Time
}

var _ CredentialStore = (*CredentialRepository)(nil)

func NewCredentialRepository(db *sql.DB, sealer *Sealer) *CredentialRepository {
	return &CredentialRepository{db: db, sealer: sealer, now: time.Now}
}

func (r *CredentialRepository) Save(ctx context.Context, cred *models.Credential) error {
	now := r.now().Unix()
	if cred.CreatedAt == 0 {
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now

	accessToken, err := r.sealer.Seal(cred.AccessToken)
	if err != nil {
		return errors.Wrap(err, "failed to seal access token")
	}
	refreshToken, err := r.sealer.Seal(cred.RefreshToken)
	if err != nil {
		return errors.Wrap(err, "failed to seal refresh token")
	}

	var revokedAt sql.NullInt64
	if cred.RevokedAt != nil {
		revokedAt = sql.NullInt64{Int64: *cred.RevokedAt, Valid: true}
	}

	query := `
		INSERT INTO credentials (` + credentialColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			user_id = excluded.user_id,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			scope = excluded.scope,
			expires_at = excluded.expires_at,
			status = excluded.status,
			revoked_at = excluded.revoked_at,
			updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		cred.SessionID, cred.UserID, accessToken, refreshToken, cred.TokenType, cred.Scope,
		cred.ExpiresAt, string(cred.Status), revokedAt, cred.CreatedAt, cred.UpdatedAt)
	return errors.Wrap(err, "failed to save credential")
}

func (r *CredentialRepository) Update(ctx context.Context, cred *models.Credential) error {
	cred.UpdatedAt = r.now().Unix()

	accessToken, err := r.sealer.Seal(cred.AccessToken)
	if err != nil {
		return errors.Wrap(err, "failed to seal access token")
	}
	refreshToken, err := r.sealer.Seal(cred.RefreshToken)
	if err != nil {
		return errors.Wrap(err, "failed to seal refresh token")
	}

	query := `
		UPDATE credentials SET
			user_id = ?,
			access_token = ?,
			refresh_token = ?,
			token_type = ?,
			scope = ?,
			expires_at = ?,
			status = ?,
			updated_at = ?
		WHERE session_id = ? AND status != ?
	`
	res, err := r.db.ExecContext(ctx, query,
		cred.UserID, accessToken, refreshToken, cred.TokenType, cred.Scope, cred.ExpiresAt,
		string(cred.Status), cred.UpdatedAt, cred.SessionID, string(models.CredentialRevoked))
	if err != nil {
		return errors.Wrap(err, "failed to update credential")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCredentialNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *CredentialRepository) scan(row rowScanner) (*models.Credential, error) {
	var c models.Credential
	var status string
	var revokedAt sql.NullInt64

	err := row.Scan(&c.SessionID, &c.UserID, &c.AccessToken, &c.RefreshToken, &c.TokenType, &c.Scope,
		&c.ExpiresAt, &status, &revokedAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.Status = models.CredentialStatus(status)
	if revokedAt.Valid {
		c.RevokedAt = new(int64)
		*c.RevokedAt = revokedAt.Int64
	}

	if c.AccessToken, err = r.sealer.Open(c.AccessToken); err != nil {
		return nil, err
	}
	if c.RefreshToken, err = r.sealer.Open(c.RefreshToken); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CredentialRepository) Get(ctx context.Context, sessionID string) (*models.Credential, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE session_id = ? AND status != ?`,
		sessionID, string(models.CredentialRevoked))

	cred, err := r.scan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCredentialNotFound
		}
		return nil, errors.Wrap(err, "failed to get credential")
	}
	return cred, nil
}

func (r *CredentialRepository) Revoke(ctx context.Context, sessionID string) error {
	now := r.now().Unix()
	res, err := r.db.ExecContext(ctx, `UPDATE credentials SET status = ?, revoked_at = ?, updated_at = ? WHERE session_id = ? AND status != ?`,
		string(models.CredentialRevoked), now, now, sessionID, string(models.CredentialRevoked))
	if err != nil {
		return errors.Wrap(err, "failed to revoke credential")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCredentialNotFound
	}
	return nil
}

func (r *CredentialRepository) ListExpiring(ctx context.Context, before int64) ([]*models.Credential, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE status != ? AND refresh_token != '' AND expires_at < ? ORDER BY expires_at`,
		string(models.CredentialRevoked), before)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list expiring credentials")
	}
	defer rows.Close()

	var creds []*models.Credential
	for rows.Next() {
		cred, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		creds = append(creds, cred)
	}
	return creds, rows.Err()
}

func (r *CredentialRepository) PurgeRevoked(ctx context.Context, olderThan int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE status = ? AND revoked_at < ?`,
		string(models.CredentialRevoked), olderThan)
	if err != nil {
		return 0, errors.Wrap(err, "failed to purge revoked credentials")
	}
	return res.RowsAffected()
}

func (r *CredentialRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
