package repositories

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoomhook/internal/platform/config"
	"zoomhook/internal/platform/database"
	"zoomhook/internal/platform/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, config.StorageConfig{
		CredentialsDSN: filepath.Join(t.TempDir(), "credentials.db"),
		MaxConnections: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = database.Migrate(ctx, db, database.DirectionUp)
	require.NoError(t, err)
	return db
}

func newTestRepository(t *testing.T, db *sql.DB) *CredentialRepository {
	t.Helper()
	sealer, err := NewSealer("test-key")
	require.NoError(t, err)
	return NewCredentialRepository(db, sealer)
}

func TestCredentialRepository_Lifecycle(t *testing.T) {
	repo := newTestRepository(t, setupTestDB(t))
	exerciseLifecycle(t, repo, func(now time.Time) {
		repo.now = func() time.Time { return now }
	})
}

func TestCredentialRepository_TokensSealedAtRest(t *testing.T) {
	db := setupTestDB(t)
	repo := newTestRepository(t, db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Credential{
		SessionID:    "sess",
		AccessToken:  "plain-access",
		RefreshToken: "plain-refresh",
		TokenType:    "bearer",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
		Status:       models.CredentialIssued,
	}))

	var access, refresh string
	require.NoError(t, db.QueryRow(`SELECT access_token, refresh_token FROM credentials WHERE session_id = ?`, "sess").Scan(&access, &refresh))
	assert.NotEqual(t, "plain-access", access)
	assert.NotEqual(t, "plain-refresh", refresh)
	assert.NotEmpty(t, access)

	other, err := NewSealer("other-key")
	require.NoError(t, err)
	_, err = NewCredentialRepository(db, other).Get(ctx, "sess")
	assert.ErrorIs(t, err, ErrUnseal)
}

func TestCredentialRepository_Update(t *testing.T) {
	exerciseUpdate(t, newTestRepository(t, setupTestDB(t)))
}

func TestCredentialRepository_UpdateSkipsRevoked(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := newTestRepository(t, db)

	mock.ExpectExec("UPDATE credentials SET (.+) WHERE session_id = \\? AND status != \\?").
		WithArgs("user", sqlmock.AnyArg(), sqlmock.AnyArg(), "bearer", "", int64(0), "refreshed", sqlmock.AnyArg(), "sess", "revoked").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Update(context.Background(), &models.Credential{
		SessionID:    "sess",
		UserID:       "user",
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "bearer",
		Status:       models.CredentialRefreshed,
	})
	assert.ErrorIs(t, err, ErrCredentialNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_SaveQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := newTestRepository(t, db)
	repo.now = func() time.Time { return time.Unix(100, 0) }

	mock.ExpectExec("INSERT INTO credentials .* ON CONFLICT\\(session_id\\) DO UPDATE").
		WithArgs("sess", "user", sqlmock.AnyArg(), "", "bearer", "", int64(200), "issued", nil, int64(100), int64(100)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.Save(context.Background(), &models.Credential{
		SessionID:   "sess",
		UserID:      "user",
		AccessToken: "access",
		TokenType:   "bearer",
		ExpiresAt:   200,
		Status:      models.CredentialIssued,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_GetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := newTestRepository(t, db)

	mock.ExpectQuery("SELECT (.+) FROM credentials WHERE session_id = \\? AND status != \\?").
		WithArgs("missing", "revoked").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCredentialNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialRepository_RevokeUnknown(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := newTestRepository(t, db)

	mock.ExpectExec("UPDATE credentials SET status = \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Revoke(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCredentialNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
