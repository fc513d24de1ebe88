package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zoomhook/internal/platform/models"
)

// exerciseLifecycle runs the issued, refreshed, revoked, purged sequence
// against any store.
func exerciseLifecycle(t *testing.T, store CredentialStore, setNow func(time.Time)) {
	t.Helper()
	ctx := context.Background()
	base := time.Unix(1700000000, 0)
	setNow(base)

	cred := &models.Credential{
		SessionID:    "sess-1",
		UserID:       "user-1",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "bearer",
		Scope:        "meeting:write",
		ExpiresAt:    base.Add(time.Hour).Unix(),
		Status:       models.CredentialIssued,
	}
	require.NoError(t, store.Save(ctx, cred))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "access-1", got.AccessToken)
	assert.Equal(t, "refresh-1", got.RefreshToken)
	assert.Equal(t, models.CredentialIssued, got.Status)
	assert.Equal(t, base.Unix(), got.CreatedAt)

	expiring, err := store.ListExpiring(ctx, base.Add(30*time.Minute).Unix())
	require.NoError(t, err)
	assert.Empty(t, expiring)

	expiring, err = store.ListExpiring(ctx, base.Add(2*time.Hour).Unix())
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, "sess-1", expiring[0].SessionID)

	setNow(base.Add(time.Minute))
	refreshed := *got
	refreshed.AccessToken = "access-2"
	refreshed.RefreshToken = "refresh-2"
	refreshed.Status = models.CredentialRefreshed
	require.NoError(t, store.Save(ctx, &refreshed))

	got, err = store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "access-2", got.AccessToken)
	assert.Equal(t, models.CredentialRefreshed, got.Status)
	assert.Equal(t, base.Unix(), got.CreatedAt)
	assert.Equal(t, base.Add(time.Minute).Unix(), got.UpdatedAt)

	require.NoError(t, store.Revoke(ctx, "sess-1"))
	_, err = store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrCredentialNotFound)
	assert.ErrorIs(t, store.Revoke(ctx, "sess-1"), ErrCredentialNotFound)

	expiring, err = store.ListExpiring(ctx, base.Add(2*time.Hour).Unix())
	require.NoError(t, err)
	assert.Empty(t, expiring)

	purged, err := store.PurgeRevoked(ctx, base.Unix())
	require.NoError(t, err)
	assert.Equal(t, int64(0), purged)

	purged, err = store.PurgeRevoked(ctx, base.Add(time.Hour).Unix())
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	assert.NoError(t, store.Ping(ctx))
}

// exerciseUpdate checks that Update never revives a revoked credential.
func exerciseUpdate(t *testing.T, store CredentialStore) {
	t.Helper()
	ctx := context.Background()

	missing := &models.Credential{SessionID: "none", AccessToken: "a", Status: models.CredentialRefreshed}
	assert.ErrorIs(t, store.Update(ctx, missing), ErrCredentialNotFound)

	require.NoError(t, store.Save(ctx, &models.Credential{
		SessionID:    "sess-u",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		Status:       models.CredentialIssued,
	}))

	require.NoError(t, store.Update(ctx, &models.Credential{
		SessionID:    "sess-u",
		AccessToken:  "access-2",
		RefreshToken: "refresh-2",
		Status:       models.CredentialRefreshed,
	}))
	got, err := store.Get(ctx, "sess-u")
	require.NoError(t, err)
	assert.Equal(t, "access-2", got.AccessToken)
	assert.Equal(t, models.CredentialRefreshed, got.Status)

	require.NoError(t, store.Revoke(ctx, "sess-u"))
	err = store.Update(ctx, &models.Credential{
		SessionID:    "sess-u",
		AccessToken:  "access-3",
		RefreshToken: "refresh-3",
		Status:       models.CredentialRefreshed,
	})
	assert.ErrorIs(t, err, ErrCredentialNotFound)

	_, err = store.Get(ctx, "sess-u")
	assert.ErrorIs(t, err, ErrCredentialNotFound)
}

func TestMemoryCredentialStore_Update(t *testing.T) {
	exerciseUpdate(t, NewMemoryCredentialStore())
}

func TestMemoryCredentialStore_Lifecycle(t *testing.T) {
	store := NewMemoryCredentialStore()
	exerciseLifecycle(t, store, func(now time.Time) {
		store.now = func() time.Time { return now }
	})
}

func TestMemoryCredentialStore_GetUnknown(t *testing.T) {
	store := NewMemoryCredentialStore()
	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCredentialNotFound)
}

func TestMemoryCredentialStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCredentialStore()
	require.NoError(t, store.Save(ctx, &models.Credential{SessionID: "s", AccessToken: "a"}))

	got, err := store.Get(ctx, "s")
	require.NoError(t, err)
	got.AccessToken = "mutated"

	again, err := store.Get(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "a", again.AccessToken)
}
