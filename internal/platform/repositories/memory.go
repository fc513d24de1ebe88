package repositories

import (
	"context"
	"sync"
	"time"

	"zoomhook/internal/platform/models"
)

type MemoryCredentialStore struct {
	mu    sync.RWMutex
	creds map[string]models.Credential
	now   func() time.Time
}

var _ CredentialStore = (*MemoryCredentialStore)(nil)

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{
		creds: make(map[string]models.Credential),
		now:   time.Now,
	}
}

func (s *MemoryCredentialStore) Save(ctx context.Context, cred *models.Credential) error {
	now := s.now().Unix()

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.creds[cred.SessionID]; ok && cred.CreatedAt == 0 {
		cred.CreatedAt = existing.CreatedAt
	}
	if cred.CreatedAt == 0 {
		cred.CreatedAt = now
	}
	cred.UpdatedAt = now
	s.creds[cred.SessionID] = *cred
	return nil
}

func (s *MemoryCredentialStore) Update(ctx context.Context, cred *models.Credential) error {
	now := s.now().Unix()

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.creds[cred.SessionID]
	if !ok || existing.Revoked() {
		return ErrCredentialNotFound
	}
	cred.CreatedAt = existing.CreatedAt
	cred.RevokedAt = nil
	cred.UpdatedAt = now
	s.creds[cred.SessionID] = *cred
	return nil
}

func (s *MemoryCredentialStore) Get(ctx context.Context, sessionID string) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.creds[sessionID]
	if !ok || cred.Revoked() {
		return nil, ErrCredentialNotFound
	}
	return &cred, nil
}

func (s *MemoryCredentialStore) Revoke(ctx context.Context, sessionID string) error {
	now := s.now().Unix()

	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.creds[sessionID]
	if !ok || cred.Revoked() {
		return ErrCredentialNotFound
	}
	cred.Status = models.CredentialRevoked
	cred.RevokedAt = &now
	cred.UpdatedAt = now
	s.creds[sessionID] = cred
	return nil
}

func (s *MemoryCredentialStore) ListExpiring(ctx context.Context, before int64) ([]*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Credential
	for _, cred := range s.creds {
		if cred.Revoked() || cred.RefreshToken == "" || cred.ExpiresAt >= before {
			continue
		}
		c := cred
		out = append(out, &c)
	}
	return out, nil
}

func (s *MemoryCredentialStore) PurgeRevoked(ctx context.Context, olderThan int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for id, cred := range s.creds {
		if cred.Revoked() && cred.RevokedAt != nil && *cred.RevokedAt < olderThan {
			delete(s.creds, id)
			purged++
		}
	}
	return purged, nil
}

func (s *MemoryCredentialStore) Ping(ctx context.Context) error {
	return nil
}
