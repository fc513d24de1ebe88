package installstate

import (
	"context"
	"sync"
	"time"
)

type MemoryStore struct {
	store sync.Map // map[state]*State
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl: ttl,
		now: time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, state *State) error {
	now := s.now()
	entry := *state
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.ExpiresAt.IsZero() {
		entry.ExpiresAt = now.Add(s.ttl)
	}
	if entry.Expired(now) {
		return ErrExpired
	}

	if _, loaded := s.store.LoadOrStore(entry.State, &entry); loaded {
		return ErrDuplicate
	}
	return nil
}

func (s *MemoryStore) Take(_ context.Context, state string) (*State, error) {
	val, ok := s.store.LoadAndDelete(state)
	if !ok {
		return nil, ErrNotFound
	}

	entry := val.(*State)
	if entry.Expired(s.now()) {
		return nil, ErrNotFound
	}
	return entry, nil
}

func (s *MemoryStore) Sweep(_ context.Context) (int, error) {
	now := s.now()
	removed := 0
	s.store.Range(func(key, value interface{}) bool {
		if value.(*State).Expired(now) {
			s.store.Delete(key)
			removed++
		}
		return true
	})
	return removed, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}
