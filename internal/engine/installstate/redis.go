package installstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "zoomhook:install:"

// RedisStore shares pending installs between replicas. Expiry is left to
// Redis key TTLs.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		client: client,
		prefix: defaultKeyPrefix,
		ttl:    ttl,
	}, nil
}

// NewRedisStoreFromURL parses a redis:// URL.
func NewRedisStoreFromURL(url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewRedisStore(redis.NewClient(opts), ttl)
}

func (s *RedisStore) key(state string) string {
	return s.prefix + state
}

func (s *RedisStore) Save(ctx context.Context, state *State) error {
	now := time.Now()
	entry := *state
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	ttl := s.ttl
	if entry.ExpiresAt.IsZero() {
		entry.ExpiresAt = now.Add(ttl)
	} else {
		ttl = entry.ExpiresAt.Sub(now)
		if ttl <= 0 {
			return ErrExpired
		}
	}

	data, err := json.Marshal(&entry)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, s.key(entry.State), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to save install state: %w", err)
	}
	if !ok {
		return ErrDuplicate
	}
	return nil
}

func (s *RedisStore) Take(ctx context.Context, state string) (*State, error) {
	data, err := s.client.GetDel(ctx, s.key(state)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load install state: %w", err)
	}

	var entry State
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode install state: %w", err)
	}
	if entry.Expired(time.Now()) {
		return nil, ErrNotFound
	}
	return &entry, nil
}

func (s *RedisStore) Sweep(context.Context) (int, error) {
	return 0, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
