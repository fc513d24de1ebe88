// Package installstate binds an OAuth state parameter to its PKCE verifier
// for the duration of one install round trip.
package installstate

import (
	"context"
	"errors"
	"time"
)

const DefaultTTL = 10 * time.Minute

var (
	ErrNotFound  = errors.New("install state not found or expired")
	ErrDuplicate = errors.New("install state already exists")
	ErrExpired   = errors.New("install state already expired")
)

type State struct {
	State     string    `json:"state"`
	Verifier  string    `json:"verifier"`
	// SessionID is the browser session that started the install. The
	// callback must arrive on the same session.
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *State) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store keeps pending install attempts. States are single use: Take removes
// the entry whether or not it has expired. Save rejects an entry that is
// already expired with ErrExpired.
type Store interface {
	Save(ctx context.Context, state *State) error
	Take(ctx context.Context, state string) (*State, error)
	// Sweep drops expired entries and returns how many were removed.
	Sweep(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}
