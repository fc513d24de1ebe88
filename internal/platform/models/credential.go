package models

import "time"

type CredentialStatus string

const (
	CredentialIssued    CredentialStatus = "issued"
	CredentialRefreshed CredentialStatus = "refreshed"
	CredentialRevoked   CredentialStatus = "revoked"
)

// Credential is the Zoom access credential bound to one browser session.
type Credential struct {
	SessionID    string           `json:"session_id"`
	UserID       string           `json:"user_id,omitempty"`
	AccessToken  string           `json:"-"`
	RefreshToken string           `json:"-"`
	TokenType    string           `json:"token_type"`
	Scope        string           `json:"scope,omitempty"`
	ExpiresAt    int64            `json:"expires_at"`
	Status       CredentialStatus `json:"status"`
	RevokedAt    *int64           `json:"revoked_at,omitempty"`
	CreatedAt    int64            `json:"created_at"`
	UpdatedAt    int64            `json:"updated_at"`
}

func (c *Credential) Expired(now time.Time) bool {
	return c.ExpiresAt != 0 && now.Unix() >= c.ExpiresAt
}

func (c *Credential) Revoked() bool {
	return c.Status == CredentialRevoked
}
