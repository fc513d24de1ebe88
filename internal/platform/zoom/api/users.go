package api

import (
	"context"
	"net/http"
	"net/url"
)

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DisplayName string `json:"display_name,omitempty"`
	Type        int    `json:"type"`
	Status      string `json:"status,omitempty"`
	AccountID   string `json:"account_id,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	PMI         int64  `json:"pmi,omitempty"`
}

func (c *Client) GetUser(ctx context.Context, token, userID string) (*User, error) {
	var user User
	if err := c.do(ctx, "get_user", http.MethodGet, "/users/"+url.PathEscape(userID), token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetMe(ctx context.Context, token string) (*User, error) {
	return c.GetUser(ctx, token, "me")
}
