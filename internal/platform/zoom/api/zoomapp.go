package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
)

// DeeplinkAction is serialised into the "action" string of a deeplink
// request.
type DeeplinkAction struct {
	URL      string `json:"url"`
	RoleName string `json:"role_name"`
	Verified int    `json:"verified"`
	RoleID   int    `json:"role_id"`
}

// DefaultDeeplinkAction opens the app home page as the owner.
func DefaultDeeplinkAction() *DeeplinkAction {
	return &DeeplinkAction{URL: "/", RoleName: "Owner", Verified: 1, RoleID: 0}
}

type deeplinkRequest struct {
	Action string `json:"action"`
}

type deeplinkResponse struct {
	Deeplink string `json:"deeplink"`
}

// GetDeeplink returns a link that opens the app inside the Zoom client.
func (c *Client) GetDeeplink(ctx context.Context, token string, action *DeeplinkAction) (string, error) {
	if action == nil {
		action = DefaultDeeplinkAction()
	}
	encoded, err := json.Marshal(action)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode deeplink action")
	}

	var resp deeplinkResponse
	if err := c.do(ctx, "get_deeplink", http.MethodPost, "/zoomapp/deeplink", token, &deeplinkRequest{Action: string(encoded)}, &resp); err != nil {
		return "", err
	}
	return resp.Deeplink, nil
}
