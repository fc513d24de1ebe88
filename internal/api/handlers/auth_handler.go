package handlers

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"zoomhook/internal/api/middleware"
	"zoomhook/internal/engine/credentials"
	"zoomhook/internal/engine/installstate"
	"zoomhook/internal/pkg/errors"
	"zoomhook/internal/platform/models"
	"zoomhook/internal/platform/zoom/api"
	"zoomhook/internal/platform/zoom/oauth"
)

type OAuthClient interface {
	InstallURL() (*oauth.InstallRequest, error)
	Exchange(ctx context.Context, code, verifier string) (*oauth.Token, error)
}

type AuthHandler struct {
	oauth  OAuthClient
	states installstate.Store
	creds  *credentials.Service
	zoom   api.ClientAPI
}

func NewAuthHandler(oauthClient OAuthClient, states installstate.Store, creds *credentials.Service, zoom api.ClientAPI) *AuthHandler {
	return &AuthHandler{
		oauth:  oauthClient,
		states: states,
		creds:  creds,
		zoom:   zoom,
	}
}

type CallbackResponse struct {
	Token *oauth.Token `json:"token"`
	User  *api.User    `json:"user"`
}

type TokenResponse struct {
	AccessToken string                  `json:"access_token"`
	TokenType   string                  `json:"token_type"`
	Scope       string                  `json:"scope,omitempty"`
	ExpiresAt   int64                   `json:"expires_at"`
	ExpiresIn   int64                   `json:"expires_in"`
	Status      models.CredentialStatus `json:"status"`
}

// Install starts the PKCE flow and redirects the browser to Zoom.
func (h *AuthHandler) Install(w http.ResponseWriter, r *http.Request) {
	req, err := h.oauth.InstallURL()
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	state := &installstate.State{
		State:     req.State,
		Verifier:  req.Verifier,
		SessionID: middleware.SessionID(r.Context()),
	}
	if err := h.states.Save(r.Context(), state); err != nil {
		writeFailure(w, r, err)
		return
	}

	http.Redirect(w, r, req.URL, http.StatusFound)
}

// Callback handles the redirect back from Zoom: it consumes the state,
// exchanges the code and binds the credential to the session.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("code")
	stateParam := query.Get("state")

	if code == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Missing authorization code", nil)
		return
	}
	if stateParam == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Missing state", nil)
		return
	}

	state, err := h.states.Take(r.Context(), stateParam)
	if err != nil {
		if stderrors.Is(err, installstate.ErrNotFound) {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid or expired state", nil)
			return
		}
		writeFailure(w, r, err)
		return
	}

	sessionID := middleware.SessionID(r.Context())
	if state.SessionID == "" || state.SessionID != sessionID {
		log.Ctx(r.Context()).Warn().Msg("install state presented by a different session")
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid or expired state", nil)
		return
	}

	token, err := h.oauth.Exchange(r.Context(), code, state.Verifier)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	user, err := h.zoom.GetMe(r.Context(), token.AccessToken)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	if _, err := h.creds.Issue(r.Context(), sessionID, user.ID, token); err != nil {
		writeFailure(w, r, err)
		return
	}

	log.Ctx(r.Context()).Info().Str("zoom_user_id", user.ID).Msg("app installed for session")
	writeJSON(w, http.StatusOK, CallbackResponse{Token: token, User: user})
}

func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	cred, err := h.creds.Refresh(r.Context(), middleware.SessionID(r.Context()))
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	resp := TokenResponse{
		AccessToken: cred.AccessToken,
		TokenType:   cred.TokenType,
		Scope:       cred.Scope,
		ExpiresAt:   cred.ExpiresAt,
		Status:      cred.Status,
	}
	if cred.ExpiresAt > 0 {
		resp.ExpiresIn = cred.ExpiresAt - time.Now().Unix()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	if err := h.creds.Revoke(r.Context(), middleware.SessionID(r.Context())); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
