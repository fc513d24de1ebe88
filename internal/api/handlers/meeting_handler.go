package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"zoomhook/internal/api/middleware"
	"zoomhook/internal/engine/credentials"
	"zoomhook/internal/pkg/errors"
	"zoomhook/internal/pkg/validator"
	"zoomhook/internal/platform/auth"
	"zoomhook/internal/platform/config"
	"zoomhook/internal/platform/zoom/api"
	"zoomhook/internal/platform/zoom/oauth"
)

const defaultMeetingTopic = "Zoom sample meeting"

type AccountTokenSource interface {
	AccountToken(ctx context.Context) (*oauth.Token, error)
}

type MeetingHandler struct {
	creds    *credentials.Service
	zoom     api.ClientAPI
	account  AccountTokenSource
	tokenSvc *auth.TokenService
	bot      config.BotConfig
}

func NewMeetingHandler(creds *credentials.Service, zoom api.ClientAPI, account AccountTokenSource, tokenSvc *auth.TokenService, bot config.BotConfig) *MeetingHandler {
	return &MeetingHandler{
		creds:    creds,
		zoom:     zoom,
		account:  account,
		tokenSvc: tokenSvc,
		bot:      bot,
	}
}

type CoHostRequest struct {
	Email string `json:"email"`
}

type JoinBotResponse struct {
	Success      bool   `json:"success"`
	RegistrantID string `json:"registrant_id,omitempty"`
	JoinURL      string `json:"join_url,omitempty"`
}

type DeeplinkResponse struct {
	Deeplink string `json:"deeplink"`
}

func (h *MeetingHandler) accessToken(r *http.Request) (string, error) {
	return h.creds.AccessToken(r.Context(), middleware.SessionID(r.Context()))
}

func (h *MeetingHandler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	token, err := h.accessToken(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	topic := r.URL.Query().Get("topic")
	if topic == "" {
		topic = defaultMeetingTopic
	}

	meeting, err := h.zoom.CreateMeeting(r.Context(), token, &api.CreateMeetingRequest{
		Topic: topic,
		Type:  api.MeetingTypeInstant,
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	log.Ctx(r.Context()).Info().Int64("meeting_id", meeting.ID).Msg("meeting created")
	writeJSON(w, http.StatusOK, meeting)
}

// JoinBot registers the configured bot identity for a meeting using an
// account-level token.
func (h *MeetingHandler) JoinBot(w http.ResponseWriter, r *http.Request) {
	meetingID := r.URL.Query().Get("meetingId")
	if err := validator.IsMeetingID(meetingID); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}
	if h.bot.Email == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Bot email is not configured", nil)
		return
	}

	token, err := h.account.AccountToken(r.Context())
	if err != nil {
		h.joinBotFailed(w, r, err)
		return
	}

	registrant, err := h.zoom.AddRegistrant(r.Context(), token.AccessToken, meetingID, &api.RegistrantRequest{
		Email:     h.bot.Email,
		FirstName: h.bot.FirstName,
		LastName:  h.bot.LastName,
	})
	if err != nil {
		h.joinBotFailed(w, r, err)
		return
	}

	log.Ctx(r.Context()).Info().Str("meeting_id", meetingID).Str("registrant_id", registrant.RegistrantID).Msg("bot registered for meeting")
	writeJSON(w, http.StatusOK, JoinBotResponse{
		Success:      true,
		RegistrantID: registrant.RegistrantID,
		JoinURL:      registrant.JoinURL,
	})
}

func (h *MeetingHandler) joinBotFailed(w http.ResponseWriter, r *http.Request, err error) {
	log.Ctx(r.Context()).Error().Err(err).Str("kind", errors.KindOf(err).String()).Msg("bot failed to join meeting")

	status := http.StatusInternalServerError
	switch errors.KindOf(err) {
	case errors.KindValidation:
		status = http.StatusBadRequest
	case errors.KindAuth:
		status = http.StatusUnauthorized
	case errors.KindUpstream:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, JoinBotResponse{Success: false})
}

func (h *MeetingHandler) AssignCoHost(w http.ResponseWriter, r *http.Request) {
	meetingID := param(r, "meeting_id")
	if err := validator.IsMeetingID(meetingID); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	var req CoHostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if err := validator.IsEmail(req.Email); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	token, err := h.accessToken(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	if err := h.zoom.AssignCoHost(r.Context(), token, meetingID, req.Email); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MeetingHandler) StartRecording(w http.ResponseWriter, r *http.Request) {
	meetingID := param(r, "meeting_id")
	if err := validator.IsMeetingID(meetingID); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	token, err := h.accessToken(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	if err := h.zoom.StartRecording(r.Context(), token, meetingID); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *MeetingHandler) Deeplink(w http.ResponseWriter, r *http.Request) {
	token, err := h.accessToken(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	link, err := h.zoom.GetDeeplink(r.Context(), token, api.DefaultDeeplinkAction())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DeeplinkResponse{Deeplink: link})
}

// MeetingToken issues both meeting JWT profiles. role defaults to attendee.
func (h *MeetingHandler) MeetingToken(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	role := auth.RoleAttendee
	if raw := query.Get("role"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "role must be 0 or 1", nil)
			return
		}
		role = parsed
	}

	tokens, err := h.tokenSvc.Generate(query.Get("meetingNumber"), role)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}
