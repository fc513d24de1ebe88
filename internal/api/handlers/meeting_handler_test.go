package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "zoomhook/internal/pkg/errors"
	"zoomhook/internal/platform/auth"
	"zoomhook/internal/platform/config"
	"zoomhook/internal/platform/zoom/api"
	"zoomhook/internal/platform/zoom/oauth"
)

const testMeetingID = "85746065432"

func newMeetingFixture() (*MeetingHandler, *fakeZoom, *fakeOAuth) {
	o := &fakeOAuth{accountToken: &oauth.Token{AccessToken: "account-access"}}
	zoom := &fakeZoom{}
	creds, _ := newCredentials(o)
	tokens := auth.NewTokenService(config.ZoomConfig{ClientID: "client-id", ClientSecret: "client-secret"})
	bot := config.BotConfig{Email: "bot@example.com", FirstName: "Recording", LastName: "Bot"}
	return NewMeetingHandler(creds, zoom, o, tokens, bot), zoom, o
}

func TestMeetingHandler_CreateMeeting(t *testing.T) {
	h, zoom, _ := newMeetingFixture()
	zoom.meeting = &api.Meeting{ID: 85746065432, Topic: "Standup", JoinURL: "https://zoom.us/j/85746065432"}

	rr := httptest.NewRecorder()
	h.CreateMeeting(rr, withSession(httptest.NewRequest(http.MethodGet, "/createMeeting?topic=Standup", nil), "sess"))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user-access", zoom.lastToken)
	assert.Equal(t, "Standup", zoom.lastCreate.Topic)
	assert.Equal(t, api.MeetingTypeInstant, zoom.lastCreate.Type)

	var meeting api.Meeting
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &meeting))
	assert.Equal(t, int64(85746065432), meeting.ID)
}

func TestMeetingHandler_CreateMeetingWithoutCredential(t *testing.T) {
	h, zoom, _ := newMeetingFixture()

	rr := httptest.NewRecorder()
	h.CreateMeeting(rr, withSession(httptest.NewRequest(http.MethodGet, "/createMeeting", nil), "other-session"))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Nil(t, zoom.lastCreate)
}

func TestMeetingHandler_JoinBot(t *testing.T) {
	h, zoom, _ := newMeetingFixture()
	zoom.registrant = &api.Registrant{RegistrantID: "r1", JoinURL: "https://zoom.us/w/1"}

	rr := httptest.NewRecorder()
	h.JoinBot(rr, httptest.NewRequest(http.MethodGet, "/joinBot?meetingId="+testMeetingID, nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "account-access", zoom.lastToken)
	assert.Equal(t, testMeetingID, zoom.lastMeetingID)
	assert.Equal(t, "bot@example.com", zoom.lastRegistrant.Email)
	assert.Equal(t, "Recording", zoom.lastRegistrant.FirstName)

	var resp JoinBotResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestMeetingHandler_JoinBotFailures(t *testing.T) {
	t.Run("invalid meeting id", func(t *testing.T) {
		h, zoom, _ := newMeetingFixture()
		rr := httptest.NewRecorder()
		h.JoinBot(rr, httptest.NewRequest(http.MethodGet, "/joinBot?meetingId=abc", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Nil(t, zoom.lastRegistrant)
	})

	t.Run("upstream failure", func(t *testing.T) {
		h, zoom, _ := newMeetingFixture()
		zoom.err = apperrors.Upstream("zoom.add_registrant", 404, errors.New("Meeting does not exist"))

		rr := httptest.NewRecorder()
		h.JoinBot(rr, httptest.NewRequest(http.MethodGet, "/joinBot?meetingId="+testMeetingID, nil))

		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.JSONEq(t, `{"success":false}`, rr.Body.String())
	})

	t.Run("account token rejected", func(t *testing.T) {
		h, _, o := newMeetingFixture()
		o.err = apperrors.Auth("oauth.account_token", errors.New("invalid_client"))

		rr := httptest.NewRecorder()
		h.JoinBot(rr, httptest.NewRequest(http.MethodGet, "/joinBot?meetingId="+testMeetingID, nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"success":false}`, rr.Body.String())
	})
}

func cohostRequest(meetingID, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/meetings/"+meetingID+"/cohost", strings.NewReader(body))
	req = withParams(req, httprouter.Params{{Key: "meeting_id", Value: meetingID}})
	return withSession(req, "sess")
}

func TestMeetingHandler_AssignCoHost(t *testing.T) {
	h, zoom, _ := newMeetingFixture()

	rr := httptest.NewRecorder()
	h.AssignCoHost(rr, cohostRequest(testMeetingID, `{"email":"co@example.com"}`))

	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, testMeetingID, zoom.lastMeetingID)
	assert.Equal(t, "co@example.com", zoom.lastEmail)
}

func TestMeetingHandler_AssignCoHostValidation(t *testing.T) {
	tests := []struct {
		name      string
		meetingID string
		body      string
	}{
		{name: "bad email", meetingID: testMeetingID, body: `{"email":"nope"}`},
		{name: "bad body", meetingID: testMeetingID, body: `{`},
		{name: "bad meeting id", meetingID: "12", body: `{"email":"co@example.com"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, zoom, _ := newMeetingFixture()
			rr := httptest.NewRecorder()
			h.AssignCoHost(rr, cohostRequest(tt.meetingID, tt.body))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Empty(t, zoom.lastEmail)
		})
	}
}

func TestMeetingHandler_StartRecording(t *testing.T) {
	h, zoom, _ := newMeetingFixture()

	req := httptest.NewRequest(http.MethodPost, "/meetings/"+testMeetingID+"/recording/start", nil)
	req = withSession(withParams(req, httprouter.Params{{Key: "meeting_id", Value: testMeetingID}}), "sess")

	rr := httptest.NewRecorder()
	h.StartRecording(rr, req)
	require.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, testMeetingID, zoom.lastMeetingID)

	zoom.err = apperrors.Upstream("zoom.start_recording", 400, errors.New("Meeting is not in progress"))
	rr = httptest.NewRecorder()
	h.StartRecording(rr, req)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.NotContains(t, rr.Body.String(), "not in progress")
}

func TestMeetingHandler_Deeplink(t *testing.T) {
	h, zoom, _ := newMeetingFixture()
	zoom.deeplink = "zoommtg://zoom.us/launch?action=abc"

	rr := httptest.NewRecorder()
	h.Deeplink(rr, withSession(httptest.NewRequest(http.MethodGet, "/deeplink", nil), "sess"))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"deeplink":"zoommtg://zoom.us/launch?action=abc"}`, rr.Body.String())
}

func TestMeetingHandler_MeetingToken(t *testing.T) {
	h, _, _ := newMeetingFixture()

	rr := httptest.NewRecorder()
	h.MeetingToken(rr, httptest.NewRequest(http.MethodGet, "/meetingToken?meetingNumber="+testMeetingID+"&role=1", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var tokens auth.MeetingTokens
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tokens))
	assert.Equal(t, 3, len(strings.Split(tokens.Signature, ".")))
	assert.Equal(t, 3, len(strings.Split(tokens.Token, ".")))

	for _, query := range []string{"meetingNumber=" + testMeetingID + "&role=2", "meetingNumber=" + testMeetingID + "&role=x", "role=1"} {
		rr := httptest.NewRecorder()
		h.MeetingToken(rr, httptest.NewRequest(http.MethodGet, "/meetingToken?"+query, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, query)
	}
}
