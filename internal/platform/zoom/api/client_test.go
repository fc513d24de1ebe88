package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "zoomhook/internal/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL})
}

func TestBaseURLFromHost(t *testing.T) {
	tests := []struct {
		host    string
		want    string
		wantErr bool
	}{
		{host: "https://zoom.us", want: "https://api.zoom.us/v2"},
		{host: "https://zoomgov.com/", want: "https://api.zoomgov.com/v2"},
		{host: "zoom.us", wantErr: true},
		{host: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			got, err := BaseURLFromHost(tt.host)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetMe(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/users/me", r.URL.Path)
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":"u1","email":"host@example.com","first_name":"Ada","type":2}`))
	})

	user, err := client.GetMe(context.Background(), "access-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "host@example.com", user.Email)
	assert.Equal(t, "Ada", user.FirstName)
}

func TestGetUser_Unauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":124,"message":"Invalid access token."}`))
	})

	_, err := client.GetUser(context.Background(), "expired", "me")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindAuth, apperrors.KindOf(err))

	var apiErr *ErrorResponse
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 124, apiErr.Code)
}

func TestGetUser_UpstreamFailure(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("unavailable"))
	})

	_, err := client.GetUser(context.Background(), "token", "me")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUpstream, apperrors.KindOf(err))
	assert.Equal(t, 1, calls, "requests are not retried")

	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusServiceUnavailable, appErr.Status)
}

func TestTransportErrorPreservesCause(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := NewClient(Config{BaseURL: server.URL})
	server.Close()

	_, err := client.GetMe(context.Background(), "token")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUpstream, apperrors.KindOf(err))
}

func TestContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetMe(ctx, "token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCreateMeeting(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users/me/meetings", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req CreateMeetingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Standup", req.Topic)
		assert.Equal(t, MeetingTypeInstant, req.Type)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":85746065432,"topic":"Standup","join_url":"https://zoom.us/j/85746065432","start_url":"https://zoom.us/s/85746065432"}`))
	})

	meeting, err := client.CreateMeeting(context.Background(), "token", &CreateMeetingRequest{Topic: "Standup", Type: MeetingTypeInstant})
	require.NoError(t, err)
	assert.Equal(t, int64(85746065432), meeting.ID)
	assert.Equal(t, "https://zoom.us/j/85746065432", meeting.JoinURL)
}

func TestAddRegistrant(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/meetings/123/registrants", r.URL.Path)

		var req RegistrantRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "bot@example.com", req.Email)
		assert.Equal(t, "Recording", req.FirstName)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"registrant_id":"r1","join_url":"https://zoom.us/w/123?tk=abc"}`))
	})

	registrant, err := client.AddRegistrant(context.Background(), "token", "123", &RegistrantRequest{
		Email: "bot@example.com", FirstName: "Recording", LastName: "Bot",
	})
	require.NoError(t, err)
	assert.Equal(t, "r1", registrant.RegistrantID)
	assert.Equal(t, "https://zoom.us/w/123?tk=abc", registrant.JoinURL)
}

func TestAssignCoHost(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/meetings/123", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"settings":{"alternative_hosts":"co@example.com"}}`, string(body))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.AssignCoHost(context.Background(), "token", "123", "co@example.com"))
}

func TestStartRecording(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/meetings/123/recordings", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"action":"start"}`, string(body))
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.StartRecording(context.Background(), "token", "123"))
}

func TestStartRecording_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":3001,"message":"Meeting does not exist."}`))
	})

	err := client.StartRecording(context.Background(), "token", "404")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindUpstream, apperrors.KindOf(err))
	assert.Contains(t, err.Error(), "Meeting does not exist.")
}

func TestGetDeeplink(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/zoomapp/deeplink", r.URL.Path)

		var req struct {
			Action string `json:"action"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.JSONEq(t, `{"url":"/","role_name":"Owner","verified":1,"role_id":0}`, req.Action)

		_, _ = w.Write([]byte(`{"deeplink":"zoommtg://zoom.us/launch?action=abc"}`))
	})

	link, err := client.GetDeeplink(context.Background(), "token", nil)
	require.NoError(t, err)
	assert.Equal(t, "zoommtg://zoom.us/launch?action=abc", link)
}
