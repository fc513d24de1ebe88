package api

import (
	"context"
	"net/http"
	"net/url"
)

// Meeting type constants for Zoom API
const (
	MeetingTypeInstant              = 1
	MeetingTypeScheduled            = 2
	MeetingTypeRecurringNoFixedTime = 3
	MeetingTypeRecurringFixedTime   = 8
)

type CreateMeetingRequest struct {
	Topic     string           `json:"topic"`
	Type      int              `json:"type"`
	StartTime string           `json:"start_time,omitempty"`
	Duration  int              `json:"duration,omitempty"`
	Timezone  string           `json:"timezone,omitempty"`
	Agenda    string           `json:"agenda,omitempty"`
	Settings  *MeetingSettings `json:"settings,omitempty"`
}

type MeetingSettings struct {
	HostVideo        *bool  `json:"host_video,omitempty"`
	ParticipantVideo *bool  `json:"participant_video,omitempty"`
	JoinBeforeHost   *bool  `json:"join_before_host,omitempty"`
	WaitingRoom      *bool  `json:"waiting_room,omitempty"`
	ApprovalType     *int   `json:"approval_type,omitempty"`
	AutoRecording    string `json:"auto_recording,omitempty"`
	AlternativeHosts string `json:"alternative_hosts,omitempty"`
}

type Meeting struct {
	ID        int64            `json:"id"`
	UUID      string           `json:"uuid"`
	HostID    string           `json:"host_id"`
	HostEmail string           `json:"host_email,omitempty"`
	Topic     string           `json:"topic"`
	Type      int              `json:"type"`
	Status    string           `json:"status,omitempty"`
	StartTime string           `json:"start_time,omitempty"`
	Duration  int              `json:"duration,omitempty"`
	Timezone  string           `json:"timezone,omitempty"`
	CreatedAt string           `json:"created_at,omitempty"`
	StartURL  string           `json:"start_url"`
	JoinURL   string           `json:"join_url"`
	Password  string           `json:"password,omitempty"`
	Settings  *MeetingSettings `json:"settings,omitempty"`
}

type RegistrantRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
}

type Registrant struct {
	ID           string `json:"id,omitempty"`
	RegistrantID string `json:"registrant_id"`
	JoinURL      string `json:"join_url"`
	StartTime    string `json:"start_time,omitempty"`
	Topic        string `json:"topic,omitempty"`
}

type updateMeetingRequest struct {
	Settings *MeetingSettings `json:"settings,omitempty"`
}

type recordingActionRequest struct {
	Action string `json:"action"`
}

// CreateMeeting creates a meeting owned by the token's user.
func (c *Client) CreateMeeting(ctx context.Context, token string, request *CreateMeetingRequest) (*Meeting, error) {
	var meeting Meeting
	if err := c.do(ctx, "create_meeting", http.MethodPost, "/users/me/meetings", token, request, &meeting); err != nil {
		return nil, err
	}
	return &meeting, nil
}

func (c *Client) AddRegistrant(ctx context.Context, token, meetingID string, request *RegistrantRequest) (*Registrant, error) {
	var registrant Registrant
	path := "/meetings/" + url.PathEscape(meetingID) + "/registrants"
	if err := c.do(ctx, "add_registrant", http.MethodPost, path, token, request, &registrant); err != nil {
		return nil, err
	}
	return &registrant, nil
}

// AssignCoHost makes email an alternative host of the meeting.
func (c *Client) AssignCoHost(ctx context.Context, token, meetingID, email string) error {
	body := &updateMeetingRequest{Settings: &MeetingSettings{AlternativeHosts: email}}
	return c.do(ctx, "assign_cohost", http.MethodPatch, "/meetings/"+url.PathEscape(meetingID), token, body, nil)
}

func (c *Client) StartRecording(ctx context.Context, token, meetingID string) error {
	path := "/meetings/" + url.PathEscape(meetingID) + "/recordings"
	return c.do(ctx, "start_recording", http.MethodPatch, path, token, &recordingActionRequest{Action: "start"}, nil)
}
