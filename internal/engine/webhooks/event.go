package webhooks

import (
	"encoding/json"
	"errors"
)

const (
	EventURLValidation      = "endpoint.url_validation"
	EventMeetingStarted     = "meeting.started"
	EventMeetingEnded       = "meeting.ended"
	EventParticipantJoined  = "meeting.participant_joined"
	EventParticipantLeft    = "meeting.participant_left"
	EventRecordingCompleted = "recording.completed"
)

var ErrMissingEvent = errors.New("webhook payload missing event field")

// Event is the envelope of every Zoom webhook delivery.
type Event struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	EventTS int64           `json:"event_ts"`
}

func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, err
	}
	if event.Event == "" {
		return nil, ErrMissingEvent
	}
	return &event, nil
}

// URLValidationRequest is the payload of an endpoint.url_validation event.
type URLValidationRequest struct {
	PlainToken string `json:"plainToken"`
}

type URLValidationResponse struct {
	PlainToken     string `json:"plainToken"`
	EncryptedToken string `json:"encryptedToken"`
}

// RespondToChallenge signs plainToken with the webhook secret.
func RespondToChallenge(secret, plainToken string) URLValidationResponse {
	return URLValidationResponse{
		PlainToken:     plainToken,
		EncryptedToken: Sign(secret, []byte(plainToken)),
	}
}

// ObjectPayload is the common {account_id, object} shape of meeting and
// recording events.
type ObjectPayload struct {
	AccountID string        `json:"account_id"`
	Object    MeetingObject `json:"object"`
}

type MeetingObject struct {
	ID             json.Number     `json:"id"`
	UUID           string          `json:"uuid"`
	HostID         string          `json:"host_id"`
	Topic          string          `json:"topic"`
	StartTime      string          `json:"start_time,omitempty"`
	Duration       int             `json:"duration,omitempty"`
	Participant    *Participant    `json:"participant,omitempty"`
	RecordingFiles []RecordingFile `json:"recording_files,omitempty"`
}

type Participant struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Email    string `json:"email,omitempty"`
}

type RecordingFile struct {
	ID            string `json:"id"`
	FileType      string `json:"file_type"`
	FileSize      int64  `json:"file_size"`
	RecordingType string `json:"recording_type"`
	Status        string `json:"status"`
	DownloadURL   string `json:"download_url"`
}
