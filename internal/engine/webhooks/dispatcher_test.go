package webhooks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	event, err := ParseEvent([]byte(`{"event":"recording.completed","event_ts":1700000000,"payload":{"object":{"id":123}}}`))
	require.NoError(t, err)
	assert.Equal(t, EventRecordingCompleted, event.Event)
	assert.Equal(t, int64(1700000000), event.EventTS)

	_, err = ParseEvent([]byte(`{"payload":{}}`))
	assert.ErrorIs(t, err, ErrMissingEvent)

	_, err = ParseEvent([]byte(`{`))
	assert.Error(t, err)
}

func TestDispatcher_Dispatch(t *testing.T) {
	d := NewDispatcher()

	var got string
	d.Handle("meeting.started", func(_ context.Context, e *Event) error {
		got = e.Event
		return nil
	})
	d.Handle("meeting.ended", func(context.Context, *Event) error {
		return errors.New("boom")
	})

	handled, err := d.Dispatch(context.Background(), &Event{Event: "meeting.started"})
	assert.True(t, handled)
	assert.NoError(t, err)
	assert.Equal(t, "meeting.started", got)

	handled, err = d.Dispatch(context.Background(), &Event{Event: "meeting.ended"})
	assert.True(t, handled)
	assert.Error(t, err)

	handled, err = d.Dispatch(context.Background(), &Event{Event: "user.created"})
	assert.False(t, handled)
	assert.NoError(t, err)
}

func TestDefaultDispatcher_RecordingCompleted(t *testing.T) {
	d := NewDefaultDispatcher()
	event, err := ParseEvent([]byte(`{
		"event": "recording.completed",
		"payload": {
			"account_id": "acc",
			"object": {
				"id": 85746065432,
				"uuid": "abc==",
				"topic": "Standup",
				"recording_files": [
					{"id": "f1", "file_type": "MP4", "file_size": 1024, "recording_type": "shared_screen_with_speaker_view", "status": "completed"}
				]
			}
		}
	}`))
	require.NoError(t, err)

	handled, err := d.Dispatch(context.Background(), event)
	assert.True(t, handled)
	assert.NoError(t, err)
}

func TestDefaultDispatcher_BadPayload(t *testing.T) {
	d := NewDefaultDispatcher()

	handled, err := d.Dispatch(context.Background(), &Event{Event: EventMeetingStarted, Payload: []byte(`[]`)})
	assert.True(t, handled)
	assert.Error(t, err)
}
