package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// HandlerFunc processes a verified event.
type HandlerFunc func(ctx context.Context, event *Event) error

// Dispatcher routes verified events to the handlers registered for their
// type. Events without a handler are acknowledged and dropped.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]HandlerFunc)}
}

// NewDefaultDispatcher returns a dispatcher with logging handlers for the
// meeting and recording events the sample cares about.
func NewDefaultDispatcher() *Dispatcher {
	d := NewDispatcher()
	d.Handle(EventRecordingCompleted, logRecordingFiles)
	d.Handle(EventMeetingStarted, logMeeting)
	d.Handle(EventMeetingEnded, logMeeting)
	d.Handle(EventParticipantJoined, logParticipant)
	d.Handle(EventParticipantLeft, logParticipant)
	return d
}

func (d *Dispatcher) Handle(eventType string, fn HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = fn
}

// Dispatch runs the handler for event synchronously and reports whether one
// was registered.
func (d *Dispatcher) Dispatch(ctx context.Context, event *Event) (bool, error) {
	d.mu.RLock()
	fn, ok := d.handlers[event.Event]
	d.mu.RUnlock()

	if !ok {
		log.Debug().Str("event", event.Event).Msg("no handler registered for webhook event")
		return false, nil
	}
	if err := fn(ctx, event); err != nil {
		return true, fmt.Errorf("handling %s: %w", event.Event, err)
	}
	return true, nil
}

func decodeObject(event *Event) (*ObjectPayload, error) {
	var payload ObjectPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func logRecordingFiles(ctx context.Context, event *Event) error {
	payload, err := decodeObject(event)
	if err != nil {
		return err
	}

	logger := log.Ctx(ctx)
	for _, file := range payload.Object.RecordingFiles {
		logger.Info().
			Str("meeting_uuid", payload.Object.UUID).
			Str("file_id", file.ID).
			Str("file_type", file.FileType).
			Str("recording_type", file.RecordingType).
			Int64("file_size", file.FileSize).
			Str("status", file.Status).
			Msg("recording file available")
	}
	return nil
}

func logMeeting(ctx context.Context, event *Event) error {
	payload, err := decodeObject(event)
	if err != nil {
		return err
	}

	log.Ctx(ctx).Info().
		Str("event", event.Event).
		Str("meeting_id", payload.Object.ID.String()).
		Str("topic", payload.Object.Topic).
		Msg("meeting event")
	return nil
}

func logParticipant(ctx context.Context, event *Event) error {
	payload, err := decodeObject(event)
	if err != nil {
		return err
	}
	if payload.Object.Participant == nil {
		return nil
	}

	log.Ctx(ctx).Info().
		Str("event", event.Event).
		Str("meeting_id", payload.Object.ID.String()).
		Str("participant", payload.Object.Participant.UserName).
		Msg("participant event")
	return nil
}
