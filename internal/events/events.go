package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope delivered to every subscriber of the presentation
// channel. The same envelope shape crosses every transport binding.
type Event struct {
	ID        string          `json:"id"`        // Event UUID
	Type      EventType       `json:"type"`      // Wire event name
	Timestamp time.Time       `json:"timestamp"` // Event creation time
	Data      json.RawMessage `json:"data,omitempty"`
}

// EventType is the wire name of a presentation channel event.
type EventType string

const (
	EventTypePresentationStarting EventType = "presentationStarting"
	EventTypePresentationStarted  EventType = "presentationStarted"
	EventTypePresentationEnded    EventType = "presentationEnded"
	EventTypeTimeSync             EventType = "timeSync"
	EventTypeEvaluationForm       EventType = "evaluationForm"
	EventTypeEvaluationSubmitted  EventType = "evaluationSubmitted"
	EventTypeTeamEvaluations      EventType = "teamEvaluations"
	EventTypePresentationReset    EventType = "presentationReset"

	// EventTypeEvaluationError is sent back to a single submitter when
	// persisting their evaluation fails. It is never broadcast.
	EventTypeEvaluationError EventType = "evaluationError"
)

// IsLifecycle reports whether t is one of the admin-triggered lifecycle
// events that the broadcaster relays verbatim.
func IsLifecycle(t EventType) bool {
	switch t {
	case EventTypePresentationStarting,
		EventTypePresentationStarted,
		EventTypePresentationEnded,
		EventTypeTimeSync,
		EventTypeEvaluationForm,
		EventTypePresentationReset:
		return true
	}
	return false
}

// New builds an event envelope around a marshaled payload.
func New(t EventType, payload interface{}) (*Event, error) {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", t, err)
		}
		data = b
	}
	return FromRaw(t, data), nil
}

// FromRaw builds an event envelope around payload bytes that are relayed
// verbatim, without re-encoding.
func FromRaw(t EventType, data json.RawMessage) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}
