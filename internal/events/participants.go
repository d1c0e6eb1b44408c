// Package events defines the participation event payloads emitted by the directory.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types carried in the event_type header.
const (
	TypeParticipantSignedUp     = "activity.participant.signed_up"
	TypeParticipantUnregistered = "activity.participant.unregistered"
)

// ParticipantSignedUp is emitted after a student joins an activity roster.
type ParticipantSignedUp struct {
	EventID          string    `json:"event_id"`
	Activity         string    `json:"activity"`
	Email            string    `json:"email"`
	ParticipantCount int       `json:"participant_count"`
	MaxParticipants  int       `json:"max_participants"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// ParticipantUnregistered is emitted after a student leaves an activity roster.
type ParticipantUnregistered struct {
	EventID          string    `json:"event_id"`
	Activity         string    `json:"activity"`
	Email            string    `json:"email"`
	ParticipantCount int       `json:"participant_count"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// Message is an encoded event ready for delivery.
type Message struct {
	EventID    string
	EventType  string
	Key        string
	Payload    []byte
	OccurredAt time.Time
}

// NewEventID returns a fresh identifier for an event payload.
func NewEventID() string {
	return uuid.NewString()
}

// Encode marshals payload into a Message keyed by key.
func Encode(eventID, eventType, key string, occurredAt time.Time, payload any) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{
		EventID:    eventID,
		EventType:  eventType,
		Key:        key,
		Payload:    raw,
		OccurredAt: occurredAt,
	}, nil
}
