package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AttributeEventType is the Pub/Sub attribute carrying the event type.
const AttributeEventType = "event_type"

// NotificationRequested asks the dispatcher to track a notification.
const NotificationRequested = "notification.requested"

// CurrentVersion is the envelope version produced and accepted by this service.
const CurrentVersion = 1

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID int64  `json:"userId"`
	Role   string `json:"role,omitempty"`
}

// PayloadEnvelope is the stable structure of every event published to the events topic.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// TargetPayload names a host entity by kind and id.
type TargetPayload struct {
	Type string `json:"type" validate:"required"`
	ID   int64  `json:"id" validate:"required,gt=0"`
}

// NotificationRequestedPayload is the data of a notification.requested event.
type NotificationRequestedPayload struct {
	NotifyType string         `json:"notifyType" validate:"required"`
	ActorID    *int64         `json:"actorId,omitempty"`
	UserIDs    []int64        `json:"userIds" validate:"required,min=1,dive,gt=0"`
	Target     TargetPayload  `json:"target" validate:"required"`
	Meta       map[string]any `json:"meta,omitempty"`
}

var ErrUnsupportedVersion = errors.New("unsupported envelope version")

// Decode parses an envelope and returns its event id.
func Decode(data []byte) (PayloadEnvelope, uuid.UUID, error) {
	var envelope PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return envelope, uuid.Nil, fmt.Errorf("decode envelope: %w", err)
	}
	if envelope.Version != CurrentVersion {
		return envelope, uuid.Nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, envelope.Version)
	}
	id, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return envelope, uuid.Nil, fmt.Errorf("invalid event id: %w", err)
	}
	return envelope, id, nil
}

// NewEnvelope wraps data in a versioned envelope with a fresh event id.
func NewEnvelope(actor *ActorRef, data any) (PayloadEnvelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return PayloadEnvelope{}, fmt.Errorf("encode payload: %w", err)
	}
	return PayloadEnvelope{
		Version:    CurrentVersion,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Actor:      actor,
		Data:       raw,
	}, nil
}
