package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TopicPrefix is prepended to every storefront topic.
const TopicPrefix = "storefront"

// SchemaVersion is the envelope version written by NewEvent.
const SchemaVersion = 1

// Topic returns storefront.<entity>.<action>.
func Topic(entity, action string) string {
	return TopicPrefix + "." + entity + "." + action
}

// Event is the envelope every storefront message carries. Payload holds the
// event-specific body as raw JSON.
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Entity        string          `json:"entity"`
	EntityID      string          `json:"entity_id"`
	SchemaVersion int             `json:"schema_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Source        string          `json:"source"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// Option customises an event built by NewEvent.
type Option func(*Event)

// CorrelatedWith ties the event to the request that caused it. An empty id is
// ignored.
func CorrelatedWith(id string) Option {
	return func(e *Event) {
		if id != "" {
			e.CorrelationID = id
		}
	}
}

// NewEvent builds an event about entity/entityID with a fresh id and the
// current time.
func NewEvent(eventType, entity, entityID, source string, payload any, opts ...Option) (*Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	e := &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Entity:        entity,
		EntityID:      entityID,
		SchemaVersion: SchemaVersion,
		OccurredAt:    time.Now().UTC(),
		Source:        source,
		Payload:       body,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ParseEvent decodes an envelope read off a topic.
func ParseEvent(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parse event: %w", err)
	}
	return &e, nil
}

// DecodePayload unmarshals the event body into dst.
func (e *Event) DecodePayload(dst any) error {
	return json.Unmarshal(e.Payload, dst)
}
