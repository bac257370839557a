package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the broker-agnostic wrapper around a domain payload. The key
// doubles as the partition key, so all of one order's messages stay on one
// partition and arrive in publication order.
type Envelope struct {
	EventID   string          `json:"event_id"`
	Key       string          `json:"key"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEnvelope wraps payload under a fresh event ID.
func NewEnvelope(key, kind string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{
		EventID:   uuid.New().String(),
		Key:       key,
		Type:      kind,
		Payload:   data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Publisher sends envelopes to a broker topic.
type Publisher interface {
	Publish(ctx context.Context, envelope Envelope) error
	Close() error
}

// MessageHandler consumes one raw message. A nil return commits the
// message; an error leaves it for redelivery.
type MessageHandler func(ctx context.Context, key, value []byte) error

// Worker pulls messages off a broker and feeds them to a handler.
type Worker interface {
	Start(ctx context.Context, handler MessageHandler) error
	Close() error
}
