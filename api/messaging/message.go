// Package messaging carries events between the domain, the sagas, and the
// webhook translator. Delivery is at-least-once; every handler must be safe
// to re-invoke for the same message.
package messaging

import (
	"time"

	"github.com/google/uuid"

	config "github.com/tbeaudouin05/stripe-payment-saga/api/config"
	gw "github.com/tbeaudouin05/stripe-payment-saga/api/services/stripe/gateway"
)

// Payload is any event that can ride in a message. Both the domain and the
// mirror event unions satisfy it.
type Payload interface {
	EventName() string
}

// Message is the bus envelope: an event plus the aggregate it belongs to
// and per-message header metadata (including the gateway credential).
type Message struct {
	ID          string
	AggregateID string
	Headers     map[string]string
	RecordedAt  time.Time
	Payload     Payload
}

// NewMessage builds an envelope with a fresh id, recorded now.
func NewMessage(aggregateID string, payload Payload) Message {
	return Message{
		ID:          uuid.NewString(),
		AggregateID: aggregateID,
		Headers:     map[string]string{},
		RecordedAt:  time.Now().UTC(),
		Payload:     payload,
	}
}

// WithHeader returns a copy of the message carrying the header.
func (m Message) WithHeader(key, value string) Message {
	headers := make(map[string]string, len(m.Headers)+1)
	for k, v := range m.Headers {
		headers[k] = v
	}
	headers[key] = value
	m.Headers = headers
	return m
}

// WithRecordedAt returns a copy of the message recorded at the given time.
// The translator uses it to preserve the gateway's own event timestamp.
func (m Message) WithRecordedAt(t time.Time) Message {
	m.RecordedAt = t
	return m
}

// Credential returns the per-message gateway API key.
func (m Message) Credential() gw.Credential {
	return gw.Credential(m.Headers[config.StripeKeyHeader])
}

// PayloadEncoder serializes an event payload for the wire.
type PayloadEncoder func(payload Payload) ([]byte, error)

// PayloadDecoder reconstructs an event payload from its wire name and bytes.
type PayloadDecoder func(name string, payload []byte) (Payload, error)
