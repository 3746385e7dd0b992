package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	kafka "github.com/segmentio/kafka-go"
)

// wireMessage is the Kafka value. Headers ride as Kafka headers so brokers
// and tooling can route on them without parsing the body.
type wireMessage struct {
	ID          string          `json:"id"`
	AggregateID string          `json:"aggregate_id"`
	Name        string          `json:"name"`
	Payload     json.RawMessage `json:"payload"`
	RecordedAt  time.Time       `json:"recorded_at"`
}

// Encode turns an envelope into a Kafka message keyed by aggregate id, so
// all events of one aggregate land on one partition in order.
func Encode(msg Message, encode PayloadEncoder) (kafka.Message, error) {
	payload, err := encode(msg.Payload)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode %s: %w", msg.Payload.EventName(), err)
	}
	value, err := json.Marshal(wireMessage{
		ID:          msg.ID,
		AggregateID: msg.AggregateID,
		Name:        msg.Payload.EventName(),
		Payload:     payload,
		RecordedAt:  msg.RecordedAt,
	})
	if err != nil {
		return kafka.Message{}, err
	}
	headers := make([]kafka.Header, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return kafka.Message{Key: []byte(msg.AggregateID), Value: value, Headers: headers}, nil
}

// Decode turns a Kafka message back into an envelope.
func Decode(km kafka.Message, decode PayloadDecoder) (Message, error) {
	var wire wireMessage
	if err := json.Unmarshal(km.Value, &wire); err != nil {
		return Message{}, fmt.Errorf("failed to decode message envelope: %w", err)
	}
	payload, err := decode(wire.Name, wire.Payload)
	if err != nil {
		return Message{}, err
	}
	headers := make(map[string]string, len(km.Headers))
	for _, h := range km.Headers {
		headers[h.Key] = string(h.Value)
	}
	return Message{
		ID:          wire.ID,
		AggregateID: wire.AggregateID,
		Headers:     headers,
		RecordedAt:  wire.RecordedAt,
		Payload:     payload,
	}, nil
}
