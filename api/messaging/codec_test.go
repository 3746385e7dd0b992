package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/tbeaudouin05/stripe-payment-saga/api/config"
)

type testPayload struct {
	Name string `json:"name"`
}

func (p testPayload) EventName() string { return "test.event" }

func encodeTestPayload(payload Payload) ([]byte, error) {
	return json.Marshal(payload)
}

func decodeTestPayload(name string, payload []byte) (Payload, error) {
	if name != "test.event" {
		return nil, errors.New("unknown event")
	}
	var p testPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, err
	}
	return p, nil
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	recorded := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	msg := NewMessage("aggregate-1", testPayload{Name: "hello"}).
		WithHeader(config.StripeKeyHeader, "sk_test_abc").
		WithRecordedAt(recorded)

	km, err := Encode(msg, encodeTestPayload)
	require.NoError(t, err)
	assert.Equal(t, []byte("aggregate-1"), km.Key)

	decoded, err := Decode(km, decodeTestPayload)
	require.NoError(t, err)

	assert.Equal(t, msg.ID, decoded.ID)
	assert.Equal(t, "aggregate-1", decoded.AggregateID)
	assert.Equal(t, recorded, decoded.RecordedAt)
	assert.Equal(t, testPayload{Name: "hello"}, decoded.Payload)
	assert.EqualValues(t, "sk_test_abc", decoded.Credential())
}

func TestDecode_RejectsUnknownPayloadName(t *testing.T) {
	msg := NewMessage("aggregate-1", testPayload{Name: "hello"})
	km, err := Encode(msg, encodeTestPayload)
	require.NoError(t, err)

	var wire map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(km.Value, &wire))
	wire["name"], _ = json.Marshal("other.event")
	km.Value, _ = json.Marshal(wire)

	_, err = Decode(km, decodeTestPayload)
	assert.Error(t, err)
}

func TestMessage_CredentialReadsHeader(t *testing.T) {
	msg := NewMessage("aggregate-1", testPayload{}).WithHeader(config.StripeKeyHeader, "sk_test_abc")
	assert.EqualValues(t, "sk_test_abc", msg.Credential())

	// WithHeader copies: the original stays untouched.
	other := msg.WithHeader(config.StripeKeyHeader, "sk_test_other")
	assert.EqualValues(t, "sk_test_abc", msg.Credential())
	assert.EqualValues(t, "sk_test_other", other.Credential())
}

type captureWriter struct {
	messages []kafka.Message
	closed   bool
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *captureWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublisher_WritesEncodedMessage(t *testing.T) {
	writer := &captureWriter{}
	publisher := NewPublisherWithWriter(writer, encodeTestPayload)

	msg := NewMessage("aggregate-1", testPayload{Name: "hello"})
	require.NoError(t, publisher.Publish(context.Background(), msg))
	require.Len(t, writer.messages, 1)
	assert.Equal(t, []byte("aggregate-1"), writer.messages[0].Key)

	require.NoError(t, publisher.Close())
	assert.True(t, writer.closed)
}
