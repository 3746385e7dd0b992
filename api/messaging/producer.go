package messaging

import (
	"context"
	"fmt"

	kafka "github.com/segmentio/kafka-go"
)

// Writer is the subset of kafka.Writer the publisher needs; tests inject
// their own.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes envelopes to the payment event topic.
type Publisher struct {
	writer Writer
	encode PayloadEncoder
}

func NewPublisher(brokers []string, topic string, encode PayloadEncoder) *Publisher {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &Publisher{writer: w, encode: encode}
}

// NewPublisherWithWriter allows injecting a test writer.
func NewPublisherWithWriter(w Writer, encode PayloadEncoder) *Publisher {
	return &Publisher{writer: w, encode: encode}
}

func (p *Publisher) Publish(ctx context.Context, msg Message) error {
	km, err := Encode(msg, p.encode)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, km); err != nil {
		return fmt.Errorf("failed to publish %s: %w", msg.Payload.EventName(), err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
