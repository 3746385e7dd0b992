package messaging

import (
	"context"
	"log/slog"
	"time"

	kafka "github.com/segmentio/kafka-go"
)

// Handler processes one decoded message to completion, including any
// blocking gateway call, before the next message is fetched.
type Handler func(ctx context.Context, msg Message) error

// Consumer runs the single-threaded fetch/handle/commit loop for one topic.
type Consumer struct {
	reader *kafka.Reader
	decode PayloadDecoder
}

func NewConsumer(brokers []string, topic, groupID string, decode PayloadDecoder) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			Topic:    topic,
			GroupID:  groupID,
			MinBytes: 10e3,
			MaxBytes: 10e6,
		}),
		decode: decode,
	}
}

// Start consumes until the context is canceled. A handler error leaves the
// offset uncommitted so the broker redelivers; commit only on success.
func (c *Consumer) Start(ctx context.Context, handler Handler) {
	slog.Info("consumer started", "topic", c.reader.Config().Topic, "group", c.reader.Config().GroupID)

	for {
		if ctx.Err() != nil {
			return
		}

		km, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("failed to fetch message", "err", err)
			time.Sleep(time.Second)
			continue
		}

		msg, err := Decode(km, c.decode)
		if err != nil {
			// An undecodable message will never succeed; redelivering it
			// forever starves the partition, so log loudly and commit.
			slog.Error("dropping undecodable message", "offset", km.Offset, "err", err)
			if err := c.reader.CommitMessages(ctx, km); err != nil {
				slog.Error("failed to commit offset", "err", err)
			}
			continue
		}

		if err := handler(ctx, msg); err != nil {
			slog.Error("message handling failed, leaving for redelivery",
				"event", msg.Payload.EventName(), "aggregate_id", msg.AggregateID, "offset", km.Offset, "err", err)
			continue
		}

		if err := c.reader.CommitMessages(ctx, km); err != nil {
			slog.Error("failed to commit offset", "err", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
