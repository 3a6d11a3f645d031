// Package kafka wraps segmentio/kafka-go for the record pipeline: a
// Consumer that feeds ingest events to a handler with at-least-once
// delivery, and a Producer that publishes index-completion notifications.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/bibliofonds/recindex/pkg/config"
	"github.com/segmentio/kafka-go"
)

// Handler processes one record event. Returning nil commits the offset;
// returning an error leaves it uncommitted so the broker redelivers the
// record the next time the group starts. Handlers must therefore reserve
// errors for failures worth replaying (a store outage) and swallow
// permanently bad records themselves.
type Handler func(ctx context.Context, key []byte, value []byte) error

// Consumer reads record events from one topic and dispatches each to a
// Handler.
type Consumer struct {
	reader  *kafka.Reader
	logger  *slog.Logger
	handler Handler
}

// NewConsumer builds a Consumer joining the configured group on topic.
func NewConsumer(cfg config.KafkaConfig, topic string, handler Handler) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    topic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: 1e3,
		MaxBytes: 10e6,
		// Records published before the group first joins must still be
		// indexed, so a fresh group starts from the beginning.
		StartOffset: kafka.FirstOffset,
	})

	return &Consumer{
		reader:  r,
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic),
		handler: handler,
	}
}

// Start fetches and processes record events until ctx is cancelled. Offsets
// commit only after the handler returns nil.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopping", "reason", ctx.Err())
			return c.reader.Close()
		default:
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("fetch failed", "error", err)
			continue
		}
		c.logger.Debug("record event received",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"value_size", len(msg.Value),
		)
		if err := c.handler(ctx, msg.Key, msg.Value); err != nil {
			// Uncommitted; the record comes back on the next group start.
			c.logger.Error("record handling failed, offset not committed",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("offset commit failed",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// DecodeJSON unmarshals a record event payload into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("decoding kafka message: %w", err)
	}
	return result, nil
}
