package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"park-ops/internal/logger"

	"github.com/segmentio/kafka-go"
)

// Event is one message read from an audit topic.
type Event struct {
	Topic string
	Key   string
	Value []byte
	Time  time.Time
}

type Consumer struct {
	reader *kafka.Reader
	logger *logger.Logger
}

// NewConsumer creates a consumer for topic. An empty groupID reads the
// partition directly from the newest offset.
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	if log == nil {
		log = logger.NewNop()
	}
	cfg := kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	}
	if groupID == "" {
		cfg.StartOffset = kafka.LastOffset
	}
	return &Consumer{reader: kafka.NewReader(cfg), logger: log}
}

// Start reads until ctx is done, handing each message to handler. A handler
// error stops the loop.
func (c *Consumer) Start(ctx context.Context, handler func(Event) error) error {
	c.logger.Info("KAFKA", fmt.Sprintf("Consumer started on %s", c.reader.Config().Topic))

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			c.logger.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		if err := handler(Event{Topic: msg.Topic, Key: string(msg.Key), Value: msg.Value, Time: msg.Time}); err != nil {
			return err
		}
	}
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
