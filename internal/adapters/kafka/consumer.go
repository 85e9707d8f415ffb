package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"

	"flowradar/pkg/logger"
)

// Consumer reads messages from one topic as part of a consumer group
type Consumer struct {
	reader *kafka.Reader
	log    *logger.Logger
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topic    string
	MinBytes int
	MaxBytes int
}

// NewConsumer creates a Kafka consumer
func NewConsumer(cfg ConsumerConfig) *Consumer {
	if cfg.MinBytes == 0 {
		cfg.MinBytes = 10e3
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10e6
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		StartOffset: kafka.LastOffset,
	})

	return &Consumer{
		reader: reader,
		log:    logger.Get().With("component", "kafka_consumer", "topic", cfg.Topic),
	}
}

// MessageHandler processes one message
type MessageHandler func(ctx context.Context, msg kafka.Message) error

// Consume reads messages until ctx is cancelled. Handler errors are
// logged and the next message is read; a poison message never stalls
// the partition.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	c.log.Infow("consumer starting")

	for {
		msg, err := c.read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Infow("consumer stopped")
				return ctx.Err()
			}
			c.log.Errorw("read failed", "error", err)
			continue
		}

		if err := handler(ctx, msg); err != nil {
			c.log.Errorw("handler failed", "key", string(msg.Key), "error", err)
		}
	}
}

// read checks for shutdown before blocking on the reader
func (c *Consumer) read(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	default:
	}

	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return kafka.Message{}, ctx.Err()
		}
		return kafka.Message{}, err
	}
	return msg, nil
}

// Close closes the reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
