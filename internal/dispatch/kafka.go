package dispatch

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"flowradar/pkg/errors"
)

// kafkaWriter is the slice of kafka.Writer the channel uses
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaChannel publishes alert payloads to a topic, keyed by symbol so
// a consumer sees each underlying's alerts in order
type KafkaChannel struct {
	writer kafkaWriter
}

// NewKafkaChannel creates a kafka channel over an existing writer
func NewKafkaChannel(writer kafkaWriter) *KafkaChannel {
	return &KafkaChannel{writer: writer}
}

// Name returns the channel name
func (k *KafkaChannel) Name() string { return "kafka" }

// Deliver publishes the payload as a JSON message
func (k *KafkaChannel) Deliver(ctx context.Context, p Payload) error {
	value, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshal payload")
	}

	msg := kafka.Message{
		Key:   []byte(p.Symbol),
		Value: value,
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, "kafka publish")
	}
	return nil
}
