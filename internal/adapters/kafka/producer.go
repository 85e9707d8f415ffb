package kafka

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/segmentio/kafka-go"

	"flowradar/pkg/errors"
	"flowradar/pkg/logger"
)

// Producer publishes JSON events, caching one writer per topic
type Producer struct {
	mu      sync.Mutex
	writers map[string]*kafka.Writer
	brokers []string
	log     *logger.Logger
}

// ProducerConfig holds producer configuration
type ProducerConfig struct {
	Brokers []string
}

// NewProducer creates a Kafka producer
func NewProducer(cfg ProducerConfig) *Producer {
	return &Producer{
		writers: make(map[string]*kafka.Writer),
		brokers: cfg.Brokers,
		log:     logger.Get().With("component", "kafka_producer"),
	}
}

// Writer returns the writer for a topic, creating it on first use
func (p *Producer) Writer(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := &kafka.Writer{
		Addr:     kafka.TCP(p.brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	p.writers[topic] = w
	return w
}

// Publish sends one JSON-encoded event keyed for per-symbol ordering
func (p *Producer) Publish(ctx context.Context, topic, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	msg := kafka.Message{Key: []byte(key), Value: data}
	if err := p.Writer(topic).WriteMessages(ctx, msg); err != nil {
		p.log.Errorw("publish failed", "topic", topic, "key", key, "error", err)
		return err
	}
	p.log.Debugw("published", "topic", topic, "key", key)
	return nil
}

// Close closes all writers
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var multi errors.MultiError
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			p.log.Errorw("writer close failed", "topic", topic, "error", err)
			multi.Add(err)
		}
	}
	return multi.ToError()
}
