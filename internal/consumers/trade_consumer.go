package consumers

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	kafkaadapter "flowradar/internal/adapters/kafka"
	"flowradar/internal/domain/flow"
	"flowradar/internal/engine"
	"flowradar/pkg/errors"
	"flowradar/pkg/logger"
)

// TradeConsumer reads options prints from Kafka and drives the engine.
// Invalid trades are counted and skipped; the partition never stalls on
// a poison message.
type TradeConsumer struct {
	consumer *kafkaadapter.Consumer
	engine   *engine.Engine
	log      *logger.Logger
}

// NewTradeConsumer creates a trade consumer
func NewTradeConsumer(consumer *kafkaadapter.Consumer, eng *engine.Engine) *TradeConsumer {
	return &TradeConsumer{
		consumer: consumer,
		engine:   eng,
		log:      logger.Get().With("component", "trade_consumer"),
	}
}

// Start consumes until ctx is cancelled
func (c *TradeConsumer) Start(ctx context.Context) error {
	defer func() {
		if err := c.consumer.Close(); err != nil {
			c.log.Errorw("consumer close failed", "error", err)
		}
	}()

	return c.consumer.Consume(ctx, c.handle)
}

func (c *TradeConsumer) handle(ctx context.Context, msg kafka.Message) error {
	var trade flow.Trade
	if err := json.Unmarshal(msg.Value, &trade); err != nil {
		c.log.Warnw("undecodable trade message", "key", string(msg.Key), "error", err)
		return nil
	}

	_, err := c.engine.ProcessTrade(ctx, &trade)
	if err != nil {
		if errors.Is(err, errors.ErrInvalidTrade) {
			c.log.Warnw("trade rejected", "symbol", trade.Symbol, "error", err)
			return nil
		}
		if errors.Is(err, errors.ErrEngineStopped) {
			return err
		}
		return errors.Wrap(err, "process trade")
	}
	return nil
}
