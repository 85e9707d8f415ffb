package dispatch

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"flowradar/pkg/errors"
)

// redisPublisher is the slice of redis.Client the channel uses
type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisChannel publishes alert payloads on a pub/sub channel for live
// subscribers (dashboards, bots)
type RedisChannel struct {
	client  redisPublisher
	channel string
}

// NewRedisChannel creates a redis pub/sub channel
func NewRedisChannel(client redisPublisher, channel string) *RedisChannel {
	return &RedisChannel{client: client, channel: channel}
}

// Name returns the channel name
func (r *RedisChannel) Name() string { return "redis" }

// Deliver publishes the payload as JSON
func (r *RedisChannel) Deliver(ctx context.Context, p Payload) error {
	value, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshal payload")
	}
	if err := r.client.Publish(ctx, r.channel, value).Err(); err != nil {
		return errors.Wrap(err, "redis publish")
	}
	return nil
}
