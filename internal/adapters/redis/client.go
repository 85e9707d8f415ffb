package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"flowradar/internal/adapters/config"
	"flowradar/pkg/errors"
)

// Client wraps the Redis connection used for alert pub/sub
type Client struct {
	rdb *redis.Client
}

// NewClient connects to Redis and verifies the connection
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrap(err, "redis ping")
	}
	return &Client{rdb: rdb}, nil
}

// Client returns the underlying go-redis client
func (c *Client) Client() *redis.Client {
	return c.rdb
}

// Close closes the connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Health checks connectivity
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Subscribe opens a pub/sub subscription on the given channels
func (c *Client) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return c.rdb.Subscribe(ctx, channels...)
}
