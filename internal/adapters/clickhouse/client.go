package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"flowradar/internal/adapters/config"
	"flowradar/pkg/errors"
)

// Client wraps the ClickHouse connection
type Client struct {
	conn driver.Conn
}

// NewClient connects to ClickHouse and verifies the connection
func NewClient(cfg config.ClickHouseConfig) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "clickhouse connect")
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, errors.Wrap(err, "clickhouse ping")
	}
	return &Client{conn: conn}, nil
}

// Conn returns the underlying connection
func (c *Client) Conn() driver.Conn {
	return c.conn
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// Health checks connectivity
func (c *Client) Health(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// Exec runs a statement without returning rows
func (c *Client) Exec(ctx context.Context, query string, args ...interface{}) error {
	return c.conn.Exec(ctx, query, args...)
}

// Select runs a query into dest
func (c *Client) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return c.conn.Select(ctx, dest, query, args...)
}
