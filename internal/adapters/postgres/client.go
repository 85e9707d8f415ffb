package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"flowradar/internal/adapters/config"
	"flowradar/pkg/errors"
)

// Client wraps sqlx.DB for the alert archive
type Client struct {
	db *sqlx.DB
}

// NewClient connects to Postgres with pooling configured
func NewClient(cfg config.PostgresConfig) (*Client, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "postgres connect")
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns / 2)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, errors.Wrap(err, "postgres ping")
	}
	return &Client{db: db}, nil
}

// DB returns the underlying sqlx handle
func (c *Client) DB() *sqlx.DB {
	return c.db
}

// Close closes the pool
func (c *Client) Close() error {
	return c.db.Close()
}

// Health checks connectivity
func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
