// Package postgres manages the connection pool shared by the Postgres store
// adapter and the record status tracker.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bibliofonds/recindex/pkg/config"
	_ "github.com/lib/pq"
)

// Client wraps the pool. DB is exported because the store adapter and the
// consumer run their own statements against it.
type Client struct {
	DB  *sql.DB
	cfg config.PostgresConfig
}

// New opens the pool and verifies connectivity before returning; a service
// with a misconfigured DSN fails at startup, not at the first document
// commit.
func New(cfg config.PostgresConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Client{DB: db, cfg: cfg}, nil
}

// Ping reports whether the database answers. Used by the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *Client) Close() error {
	return c.DB.Close()
}
