package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/amaplayer/search-service/pkg/config"
	"github.com/amaplayer/search-service/pkg/retry"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const pingTimeout = 5 * time.Second

// Client represents a PostgreSQL database client
type Client struct {
	db *sql.DB
}

// NewClient opens a connection pool sized from config and waits for the
// database to answer, retrying with backoff so the service survives a
// database that is still starting up.
func NewClient(cfg *config.DatabaseConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	err = retry.DoNotify(
		context.Background(),
		retry.DefaultConfig(),
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
			defer cancel()
			return db.PingContext(ctx)
		},
		func(attempt int, err error, next time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", next).
				Msg("PostgreSQL not reachable yet")
		},
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	log.Info().Str("database", cfg.Database).Int("max_open_conns", cfg.MaxOpenConns).
		Msg("Connected to PostgreSQL")
	return &Client{db: db}, nil
}

// DB returns the underlying database connection
func (c *Client) DB() *sql.DB {
	return c.db
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// BeginTx starts a new transaction
func (c *Client) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return c.db.BeginTx(ctx, nil)
}

// Ping verifies the connection to the database
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
