package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/amaplayer/search-service/pkg/config"
	"github.com/amaplayer/search-service/pkg/retry"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Client represents a Redis client
type Client struct {
	client *redis.Client
}

// NewClient connects to Redis with a short retry window. Redis is an
// optional dependency for most callers, so the window is kept well under
// the PostgreSQL one to fail fast into the degraded paths.
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	retryCfg := retry.Config{
		Attempts:     4,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		Timeout:      5 * time.Second,
	}
	err := retry.DoNotify(
		context.Background(),
		retryCfg,
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return client.Ping(ctx).Err()
		},
		func(attempt int, err error, next time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", next).
				Msg("Redis not reachable yet")
		},
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info().Str("addr", cfg.RedisAddr()).Int("db", cfg.DB).Msg("Connected to Redis")
	return &Client{client: client}, nil
}

// Client returns the underlying Redis client
func (c *Client) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}

// Ping verifies the connection to Redis
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
