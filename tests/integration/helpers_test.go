//go:build integration

package integration

import (
	"database/sql"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/amaplayer/search-service/internal/infrastructure/clients/postgres"
	"github.com/amaplayer/search-service/internal/infrastructure/clients/redis"
	"github.com/amaplayer/search-service/pkg/config"
	"github.com/stretchr/testify/require"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func newTestPostgresClient(t *testing.T) *postgres.Client {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Host:            getEnv("TEST_DB_HOST", "localhost"),
		Port:            getEnvAsInt("TEST_DB_PORT", 5432),
		User:            getEnv("TEST_DB_USER", "postgres"),
		Password:        getEnv("TEST_DB_PASSWORD", "postgres"),
		Database:        getEnv("TEST_DB_NAME", "amaplayer_search_test"),
		SSLMode:         getEnv("TEST_DB_SSLMODE", "disable"),
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	}

	client, err := postgres.NewClient(cfg)
	require.NoError(t, err, "Failed to create postgres client")
	return client
}

func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	cfg := &config.RedisConfig{
		Host:     getEnv("TEST_REDIS_HOST", "localhost"),
		Port:     getEnvAsInt("TEST_REDIS_PORT", 6379),
		Password: getEnv("TEST_REDIS_PASSWORD", ""),
		DB:       getEnvAsInt("TEST_REDIS_DB", 0),
	}

	client, err := redis.NewClient(cfg)
	require.NoError(t, err, "Failed to create redis client")
	return client
}

func runSchema(t *testing.T, db *sql.DB) {
	t.Helper()

	schemaSQL, err := os.ReadFile("../../scripts/schema.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schemaSQL))
	require.NoError(t, err)
}

func cleanupSearchData(t *testing.T, db *sql.DB) {
	t.Helper()

	for _, table := range []string{"search_events", "search_documents"} {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}
}
