package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	redisdb "github.com/dmitrymomot/certkeeper/integration/database/redis"
)

func TestConnectValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("empty connection URL", func(t *testing.T) {
		t.Parallel()

		_, err := redisdb.Connect(ctx, redisdb.Config{})
		require.ErrorIs(t, err, redisdb.ErrEmptyConnectionURL)
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		t.Parallel()

		_, err := redisdb.Connect(ctx, redisdb.Config{ConnectionURL: "http://localhost:6379"})
		require.ErrorIs(t, err, redisdb.ErrFailedToParseRedisConnString)
	})

	t.Run("malformed URL", func(t *testing.T) {
		t.Parallel()

		_, err := redisdb.Connect(ctx, redisdb.Config{ConnectionURL: "redis://localhost:6379/not-a-db"})
		require.ErrorIs(t, err, redisdb.ErrFailedToParseRedisConnString)
	})

	t.Run("unreachable server", func(t *testing.T) {
		t.Parallel()

		_, err := redisdb.Connect(ctx, redisdb.Config{
			ConnectionURL:  "redis://127.0.0.1:1", // nothing listens on port 1
			RetryAttempts:  1,
			RetryInterval:  time.Millisecond,
			ConnectTimeout: time.Second,
		})
		require.ErrorIs(t, err, redisdb.ErrRedisNotReady)
	})
}
