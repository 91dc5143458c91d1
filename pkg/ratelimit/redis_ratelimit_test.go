package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedisLimiter needs a real Redis server (localhost:6379); the
// tests skip when none is reachable.
func setupRedisLimiter(t *testing.T) *RedisLimiter {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // test DB
	})

	limiter := NewRedisLimiter(client, "test:ratelimit")

	ctx := context.Background()
	if err := limiter.Ping(ctx); err != nil {
		t.Skipf("Redis server not available: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
	})

	return limiter
}

func TestRedisLimiter_Allow(t *testing.T) {
	limiter := setupRedisLimiter(t)
	ctx := context.Background()
	key := "player:allow"
	defer limiter.Reset(ctx, key)

	for i := 0; i < 5; i++ {
		allowed, info, err := limiter.Allow(ctx, key, 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5, info.Limit)
	}

	allowed, info, err := limiter.Allow(ctx, key, 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed, "request over the limit should be denied")
	assert.Equal(t, 0, info.Remaining)
}

func TestRedisLimiter_SeparateKeys(t *testing.T) {
	limiter := setupRedisLimiter(t)
	ctx := context.Background()
	defer limiter.Reset(ctx, "player:a")
	defer limiter.Reset(ctx, "player:b")

	for i := 0; i < 3; i++ {
		allowed, _, err := limiter.Allow(ctx, "player:a", 3, time.Minute)
		require.NoError(t, err)
		require.True(t, allowed)
	}

	allowed, _, err := limiter.Allow(ctx, "player:a", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, _, err = limiter.Allow(ctx, "player:b", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "a different key must have its own budget")
}

func TestRedisLimiter_Reset(t *testing.T) {
	limiter := setupRedisLimiter(t)
	ctx := context.Background()
	key := "player:reset"

	for i := 0; i < 2; i++ {
		_, _, err := limiter.Allow(ctx, key, 2, time.Minute)
		require.NoError(t, err)
	}

	allowed, _, err := limiter.Allow(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	require.False(t, allowed)

	require.NoError(t, limiter.Reset(ctx, key))

	allowed, _, err = limiter.Allow(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "reset should restore the budget")
}
