package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avereux/seatbook/internal/domain"
	redisx "github.com/avereux/seatbook/internal/redis"
)

// These tests need a real redis.
// Run with: INTEGRATION_TEST=true TEST_REDIS_ADDR=localhost:6379 go test ./internal/repository/redis/...

func newTestCache(t *testing.T) *Cache {
	t.Helper()

	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	require.NoError(t, client.Ping(context.Background()).Err())

	return New(client)
}

func TestSeatMapCacheRoundTrip_Integration(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	eventID := time.Now().UnixNano()
	key := redisx.KeyEventSeatMap(eventID)

	loads := 0
	loader := func(ctx context.Context) ([]domain.EventSeat, error) {
		loads++
		return []domain.EventSeat{
			{ID: 1, Row: 1, Number: 1, State: domain.SeatBooked},
			{ID: 2, Row: 1, Number: 2, State: domain.SeatFree},
		}, nil
	}

	// first call loads, second is served from the cache
	seats, err := GetOrSetJSON(ctx, cache, key, time.Minute, loader)
	require.NoError(t, err)
	require.Len(t, seats, 2)

	seats, err = GetOrSetJSON(ctx, cache, key, time.Minute, loader)
	require.NoError(t, err)
	require.Len(t, seats, 2)
	assert.Equal(t, 1, loads)

	// invalidation drops the seat map, the next read loads again
	require.NoError(t, cache.InvalidateEvent(ctx, eventID))

	_, err = GetOrSetJSON(ctx, cache, key, time.Minute, loader)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestGetOrSetJSON_PropagatesLoaderError_Integration(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	key := redisx.KeyEventSeatMap(-time.Now().UnixNano())

	_, err := GetOrSetJSON(ctx, cache, key, time.Minute,
		func(ctx context.Context) ([]domain.EventSeat, error) {
			return nil, fmt.Errorf("load failed")
		},
	)
	require.Error(t, err)

	_, ok, err := GetJSON[[]domain.EventSeat](ctx, cache, key)
	require.NoError(t, err)
	assert.False(t, ok, "failed loads must not be cached")
}
