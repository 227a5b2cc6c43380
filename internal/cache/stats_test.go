package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshmart/review-service/internal/domain"
)

func newTestCache(t *testing.T) (*StatsCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStatsCache(client, 5*time.Minute, logger), mr
}

func sampleStats() *domain.ReviewStats {
	stats := domain.NewReviewStats()
	stats.Total = 10
	stats.Approved = 8
	stats.Pending = 1
	stats.Rejected = 1
	stats.AverageRating = 4.3
	stats.RatingDistribution[5] = 5
	stats.RatingDistribution[4] = 3
	stats.TotalHelpful = 21
	return stats
}

func TestStatsCache_MissReturnsNil(t *testing.T) {
	cache, _ := newTestCache(t)

	stats, err := cache.Get(context.Background(), 7)

	require.NoError(t, err)
	assert.Nil(t, stats)
}

func TestStatsCache_SetThenGet(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, 7, sampleStats())

	got, err := cache.Get(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 10, got.Total)
	assert.Equal(t, 4.3, got.AverageRating)
	assert.Equal(t, 5, got.RatingDistribution[5])
}

func TestStatsCache_GlobalAndProductKeysAreSeparate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	global := sampleStats()
	global.Total = 100
	cache.Set(ctx, 0, global)
	cache.Set(ctx, 7, sampleStats())

	got, err := cache.Get(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 100, got.Total)
}

func TestStatsCache_SetAppliesTTL(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, 7, sampleStats())
	assert.Equal(t, 5*time.Minute, mr.TTL("reviews:stats:product:7"))

	mr.FastForward(6 * time.Minute)

	got, err := cache.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStatsCache_InvalidateDropsProductAndGlobal(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, 0, sampleStats())
	cache.Set(ctx, 7, sampleStats())
	cache.Set(ctx, 8, sampleStats())

	cache.Invalidate(ctx, 7)

	assert.False(t, mr.Exists("reviews:stats:global"))
	assert.False(t, mr.Exists("reviews:stats:product:7"))
	assert.True(t, mr.Exists("reviews:stats:product:8"))
}

func TestStatsCache_CorruptEntryDropped(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("reviews:stats:product:7", "{not json"))

	got, err := cache.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists("reviews:stats:product:7"))
}

func TestStatsCache_RedisDownIsAMiss(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	mr.Close()

	got, err := cache.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Writes and invalidations are silently dropped.
	cache.Set(ctx, 7, sampleStats())
	cache.Invalidate(ctx, 7)
}
