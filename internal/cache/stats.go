package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/freshmart/review-service/internal/domain"
)

const (
	globalStatsKey  = "reviews:stats:global"
	productStatsKey = "reviews:stats:product:%d"
)

// StatsCache caches aggregated review statistics in Redis. All operations are
// best-effort: a cache failure is logged and treated as a miss so the caller
// falls back to the database.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewStatsCache creates a Redis-backed stats cache with the given TTL.
func NewStatsCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *StatsCache {
	return &StatsCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func statsKey(productID int64) string {
	if productID == 0 {
		return globalStatsKey
	}
	return fmt.Sprintf(productStatsKey, productID)
}

// Get returns cached stats for a product (0 = global), or nil on a miss.
func (c *StatsCache) Get(ctx context.Context, productID int64) (*domain.ReviewStats, error) {
	key := statsKey(productID)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		c.logger.WarnContext(ctx, "stats cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil, nil
	}

	var stats domain.ReviewStats
	if err := json.Unmarshal(data, &stats); err != nil {
		c.logger.WarnContext(ctx, "stats cache entry corrupt, dropping",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		_ = c.client.Del(ctx, key).Err()
		return nil, nil
	}

	return &stats, nil
}

// Set stores stats for a product (0 = global) with the configured TTL.
func (c *StatsCache) Set(ctx context.Context, productID int64, stats *domain.ReviewStats) {
	key := statsKey(productID)

	data, err := json.Marshal(stats)
	if err != nil {
		c.logger.WarnContext(ctx, "marshal stats for cache failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "stats cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// Invalidate drops the cached stats for a product and the global aggregate.
// Called whenever a review changes in a way that affects statistics.
func (c *StatsCache) Invalidate(ctx context.Context, productID int64) {
	keys := []string{globalStatsKey}
	if productID != 0 {
		keys = append(keys, statsKey(productID))
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WarnContext(ctx, "stats cache invalidation failed",
			slog.String("error", err.Error()),
		)
	}
}
