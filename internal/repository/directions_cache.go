package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shiva/wayfarer/internal/model"
)

const (
	directionsKeyPrefix = "directions:"
	directionsCacheTTL  = 10 * time.Minute // Traffic-dependent durations go stale.
)

// DirectionsCache caches live directions results in Redis. Cache errors are
// logged and treated as misses so that lookups fall through to providers.
type DirectionsCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewDirectionsCache creates a new cache.
func NewDirectionsCache(client *redis.Client, logger *slog.Logger) *DirectionsCache {
	return &DirectionsCache{
		redis:  client,
		ttl:    directionsCacheTTL,
		logger: logger.With("component", "directions_cache"),
	}
}

// directionsKey buckets coordinates to 5 decimals (~1.1 m), so repeated
// requests for the same stop pair share an entry.
func directionsKey(origin, destination model.Coordinate) string {
	return fmt.Sprintf("%s%.5f,%.5f:%.5f,%.5f", directionsKeyPrefix,
		origin.Lat, origin.Lng, destination.Lat, destination.Lng)
}

// Get returns a cached result for the pair.
func (c *DirectionsCache) Get(ctx context.Context, origin, destination model.Coordinate) (*model.DirectionsResult, bool) {
	raw, err := c.redis.Get(ctx, directionsKey(origin, destination)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("directions cache read failed", "error", err)
		}
		return nil, false
	}
	var result model.DirectionsResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.Warn("directions cache entry unreadable", "error", err)
		return nil, false
	}
	return &result, true
}

// Set stores result (fire-and-forget).
func (c *DirectionsCache) Set(ctx context.Context, origin, destination model.Coordinate, result model.DirectionsResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, directionsKey(origin, destination), data, c.ttl).Err(); err != nil {
		c.logger.Warn("directions cache write failed", "error", err)
	}
}
