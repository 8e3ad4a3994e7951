package searchcache

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"tapedeck/internal/media"
)

// RedisCache shares cached search results across processes.
// Every error degrades to a cache miss; Redis being down never fails a
// request.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// NewRedisCache creates a Redis-backed Cache. A non-positive ttl falls back
// to one hour.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *log.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

// key prefixes the literal query string. No normalization: "Daft Punk" and
// "daft punk" are distinct entries.
func key(query string) string {
	return "search:" + query
}

// Get returns cached results for query, treating any Redis failure as a miss.
func (c *RedisCache) Get(ctx context.Context, query string) ([]media.Track, bool) {
	val, err := c.client.Get(ctx, key(query)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("search cache read failed", "err", err)
		}
		return nil, false
	}

	var results []media.Track
	if err := json.Unmarshal(val, &results); err != nil {
		c.logger.Debug("search cache entry unreadable", "err", err)
		return nil, false
	}
	return results, true
}

// Set stores results with the fixed TTL. Failures are logged and dropped.
func (c *RedisCache) Set(ctx context.Context, query string, results []media.Track) {
	val, err := json.Marshal(results)
	if err != nil {
		c.logger.Debug("search cache marshal failed", "err", err)
		return
	}
	if err := c.client.Set(ctx, key(query), val, c.ttl).Err(); err != nil {
		c.logger.Debug("search cache write failed", "err", err)
	}
}
