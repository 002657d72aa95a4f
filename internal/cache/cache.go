package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openvideohub/videohub/internal/logger"
	"github.com/openvideohub/videohub/internal/metrics"
)

const keyPrefix = "videohub:"

// Cache is a JSON read-through cache backed by Redis. A nil *Cache is valid
// and behaves as an always-missing cache.
type Cache struct {
	client  redis.UniversalClient
	ttl     time.Duration
	log     *logger.Logger
	metrics *metrics.Metrics
}

// New connects to Redis at addr and verifies the connection
func New(ctx context.Context, addr string, ttl time.Duration, log *logger.Logger, m *metrics.Metrics) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	c := NewWithClient(client, ttl, log, m)
	c.log.Info(ctx, "connected to redis", map[string]interface{}{"addr": addr})
	return c, nil
}

// NewWithClient wraps an existing client without pinging it
func NewWithClient(client redis.UniversalClient, ttl time.Duration, log *logger.Logger, m *metrics.Metrics) *Cache {
	if log == nil {
		log = logger.Default()
	}
	if m == nil {
		m = metrics.Default()
	}
	return &Cache{
		client:  client,
		ttl:     ttl,
		log:     log.WithComponent("cache"),
		metrics: m,
	}
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// Client returns the underlying Redis client
func (c *Cache) Client() redis.UniversalClient {
	if c == nil {
		return nil
	}
	return c.client
}

// Ping reports whether Redis is reachable
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return errors.New("cache not configured")
	}
	return c.client.Ping(ctx).Err()
}

// GetJSON decodes the cached value for key into dst. It reports false on a
// miss; errors are logged and treated as misses.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) bool {
	if c == nil {
		return false
	}

	val, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.Inc(metrics.FamilyCacheRequests, "result", "miss")
		c.log.Debug(ctx, "cache miss", map[string]interface{}{"key": key})
		return false
	}
	if err != nil {
		c.metrics.Inc(metrics.FamilyCacheRequests, "result", "error")
		c.log.Warn(ctx, "cache get failed", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}

	if err := json.Unmarshal(val, dst); err != nil {
		c.metrics.Inc(metrics.FamilyCacheRequests, "result", "error")
		c.log.Warn(ctx, "cache entry undecodable", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}

	c.metrics.Inc(metrics.FamilyCacheRequests, "result", "hit")
	c.log.Debug(ctx, "cache hit", map[string]interface{}{"key": key})
	return true
}

// SetJSON stores v under key with the cache TTL
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		c.log.Warn(ctx, "cache set failed", map[string]interface{}{"key": key, "error": err.Error()})
		return err
	}
	c.log.Debug(ctx, "cache set", map[string]interface{}{"key": key, "ttl": c.ttl.String()})
	return nil
}

// Delete removes keys from the cache
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = keyPrefix + k
	}
	if err := c.client.Del(ctx, prefixed...).Err(); err != nil {
		c.log.Warn(ctx, "cache delete failed", map[string]interface{}{"keys": keys, "error": err.Error()})
		return err
	}
	return nil
}

// VideoListKey is the key of a user's video list
func VideoListKey(userID string) string {
	return "videos:" + userID
}

// VideoKey is the key of a single video
func VideoKey(videoID string) string {
	return "video:" + videoID
}

// CommentsKey is the key of a video's comment list
func CommentsKey(videoID string) string {
	return "comments:" + videoID
}
