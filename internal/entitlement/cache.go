package entitlement

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/fusegigs/fusegigs/pkg/logger"
)

// CacheConfig configures the Redis-backed status cache. The default TTL
// matches the five-minute client-side staleness window the web app uses.
type CacheConfig struct {
	TTL time.Duration `env:"ENTITLEMENT_CACHE_TTL" envDefault:"5m"`
}

// RedisCache is a StatusCache backed by Redis. All operations are
// best-effort: errors are logged and treated as cache misses so a Redis
// outage degrades to direct storage reads.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	log    *slog.Logger
}

// NewRedisCache creates a Redis-backed status cache.
func NewRedisCache(client redis.UniversalClient, cfg CacheConfig, log *slog.Logger) *RedisCache {
	if log == nil {
		log = slog.Default()
	}
	return &RedisCache{
		client: client,
		ttl:    cfg.TTL,
		log:    log,
	}
}

func cacheKey(userID uuid.UUID) string {
	return "entitlements:" + userID.String()
}

// Get returns the cached status for the user, if present.
func (c *RedisCache) Get(ctx context.Context, userID uuid.UUID) (*EntitlementStatus, bool) {
	raw, err := c.client.Get(ctx, cacheKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WarnContext(ctx, "entitlement cache read failed", logger.Error(err))
		}
		return nil, false
	}

	var status EntitlementStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		c.log.WarnContext(ctx, "entitlement cache entry corrupt", logger.Error(err))
		return nil, false
	}
	return &status, true
}

// Set stores the status with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, userID uuid.UUID, status *EntitlementStatus) {
	raw, err := json.Marshal(status)
	if err != nil {
		c.log.WarnContext(ctx, "entitlement cache encode failed", logger.Error(err))
		return
	}
	if err := c.client.Set(ctx, cacheKey(userID), raw, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "entitlement cache write failed", logger.Error(err))
	}
}

// Invalidate drops the cached status for the user.
func (c *RedisCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := c.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		c.log.WarnContext(ctx, "entitlement cache invalidation failed", logger.Error(err))
	}
}
