package cache

import (
	"log/slog"
	"time"

	"github.com/bluestem-events/bluestem/internal/config"
)

// New builds the cache backend selected by configuration. When a Redis URL
// is configured it is tried first; a connection failure falls back to the
// in-memory cache so the server still starts.
func New(cfg *config.Config, logger *slog.Logger) Cache {
	ttl := time.Duration(cfg.CacheTTL) * time.Second

	if cfg.UseRedisCache() {
		opts := DefaultRedisCacheOptions()
		opts.URL = cfg.RedisURL
		opts.Prefix = cfg.CachePrefix
		opts.DefaultTTL = ttl

		rc, err := NewRedisCache(opts)
		if err != nil {
			logger.Warn("Redis cache unavailable, falling back to memory cache",
				"category", "cache", "error", err)
		} else {
			logger.Info("using Redis cache", "prefix", opts.Prefix)
			return rc
		}
	}

	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      ttl,
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	})
}
