package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/manx"
)

var _ manx.Cache = (*LoggingCache)(nil)

// LoggingCache wraps a Cache and logs reads and writes.
type LoggingCache struct {
	next   manx.Cache
	logger *slog.Logger
}

// NewLoggingCache creates a new LoggingCache.
func NewLoggingCache(next manx.Cache, logger *slog.Logger) *LoggingCache {
	return &LoggingCache{next: next, logger: logger}
}

func (c *LoggingCache) Get(ctx context.Context, category, key string, v any) (hit bool, err error) {
	defer func(begin time.Time) {
		c.logger.Debug("cache get",
			"category", category,
			"key", key,
			"hit", hit,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Get(ctx, category, key, v)
}

func (c *LoggingCache) Set(ctx context.Context, category, key string, v any) (err error) {
	defer func(begin time.Time) {
		c.logger.Debug("cache set",
			"category", category,
			"key", key,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Set(ctx, category, key, v)
}

func (c *LoggingCache) Latest(ctx context.Context, category, suffix string) (key string, err error) {
	defer func(begin time.Time) {
		c.logger.Debug("cache latest",
			"category", category,
			"suffix", suffix,
			"key", key,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Latest(ctx, category, suffix)
}

func (c *LoggingCache) Clear(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		c.logger.Info("cache clear", "duration", time.Since(begin), "err", err)
	}(time.Now())
	return c.next.Clear(ctx)
}

func (c *LoggingCache) Stats(ctx context.Context) (*manx.CacheStats, error) {
	return c.next.Stats(ctx)
}

func (c *LoggingCache) List(ctx context.Context) ([]manx.CachedItem, error) {
	return c.next.List(ctx)
}
