package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zumaops/stockboard/internal/config"
	"github.com/zumaops/stockboard/internal/sheets"
	"github.com/zumaops/stockboard/pkg/logger"
)

const sheetKeyPrefix = "stockboard:sheet"

// SheetCache keeps fetched sheet CSV text for a short TTL so repeated
// generator runs within a few minutes do not hammer the publish endpoint.
type SheetCache interface {
	Get(ctx context.Context, gid int) (string, bool, error)
	Set(ctx context.Context, gid int, text string) error
}

type redisSheetCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopSheetCache struct{}

// NewSheetCache returns a Redis-backed cache when enabled, otherwise a
// noop that always misses.
func NewSheetCache(cfg config.CacheConfig) (SheetCache, error) {
	if !cfg.Enabled {
		return &noopSheetCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisSheetCache{client: client, ttl: ttl}, nil
}

func NewNoopSheetCache() SheetCache {
	return &noopSheetCache{}
}

func (c *redisSheetCache) Get(ctx context.Context, gid int) (string, bool, error) {
	text, err := c.client.Get(ctx, sheetKey(gid)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get failed: %w", err)
	}
	return text, true, nil
}

func (c *redisSheetCache) Set(ctx context.Context, gid int, text string) error {
	if err := c.client.Set(ctx, sheetKey(gid), text, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *noopSheetCache) Get(context.Context, int) (string, bool, error) { return "", false, nil }
func (c *noopSheetCache) Set(context.Context, int, string) error         { return nil }

func sheetKey(gid int) string {
	return fmt.Sprintf("%s:%d", sheetKeyPrefix, gid)
}

// CachingFetcher decorates a sheets.Fetcher with a SheetCache. Cache
// errors degrade to a direct fetch; they never fail the lookup.
type CachingFetcher struct {
	next  sheets.Fetcher
	cache SheetCache
}

func NewCachingFetcher(next sheets.Fetcher, cache SheetCache) *CachingFetcher {
	return &CachingFetcher{next: next, cache: cache}
}

func (f *CachingFetcher) FetchSheet(ctx context.Context, gid int) (string, error) {
	text, hit, err := f.cache.Get(ctx, gid)
	if err != nil {
		logger.Log.Warn().Err(err).Int("gid", gid).Msg("sheet cache read failed")
	}
	if hit {
		return text, nil
	}

	text, err = f.next.FetchSheet(ctx, gid)
	if err != nil {
		return "", err
	}

	if err := f.cache.Set(ctx, gid, text); err != nil {
		logger.Log.Warn().Err(err).Int("gid", gid).Msg("sheet cache write failed")
	}
	return text, nil
}
