package mock

import (
	"context"

	"github.com/fwojciec/manx"
)

var _ manx.Cache = (*Cache)(nil)

// Cache is a mock implementation of manx.Cache.
type Cache struct {
	GetFn    func(ctx context.Context, category, key string, v any) (bool, error)
	SetFn    func(ctx context.Context, category, key string, v any) error
	LatestFn func(ctx context.Context, category, suffix string) (string, error)
	ClearFn  func(ctx context.Context) error
	StatsFn  func(ctx context.Context) (*manx.CacheStats, error)
	ListFn   func(ctx context.Context) ([]manx.CachedItem, error)
}

func (c *Cache) Get(ctx context.Context, category, key string, v any) (bool, error) {
	return c.GetFn(ctx, category, key, v)
}

func (c *Cache) Set(ctx context.Context, category, key string, v any) error {
	return c.SetFn(ctx, category, key, v)
}

func (c *Cache) Latest(ctx context.Context, category, suffix string) (string, error) {
	return c.LatestFn(ctx, category, suffix)
}

func (c *Cache) Clear(ctx context.Context) error {
	return c.ClearFn(ctx)
}

func (c *Cache) Stats(ctx context.Context) (*manx.CacheStats, error) {
	return c.StatsFn(ctx)
}

func (c *Cache) List(ctx context.Context) ([]manx.CachedItem, error) {
	return c.ListFn(ctx)
}

var _ manx.ConfigService = (*ConfigService)(nil)

// ConfigService is a mock implementation of manx.ConfigService.
type ConfigService struct {
	LoadFn func() (*manx.Config, error)
	SaveFn func(cfg *manx.Config) error
	PathFn func() string
}

func (s *ConfigService) Load() (*manx.Config, error) {
	return s.LoadFn()
}

func (s *ConfigService) Save(cfg *manx.Config) error {
	return s.SaveFn(cfg)
}

func (s *ConfigService) Path() string {
	return s.PathFn()
}
