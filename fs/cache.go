// Package fs stores the documentation cache and exports on the local
// filesystem.
package fs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/fwojciec/manx"
)

// Cache defaults.
const (
	DefaultTTLHours  = 24
	DefaultMaxSizeMB = 100
)

// evictTarget is the fraction of the size limit that eviction shrinks to.
const evictTarget = 0.8

const entryExt = ".json"

var _ manx.Cache = (*Cache)(nil)

// Cache implements manx.Cache with one JSON file per entry at
// <dir>/<category>/<safe key>.json. Mutations are serialized.
type Cache struct {
	mu       sync.Mutex
	dir      string
	ttlHours int
	maxSize  int64

	now func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTLHours sets the lifetime of new entries.
func WithTTLHours(h int) Option {
	return func(c *Cache) { c.ttlHours = h }
}

// WithMaxSize sets the size limit in bytes.
func WithMaxSize(bytes int64) Option {
	return func(c *Cache) { c.maxSize = bytes }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// NewCache creates the cache root if needed.
func NewCache(dir string, opts ...Option) (*Cache, error) {
	c := &Cache{
		dir:      dir,
		ttlHours: DefaultTTLHours,
		maxSize:  DefaultMaxSizeMB << 20,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return c, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	return c.dir
}

func (c *Cache) path(category, key string) string {
	return filepath.Join(c.dir, category, manx.SafeKey(key)+entryExt)
}

// Get decodes the entry for category and key into v.
func (c *Cache) Get(ctx context.Context, category, key string, v any) (bool, error) {
	path := c.path(category, key)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	var entry manx.CacheEntry
	if err := sonic.Unmarshal(data, &entry); err != nil {
		return false, manx.Errorf(manx.EINTERNAL, "corrupt cache entry %s: %v", path, err)
	}
	if entry.Version != manx.CacheVersion || entry.Expired(c.now()) {
		c.mu.Lock()
		_ = os.Remove(path)
		c.mu.Unlock()
		return false, nil
	}

	if err := sonic.Unmarshal(entry.Data, v); err != nil {
		return false, manx.Errorf(manx.EINTERNAL, "decoding cache entry %s: %v", path, err)
	}
	return true, nil
}

// Set writes v atomically and evicts old entries when over the size limit.
func (c *Cache) Set(ctx context.Context, category, key string, v any) error {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	data, err := sonic.ConfigStd.MarshalIndent(manx.CacheEntry{
		Version:   manx.CacheVersion,
		Data:      raw,
		Timestamp: c.now().Unix(),
		TTLHours:  c.ttlHours,
	}, "", "  ")
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := writeFileAtomic(c.path(category, key), data); err != nil {
		return err
	}
	return c.evict()
}

// Latest returns the key of the newest entry in category ending in suffix.
func (c *Cache) Latest(ctx context.Context, category, suffix string) (string, error) {
	suffix = manx.SafeKey(suffix)

	var best string
	var bestTime time.Time
	err := c.walk(func(cat, name string, info fs.FileInfo) {
		if cat != category || !strings.HasSuffix(name, suffix) {
			return
		}
		if best == "" || info.ModTime().After(bestTime) {
			best, bestTime = name, info.ModTime()
		}
	})
	if err != nil {
		return "", err
	}
	if best == "" {
		return "", manx.Errorf(manx.ENOTFOUND, "no cached %s entry matching %q", category, suffix)
	}
	return best, nil
}

// Clear removes every entry and recreates the root.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.RemoveAll(c.dir); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

// Stats totals entry sizes across categories.
func (c *Cache) Stats(ctx context.Context) (*manx.CacheStats, error) {
	stats := &manx.CacheStats{Categories: []string{}}
	var total int64

	dirs, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		if d.IsDir() {
			stats.Categories = append(stats.Categories, d.Name())
		}
	}

	err = c.walk(func(_, _ string, info fs.FileInfo) {
		total += info.Size()
		stats.FileCount++
	})
	if err != nil {
		return nil, err
	}
	stats.TotalSizeMB = float64(total) / (1 << 20)
	return stats, nil
}

// List returns every entry sorted by category then name.
func (c *Cache) List(ctx context.Context) ([]manx.CachedItem, error) {
	items := []manx.CachedItem{}
	err := c.walk(func(cat, name string, info fs.FileInfo) {
		items = append(items, manx.CachedItem{
			Category: cat,
			Name:     name,
			SizeKB:   float64(info.Size()) / 1024,
		})
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(items, func(a, b manx.CachedItem) int {
		if n := strings.Compare(a.Category, b.Category); n != 0 {
			return n
		}
		return strings.Compare(a.Name, b.Name)
	})
	return items, nil
}

// walk calls fn for every entry file one level below each category.
func (c *Cache) walk(fn func(category, name string, info fs.FileInfo)) error {
	dirs, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(c.dir, d.Name()))
		if err != nil {
			return err
		}
		for _, f := range files {
			if f.IsDir() || filepath.Ext(f.Name()) != entryExt {
				continue
			}
			info, err := f.Info()
			if err != nil {
				continue
			}
			fn(d.Name(), strings.TrimSuffix(f.Name(), entryExt), info)
		}
	}
	return nil
}

// evict removes the oldest entries until the cache is at most 80% of its
// limit. It does nothing while the cache is under the limit. Must be
// called with mu held.
func (c *Cache) evict() error {
	type file struct {
		path string
		size int64
		mod  time.Time
	}
	var files []file
	var total int64
	err := c.walk(func(cat, name string, info fs.FileInfo) {
		files = append(files, file{filepath.Join(c.dir, cat, name+entryExt), info.Size(), info.ModTime()})
		total += info.Size()
	})
	if err != nil || total <= c.maxSize {
		return err
	}

	slices.SortStableFunc(files, func(a, b file) int {
		return a.mod.Compare(b.mod)
	})
	target := int64(float64(c.maxSize) * evictTarget)
	for _, f := range files {
		if total <= target {
			break
		}
		if err := os.Remove(f.path); err == nil {
			total -= f.size
		}
	}
	return nil
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
