// Package redis provides a shared cache backend on Redis. Entries are
// zstd-compressed JSON envelopes that expire with their TTL.
package redis

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/fwojciec/manx"
	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every key written by the cache.
const KeyPrefix = "manx"

const scanCount = 100

var _ manx.Cache = (*Cache)(nil)

// Cache implements manx.Cache on a Redis client.
type Cache struct {
	client   *redis.Client
	ttlHours int
	maxSize  int64

	enc *zstd.Encoder
	dec *zstd.Decoder
	now func() time.Time
}

// Open connects to the server at url (redis://...) and pings it.
func Open(ctx context.Context, url string, ttlHours int, maxSize int64) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, manx.Errorf(manx.EINVALID, "invalid redis URL: %v", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return NewCache(client, ttlHours, maxSize)
}

// NewCache wraps an existing client.
func NewCache(client *redis.Client, ttlHours int, maxSize int64) (*Cache, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &Cache{
		client:   client,
		ttlHours: ttlHours,
		maxSize:  maxSize,
		enc:      enc,
		dec:      dec,
		now:      time.Now,
	}, nil
}

// Close closes the client.
func (c *Cache) Close() error {
	c.dec.Close()
	return c.client.Close()
}

// Key returns the Redis key for a cache entry.
func Key(category, key string) string {
	return KeyPrefix + ":" + category + ":" + manx.SafeKey(key)
}

// splitKey returns the category and name of a Redis key.
func splitKey(k string) (category, name string, ok bool) {
	rest, ok := strings.CutPrefix(k, KeyPrefix+":")
	if !ok {
		return "", "", false
	}
	return strings.Cut(rest, ":")
}

// Encode returns the compressed envelope for v.
func (c *Cache) Encode(v any) ([]byte, error) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return nil, err
	}
	data, err := sonic.Marshal(manx.CacheEntry{
		Version:   manx.CacheVersion,
		Data:      raw,
		Timestamp: c.now().Unix(),
		TTLHours:  c.ttlHours,
	})
	if err != nil {
		return nil, err
	}
	return c.enc.EncodeAll(data, nil), nil
}

// Decode decompresses and parses an envelope.
func (c *Cache) Decode(b []byte) (*manx.CacheEntry, error) {
	data, err := c.dec.DecodeAll(b, nil)
	if err != nil {
		return nil, manx.Errorf(manx.EINTERNAL, "corrupt cache entry: %v", err)
	}
	var entry manx.CacheEntry
	if err := sonic.Unmarshal(data, &entry); err != nil {
		return nil, manx.Errorf(manx.EINTERNAL, "corrupt cache entry: %v", err)
	}
	return &entry, nil
}

// Get decodes the entry for category and key into v.
func (c *Cache) Get(ctx context.Context, category, key string, v any) (bool, error) {
	k := Key(category, key)
	b, err := c.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	entry, err := c.Decode(b)
	if err != nil {
		return false, err
	}
	if entry.Version != manx.CacheVersion || entry.Expired(c.now()) {
		c.client.Del(ctx, k)
		return false, nil
	}
	if err := sonic.Unmarshal(entry.Data, v); err != nil {
		return false, manx.Errorf(manx.EINTERNAL, "decoding cache entry %s: %v", k, err)
	}
	return true, nil
}

// Set stores v with the entry TTL as the key expiry.
func (c *Cache) Set(ctx context.Context, category, key string, v any) error {
	b, err := c.Encode(v)
	if err != nil {
		return err
	}
	ttl := time.Duration(c.ttlHours) * time.Hour
	if err := c.client.Set(ctx, Key(category, key), b, ttl).Err(); err != nil {
		return err
	}
	return c.evict(ctx)
}

type item struct {
	key       string
	category  string
	name      string
	size      int64
	timestamp int64
}

// scan returns every cache key matching pattern with its stored size.
func (c *Cache) scan(ctx context.Context, pattern string) ([]item, error) {
	var items []item
	iter := c.client.Scan(ctx, 0, pattern, scanCount).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		cat, name, ok := splitKey(k)
		if !ok {
			continue
		}
		size, err := c.client.StrLen(ctx, k).Result()
		if err != nil {
			return nil, err
		}
		items = append(items, item{key: k, category: cat, name: name, size: size})
	}
	return items, iter.Err()
}

// timestamps fills in the stored write time of each item. Unreadable
// entries get zero and sort as oldest.
func (c *Cache) timestamps(ctx context.Context, items []item) {
	for i := range items {
		b, err := c.client.Get(ctx, items[i].key).Bytes()
		if err != nil {
			continue
		}
		if entry, err := c.Decode(b); err == nil {
			items[i].timestamp = entry.Timestamp
		}
	}
}

// Latest returns the key of the newest entry in category ending in suffix.
func (c *Cache) Latest(ctx context.Context, category, suffix string) (string, error) {
	items, err := c.scan(ctx, Key(category, "*"+suffix))
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", manx.Errorf(manx.ENOTFOUND, "no cached %s entry matching %q", category, suffix)
	}
	c.timestamps(ctx, items)
	best := slices.MaxFunc(items, func(a, b item) int {
		return cmp.Compare(a.timestamp, b.timestamp)
	})
	return best.name, nil
}

// Clear deletes every cache key.
func (c *Cache) Clear(ctx context.Context) error {
	items, err := c.scan(ctx, KeyPrefix+":*")
	if err != nil {
		return err
	}
	for _, it := range items {
		if err := c.client.Unlink(ctx, it.key).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Stats totals compressed entry sizes.
func (c *Cache) Stats(ctx context.Context) (*manx.CacheStats, error) {
	items, err := c.scan(ctx, KeyPrefix+":*")
	if err != nil {
		return nil, err
	}
	stats := &manx.CacheStats{Categories: []string{}, FileCount: len(items)}
	var total int64
	for _, it := range items {
		total += it.size
		if !slices.Contains(stats.Categories, it.category) {
			stats.Categories = append(stats.Categories, it.category)
		}
	}
	slices.Sort(stats.Categories)
	stats.TotalSizeMB = float64(total) / (1 << 20)
	return stats, nil
}

// List returns every entry sorted by category then name.
func (c *Cache) List(ctx context.Context) ([]manx.CachedItem, error) {
	items, err := c.scan(ctx, KeyPrefix+":*")
	if err != nil {
		return nil, err
	}
	out := make([]manx.CachedItem, 0, len(items))
	for _, it := range items {
		out = append(out, manx.CachedItem{Category: it.category, Name: it.name, SizeKB: float64(it.size) / 1024})
	}
	slices.SortFunc(out, func(a, b manx.CachedItem) int {
		if n := strings.Compare(a.Category, b.Category); n != 0 {
			return n
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

// evict deletes the oldest entries until the total size is at most 80% of
// the limit, once the limit is exceeded.
func (c *Cache) evict(ctx context.Context) error {
	if c.maxSize <= 0 {
		return nil
	}
	items, err := c.scan(ctx, KeyPrefix+":*")
	if err != nil {
		return err
	}
	var total int64
	for _, it := range items {
		total += it.size
	}
	if total <= c.maxSize {
		return nil
	}

	c.timestamps(ctx, items)
	slices.SortStableFunc(items, func(a, b item) int {
		return cmp.Compare(a.timestamp, b.timestamp)
	})
	target := c.maxSize * 8 / 10
	for _, it := range items {
		if total <= target {
			break
		}
		if err := c.client.Del(ctx, it.key).Err(); err != nil {
			return err
		}
		total -= it.size
	}
	return nil
}
