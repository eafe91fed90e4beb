package manx

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// Cache categories.
const (
	CategorySearch   = "search"
	CategorySnippets = "snippets"
	CategoryDocs     = "docs"
)

// CacheVersion is the entry format version. Entries with another version are
// treated as misses and removed.
const CacheVersion = 1

// CacheEntry is the envelope stored for every cached value.
type CacheEntry struct {
	Version   int             `json:"version"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
	TTLHours  int             `json:"ttl_hours"`
}

// Expired reports whether the entry is older than its TTL at now.
func (e *CacheEntry) Expired(now time.Time) bool {
	age := now.Sub(time.Unix(e.Timestamp, 0))
	return age > time.Duration(e.TTLHours)*time.Hour
}

// CacheStats summarizes cache usage.
type CacheStats struct {
	TotalSizeMB float64  `json:"total_size_mb"`
	FileCount   int      `json:"file_count"`
	Categories  []string `json:"categories"`
}

// CachedItem describes a single cached entry.
type CachedItem struct {
	Category string  `json:"category"`
	Name     string  `json:"name"`
	SizeKB   float64 `json:"size_kb"`
}

// Cache stores JSON-serializable values by category and key with a TTL.
type Cache interface {
	// Get decodes the cached value into v. Returns false on a miss.
	// Expired or incompatible entries are removed and reported as misses.
	Get(ctx context.Context, category, key string, v any) (bool, error)

	// Set stores v under category and key, evicting old entries when the
	// cache exceeds its size limit.
	Set(ctx context.Context, category, key string, v any) error

	// Latest returns the key of the most recently written entry in category
	// whose key ends with suffix. Returns ENOTFOUND if none match.
	Latest(ctx context.Context, category, suffix string) (string, error)

	// Clear removes all cached entries.
	Clear(ctx context.Context) error

	// Stats returns usage statistics.
	Stats(ctx context.Context) (*CacheStats, error)

	// List returns all cached entries sorted by category and name.
	List(ctx context.Context) ([]CachedItem, error)
}

// SafeKey converts a cache key into a filesystem- and keyspace-safe name.
func SafeKey(key string) string {
	r := strings.NewReplacer("/", "_", "@", "_v_", " ", "_")
	return r.Replace(key)
}

// SearchCacheKey returns the cache key for a library query.
func SearchCacheKey(library, query string) string {
	return library + "_" + query
}
