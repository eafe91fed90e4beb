package redis_test

import (
	"context"
	"os"
	"testing"

	"github.com/fwojciec/manx"
	manxredis "github.com/fwojciec/manx/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "manx:search:react_v_18_hooks", manxredis.Key(manx.CategorySearch, "react@18 hooks"))
}

func TestCache_EncodeDecode(t *testing.T) {
	t.Parallel()

	c, err := manxredis.NewCache(redis.NewClient(&redis.Options{}), 24, 0)
	require.NoError(t, err)

	b, err := c.Encode(map[string]int{"a": 1})
	require.NoError(t, err)

	entry, err := c.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, manx.CacheVersion, entry.Version)
	assert.Equal(t, 24, entry.TTLHours)
	assert.JSONEq(t, `{"a":1}`, string(entry.Data))

	_, err = c.Decode([]byte("not zstd"))
	assert.Equal(t, manx.EINTERNAL, manx.ErrorCode(err))
}

// openTestCache connects to MANX_TEST_REDIS_URL, skipping when unset.
func openTestCache(t *testing.T) *manxredis.Cache {
	t.Helper()

	url := os.Getenv("MANX_TEST_REDIS_URL")
	if url == "" {
		t.Skip("MANX_TEST_REDIS_URL not set")
	}
	c, err := manxredis.Open(context.Background(), url, 24, 1<<20)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = c.Clear(context.Background())
		c.Close()
	})
	return c
}

func TestCache_Redis(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Clear(ctx))

	require.NoError(t, c.Set(ctx, manx.CategorySnippets, "react_doc-1", manx.Snippet{ID: "doc-1", Title: "Hooks"}))
	require.NoError(t, c.Set(ctx, manx.CategoryDocs, "react_hooks", "text"))

	var s manx.Snippet
	ok, err := c.Get(ctx, manx.CategorySnippets, "react_doc-1", &s)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Hooks", s.Title)

	key, err := c.Latest(ctx, manx.CategorySnippets, "_doc-1")
	require.NoError(t, err)
	assert.Equal(t, "react_doc-1", key)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FileCount)
	assert.Equal(t, []string{"docs", "snippets"}, stats.Categories)

	items, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "docs", items[0].Category)

	require.NoError(t, c.Clear(ctx))
	ok, err = c.Get(ctx, manx.CategorySnippets, "react_doc-1", &s)
	require.NoError(t, err)
	assert.False(t, ok)
}
