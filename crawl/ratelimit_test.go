package crawl_test

import (
	"context"
	"testing"
	"time"

	"github.com/fwojciec/manx/crawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitTime returns how long the second of two back-to-back requests waited.
func waitTime(t *testing.T, l *crawl.DomainLimiter, first, second string) time.Duration {
	t.Helper()

	require.NoError(t, l.Wait(context.Background(), first))
	start := time.Now()
	require.NoError(t, l.Wait(context.Background(), second))
	return time.Since(start)
}

func TestDomainLimiter_Wait(t *testing.T) {
	t.Parallel()

	t.Run("first request is immediate", func(t *testing.T) {
		t.Parallel()

		start := time.Now()
		require.NoError(t, crawl.NewDomainLimiter(10).Wait(context.Background(), "react.dev"))
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	sameBucket := []struct{ first, second string }{
		{"react.dev", "react.dev"},
		{"React.Dev", "react.dev"},
		{"www.react.dev", "react.dev"},
		{"react.dev:443", "react.dev"},
	}
	for _, tc := range sameBucket {
		t.Run(tc.first+" throttles "+tc.second, func(t *testing.T) {
			t.Parallel()

			// 10 rps leaves 100ms between requests.
			assert.GreaterOrEqual(t, waitTime(t, crawl.NewDomainLimiter(10), tc.first, tc.second), 80*time.Millisecond)
		})
	}

	separate := []struct{ first, second string }{
		{"react.dev", "vuejs.org"},
		{"react.dev:8080", "react.dev"},
		{"docs.python.org", "python.org"},
	}
	for _, tc := range separate {
		t.Run(tc.first+" does not throttle "+tc.second, func(t *testing.T) {
			t.Parallel()

			assert.Less(t, waitTime(t, crawl.NewDomainLimiter(10), tc.first, tc.second), 50*time.Millisecond)
		})
	}

	t.Run("gives up when the context ends", func(t *testing.T) {
		t.Parallel()

		l := crawl.NewDomainLimiter(1)
		require.NoError(t, l.Wait(context.Background(), "react.dev"))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		assert.Error(t, l.Wait(ctx, "react.dev"))
	})
}
