package crawl

import (
	"context"
	"net"
	"strings"
	"sync"

	"github.com/fwojciec/manx"
	"golang.org/x/time/rate"
)

var _ manx.DomainLimiter = (*DomainLimiter)(nil)

// DefaultRequestsPerSecond is the per-host request rate used when indexing
// documentation sites.
const DefaultRequestsPerSecond = 1.0

// DomainLimiter throttles requests per documentation host. Hosts that differ
// only by case, a "www." prefix or a default port share one bucket.
type DomainLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rps     float64
}

// NewDomainLimiter allows rps requests per second per host, without bursts.
func NewDomainLimiter(rps float64) *DomainLimiter {
	return &DomainLimiter{buckets: make(map[string]*rate.Limiter), rps: rps}
}

// Wait blocks until a request to host is allowed or ctx is done.
func (d *DomainLimiter) Wait(ctx context.Context, host string) error {
	key := hostKey(host)

	d.mu.Lock()
	b, ok := d.buckets[key]
	if !ok {
		b = rate.NewLimiter(rate.Limit(d.rps), 1)
		d.buckets[key] = b
	}
	d.mu.Unlock()

	return b.Wait(ctx)
}

func hostKey(host string) string {
	host = strings.ToLower(host)
	if h, port, err := net.SplitHostPort(host); err == nil && (port == "80" || port == "443") {
		host = h
	}
	return strings.TrimPrefix(host, "www.")
}
