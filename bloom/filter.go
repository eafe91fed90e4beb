// Package bloom tracks crawled URLs and page bodies with Bloom filters.
package bloom

import (
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
)

// Filter is a probabilistic set of strings. Seen may report false positives
// but never false negatives.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter returns a Filter sized for n entries at the given false
// positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{f: bloom.NewWithEstimates(n, fpRate)}
}

// Seen records key and reports whether it was possibly recorded before.
func (f *Filter) Seen(key string) bool {
	return f.f.TestAndAddString(key)
}

// SeenContent is Seen for page bodies. Bodies differing only in whitespace
// are the same entry.
func (f *Filter) SeenContent(body string) bool {
	return f.f.TestAndAdd([]byte(strings.Join(strings.Fields(body), " ")))
}
