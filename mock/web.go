package mock

import (
	"context"

	"github.com/fwojciec/manx"
)

var _ manx.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of manx.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (string, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

var _ manx.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of manx.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*manx.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*manx.ExtractResult, error) {
	return e.ExtractFn(html)
}

var _ manx.Converter = (*Converter)(nil)

// Converter is a mock implementation of manx.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}

var _ manx.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of manx.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string, filter *manx.URLFilter) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *manx.URLFilter) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL, filter)
}

var _ manx.LinkSelector = (*LinkSelector)(nil)

// LinkSelector is a mock implementation of manx.LinkSelector.
type LinkSelector struct {
	ExtractLinksFn func(html string, baseURL string) ([]manx.DiscoveredLink, error)
}

func (s *LinkSelector) ExtractLinks(html string, baseURL string) ([]manx.DiscoveredLink, error) {
	return s.ExtractLinksFn(html, baseURL)
}

var _ manx.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of manx.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}

var _ manx.PageStore = (*PageStore)(nil)

// PageStore is a mock implementation of manx.PageStore.
type PageStore struct {
	SaveFn   func(ctx context.Context, page *manx.Page) error
	CommitFn func() error
	AbortFn  func() error
}

func (s *PageStore) Save(ctx context.Context, page *manx.Page) error {
	return s.SaveFn(ctx, page)
}

func (s *PageStore) Commit() error {
	return s.CommitFn()
}

func (s *PageStore) Abort() error {
	return s.AbortFn()
}
