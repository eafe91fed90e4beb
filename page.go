package manx

import (
	"context"
	"regexp"
)

// Page is a fetched web page converted to markdown.
type Page struct {
	URL     string
	Title   string
	Content string // Markdown
	Depth   int
}

// PageStore exports crawled pages. Saved pages become visible only after
// Commit.
type PageStore interface {
	Save(ctx context.Context, page *Page) error
	Commit() error
	Abort() error
}

// Fetcher retrieves HTML from URLs.
type Fetcher interface {
	// Fetch returns the HTML for url. Implementations may render JavaScript.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases resources held by the fetcher.
	Close() error
}

// ExtractResult holds the main content of an HTML page.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string
	// ContentHTML is the main content with boilerplate removed.
	ContentHTML string
}

// Extractor extracts main content from HTML pages.
type Extractor interface {
	Extract(html string) (*ExtractResult, error)
}

// Converter converts HTML to Markdown.
type Converter interface {
	Convert(html string) (string, error)
}

// SitemapService discovers URLs from website sitemaps.
type SitemapService interface {
	// DiscoverURLs returns the URLs listed in the site's sitemaps that fall
	// under the path of baseURL and pass filter. A nil filter passes all.
	DiscoverURLs(ctx context.Context, baseURL string, filter *URLFilter) ([]string, error)
}

// URLFilter specifies patterns for including/excluding URLs.
type URLFilter struct {
	// Include patterns - if set, only URLs matching at least one pattern are included.
	Include []*regexp.Regexp

	// Exclude patterns - URLs matching any pattern are excluded.
	Exclude []*regexp.Regexp
}

// Match returns true if the URL passes the filter.
// If the filter is nil, all URLs pass.
func (f *URLFilter) Match(url string) bool {
	if f == nil {
		return true
	}
	if len(f.Include) > 0 && !matchAny(f.Include, url) {
		return false
	}
	return !matchAny(f.Exclude, url)
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// LinkPriority represents crawl priority (higher = more important).
type LinkPriority int

// Link priority levels for crawl ordering.
const (
	PriorityOther      LinkPriority = 10
	PriorityFooter     LinkPriority = 20
	PriorityContent    LinkPriority = 50
	PriorityNavigation LinkPriority = 100
	PriorityTOC        LinkPriority = 110
)

// DiscoveredLink represents a URL found on a page.
type DiscoveredLink struct {
	URL      string
	Priority LinkPriority
	Depth    int
}

// LinkSelector extracts same-host links from HTML.
type LinkSelector interface {
	// ExtractLinks resolves links in html against baseURL.
	ExtractLinks(html string, baseURL string) ([]DiscoveredLink, error)
}

// URLFrontier manages a crawl queue with deduplication.
type URLFrontier interface {
	// Push adds a link. Returns false if the URL has already been seen.
	Push(link DiscoveredLink) bool

	// Pop returns the highest priority link. Returns false if empty.
	Pop() (DiscoveredLink, bool)

	// Len returns the number of queued links.
	Len() int
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until a request to domain is allowed.
	Wait(ctx context.Context, domain string) error
}
