// Package crawl fetches documentation pages for indexing. It discovers pages
// from sitemaps or by following links, fetching them concurrently under a
// per-domain rate limit with retries.
package crawl

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/manx"
	"github.com/fwojciec/manx/bloom"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxDepth is the link depth followed when neither a depth nor an
// unlimited crawl is requested.
const DefaultMaxDepth = 3

// Crawler fetches documentation pages and converts them to markdown.
type Crawler struct {
	Sitemaps     manx.SitemapService
	Fetcher      manx.Fetcher
	Extractor    manx.Extractor
	Converter    manx.Converter
	LinkSelector manx.LinkSelector
	RateLimiter  manx.DomainLimiter
	Concurrency  int
	RetryDelays  []time.Duration

	// Log, if set, receives retry messages.
	Log LogFunc
}

// Options controls the extent of a crawl.
type Options struct {
	// MaxDepth is the number of link levels followed from the start page.
	// Zero fetches the start page only. Negative means unlimited.
	MaxDepth int

	// MaxPages caps the number of pages fetched. Zero means the default cap.
	MaxPages int

	// UseSitemap tries sitemap discovery before following links.
	UseSitemap bool

	// Filter restricts which discovered URLs are fetched.
	Filter *manx.URLFilter
}

// Result holds the outcome of a crawl.
type Result struct {
	Pages  []*manx.Page
	Failed int
	Bytes  int

	// Duplicates counts pages dropped because an earlier page had the same
	// content, such as /docs/ and /docs/index.html.
	Duplicates int
}

// ProgressEvent reports progress during a crawl.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	URL       string
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(event ProgressEvent)

// crawlResult holds the outcome of processing a single URL.
type crawlResult struct {
	link       manx.DiscoveredLink
	title      string
	markdown   string
	discovered []manx.DiscoveredLink
	err        error
}

// Crawl fetches sourceURL and, depending on opts, the pages under its path.
// Only http and https URLs are accepted. Pages are returned in URL order.
func (c *Crawler) Crawl(ctx context.Context, sourceURL string, opts Options, progress ProgressFunc) (*Result, error) {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return nil, manx.Errorf(manx.EINVALID, "invalid URL %q: %s", sourceURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, manx.Errorf(manx.EINVALID, "unsupported URL scheme %q: only http and https are allowed", u.Scheme)
	}
	if u.Host == "" {
		return nil, manx.Errorf(manx.EINVALID, "invalid URL %q: missing host", sourceURL)
	}

	maxPages := opts.MaxPages
	if maxPages <= 0 || maxPages > maxRecursiveCrawlURLs {
		maxPages = maxRecursiveCrawlURLs
	}

	var result *Result
	if opts.UseSitemap && opts.MaxDepth != 0 && c.Sitemaps != nil {
		urls, err := c.Sitemaps.DiscoverURLs(ctx, sourceURL, opts.Filter)
		if err != nil {
			return nil, fmt.Errorf("sitemap discovery: %w", err)
		}
		if len(urls) > 0 {
			if len(urls) > maxPages {
				urls = urls[:maxPages]
			}
			result = c.crawlList(ctx, urls, progress)
		}
	}
	if result == nil {
		if result, err = c.recursiveCrawl(ctx, sourceURL, opts, maxPages, progress); err != nil {
			return nil, err
		}
	}

	sort.Slice(result.Pages, func(i, j int) bool { return result.Pages[i].URL < result.Pages[j].URL })

	if progress != nil {
		progress(ProgressEvent{Type: ProgressFinished, Completed: len(result.Pages) + result.Failed})
	}
	return result, nil
}

// crawlList fetches a known list of URLs concurrently.
func (c *Crawler) crawlList(ctx context.Context, urls []string, progress ProgressFunc) *Result {
	var (
		mu        sync.Mutex
		result    Result
		completed int
		bodies    = bloom.NewFilter(uint(len(urls))+1, frontierFalsePositiveRate)
	)

	if progress != nil {
		progress(ProgressEvent{Type: ProgressStarted, Total: len(urls)})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency())

	for _, u := range urls {
		g.Go(func() error {
			res := c.fetchPage(gctx, manx.DiscoveredLink{URL: u}, false)

			mu.Lock()
			defer mu.Unlock()
			completed++
			c.record(&result, bodies, &res, completed, len(urls), progress)
			return nil
		})
	}
	_ = g.Wait()

	return &result
}

// recursiveCrawl follows in-scope links from sourceURL.
func (c *Crawler) recursiveCrawl(ctx context.Context, sourceURL string, opts Options, maxPages int, progress ProgressFunc) (*Result, error) {
	var result Result
	completed := 0
	bodies := bloom.NewFilter(frontierExpectedURLs, frontierFalsePositiveRate)

	handle := func(res *crawlResult, frontier *Frontier, scope *url.URL, pathPrefix string) {
		if opts.MaxDepth < 0 || res.link.Depth < opts.MaxDepth {
			for _, link := range res.discovered {
				if !inScope(link.URL, scope, pathPrefix, opts.Filter) {
					continue
				}
				link.Depth = res.link.Depth + 1
				frontier.Push(link)
			}
		}
		completed++
		c.record(&result, bodies, res, completed, 0, progress)
	}

	if err := c.walkFrontier(ctx, sourceURL, maxPages, c.processURL, handle); err != nil {
		return nil, err
	}
	return &result, nil
}

// record adds a processed URL to result and reports progress. Pages whose
// content is already in bodies are counted as duplicates.
func (c *Crawler) record(result *Result, bodies *bloom.Filter, res *crawlResult, completed, total int, progress ProgressFunc) {
	if res.err != nil {
		result.Failed++
		if progress != nil {
			progress(ProgressEvent{Type: ProgressFailed, Completed: completed, Total: total, URL: res.link.URL, Error: res.err})
		}
		return
	}
	if bodies.SeenContent(res.markdown) {
		result.Duplicates++
	} else {
		result.Pages = append(result.Pages, &manx.Page{
			URL:     res.link.URL,
			Title:   res.title,
			Content: res.markdown,
			Depth:   res.link.Depth,
		})
		result.Bytes += len(res.markdown)
	}
	if progress != nil {
		progress(ProgressEvent{Type: ProgressCompleted, Completed: completed, Total: total, URL: res.link.URL})
	}
}

// processURL fetches one page of a recursive crawl.
func (c *Crawler) processURL(ctx context.Context, link manx.DiscoveredLink) crawlResult {
	return c.fetchPage(ctx, link, true)
}

// fetchPage fetches one page and converts its main content to markdown,
// optionally collecting its links.
func (c *Crawler) fetchPage(ctx context.Context, link manx.DiscoveredLink, collectLinks bool) crawlResult {
	result := crawlResult{link: link}

	linkURL, err := url.Parse(link.URL)
	if err != nil {
		result.err = err
		return result
	}

	if c.RateLimiter != nil {
		if err := c.RateLimiter.Wait(ctx, linkURL.Host); err != nil {
			result.err = err
			return result
		}
	}

	delays := c.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	html, err := FetchWithRetryDelays(ctx, link.URL, c.Fetcher.Fetch, c.Log, delays)
	if err != nil {
		result.err = err
		return result
	}

	if collectLinks && c.LinkSelector != nil {
		if links, err := c.LinkSelector.ExtractLinks(html, link.URL); err == nil {
			result.discovered = links
		}
	}

	extracted, err := c.Extractor.Extract(html)
	if err != nil {
		result.err = err
		return result
	}

	markdown, err := c.Converter.Convert(extracted.ContentHTML)
	if err != nil {
		result.err = err
		return result
	}
	if strings.TrimSpace(markdown) == "" {
		result.err = manx.Errorf(manx.EINVALID, "page has no content: %s", link.URL)
		return result
	}

	result.title = extracted.Title
	result.markdown = markdown
	return result
}

func (c *Crawler) concurrency() int {
	if c.Concurrency <= 0 {
		return 4
	}
	return c.Concurrency
}

// inScope reports whether rawURL is on the crawl host, under the crawl path
// and passes filter.
func inScope(rawURL string, scope *url.URL, pathPrefix string, filter *manx.URLFilter) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Host != scope.Host {
		return false
	}
	if !strings.HasPrefix(u.Path, pathPrefix) {
		return false
	}
	return filter.Match(rawURL)
}
