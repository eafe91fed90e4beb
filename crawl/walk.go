package crawl

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/fwojciec/manx"
)

const (
	// frontierExpectedURLs sizes the Bloom filter.
	frontierExpectedURLs = 10000
	// frontierFalsePositiveRate is the acceptable false positive rate for deduplication.
	frontierFalsePositiveRate = 0.01
	// maxRecursiveCrawlURLs caps any crawl.
	maxRecursiveCrawlURLs = 1000
	// drainTimeout bounds the wait for in-flight results after the walk stops.
	drainTimeout = 5 * time.Second
)

// walkProcessor fetches and processes one link.
type walkProcessor func(ctx context.Context, link manx.DiscoveredLink) crawlResult

// walkResultHandler consumes a result on the coordinator goroutine. It may
// push newly discovered links onto the frontier.
type walkResultHandler func(result *crawlResult, frontier *Frontier, scope *url.URL, pathPrefix string)

// walkFrontier processes links from a frontier seeded with sourceURL using a
// pool of workers. A single coordinator goroutine owns dispatch and result
// handling, so handlers need no locking. At most maxPages links are
// dispatched.
func (c *Crawler) walkFrontier(
	ctx context.Context,
	sourceURL string,
	maxPages int,
	process walkProcessor,
	handle walkResultHandler,
) error {
	scope, err := url.Parse(sourceURL)
	if err != nil {
		return fmt.Errorf("invalid source URL: %w", err)
	}
	pathPrefix := scope.Path

	frontier := NewFrontier(frontierExpectedURLs, frontierFalsePositiveRate)
	frontier.Push(manx.DiscoveredLink{URL: sourceURL, Priority: manx.PriorityNavigation})

	concurrency := c.concurrency()
	workCh := make(chan manx.DiscoveredLink, concurrency)
	resultCh := make(chan crawlResult)

	var wg sync.WaitGroup
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for link := range workCh {
				res := process(ctx, link)
				select {
				case resultCh <- res:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	dispatched := 0
	pending := 0
	var next *manx.DiscoveredLink
	if link, ok := frontier.Pop(); ok {
		next = &link
	}

loop:
	for {
		if next == nil && pending == 0 {
			break
		}
		if ctx.Err() != nil {
			break
		}

		if next != nil && dispatched < maxPages {
			select {
			case <-ctx.Done():
				break loop
			case workCh <- *next:
				dispatched++
				pending++
				next = nil
			case res := <-resultCh:
				pending--
				handle(&res, frontier, scope, pathPrefix)
			}
		} else {
			select {
			case <-ctx.Done():
				break loop
			case res, ok := <-resultCh:
				if !ok {
					break loop
				}
				pending--
				handle(&res, frontier, scope, pathPrefix)
			}
		}

		if next == nil && dispatched < maxPages {
			if link, ok := frontier.Pop(); ok {
				next = &link
			}
		}
	}

	close(workCh)

	timeout := time.After(drainTimeout)
drain:
	for {
		select {
		case res, ok := <-resultCh:
			if !ok {
				break drain
			}
			handle(&res, frontier, scope, pathPrefix)
		case <-timeout:
			break drain
		}
	}

	return nil
}
