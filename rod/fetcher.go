// Package rod renders JavaScript-heavy documentation pages in headless
// Chrome.
package rod

import (
	"context"
	"time"

	"github.com/fwojciec/manx"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout bounds the load of a single page.
const DefaultFetchTimeout = 10 * time.Second

var _ manx.Fetcher = (*Fetcher)(nil)

// Fetcher returns the rendered HTML of pages. It is safe for concurrent use.
type Fetcher struct {
	browser *browser
	timeout time.Duration
}

// Option configures a Fetcher.
type Option func(*config)

type config struct {
	timeout      time.Duration
	recycleAfter int
}

// WithTimeout sets the per-page timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// WithRecycleAfter restarts the browser after n pages. Zero disables
// recycling.
func WithRecycleAfter(n int) Option {
	return func(c *config) { c.recycleAfter = n }
}

// NewFetcher launches headless Chrome, downloading it if necessary.
// Close must be called to stop the browser.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	c := config{timeout: DefaultFetchTimeout, recycleAfter: DefaultRecycleAfter}
	for _, opt := range opts {
		opt(&c)
	}

	b, err := newBrowser(c.recycleAfter)
	if err != nil {
		return nil, err
	}
	return &Fetcher{browser: b, timeout: c.timeout}, nil
}

// Fetch navigates to url, waits for the load event, and returns the DOM.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	b, err := f.browser.acquire()
	if err != nil {
		return "", err
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", err
	}
	defer page.Close()

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	page = page.Context(ctx)

	if err := page.Navigate(url); err != nil {
		return "", err
	}
	if err := page.WaitLoad(); err != nil {
		return "", err
	}
	return page.HTML()
}

// Close stops the browser. It is safe to call more than once.
func (f *Fetcher) Close() error {
	return f.browser.close()
}

// LauncherPID returns the browser launcher process ID.
func (f *Fetcher) LauncherPID() int {
	return f.browser.pid()
}
