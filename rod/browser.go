package rod

import (
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// DefaultRecycleAfter is the number of pages rendered before the browser
// is restarted. Chrome memory grows under sustained load and does not
// return to baseline when pages close.
const DefaultRecycleAfter = 75

// browser owns a headless Chrome process and restarts it every
// recycleAfter pages.
type browser struct {
	mu           sync.Mutex
	current      *rod.Browser
	launcher     *launcher.Launcher
	pages        int
	recycleAfter int
	closed       bool
}

func newBrowser(recycleAfter int) (*browser, error) {
	b := &browser{recycleAfter: recycleAfter}
	if err := b.launch(); err != nil {
		return nil, err
	}
	return b, nil
}

// acquire returns the browser to render the next page with, restarting it
// first when the page budget is spent. A failed restart keeps the old one.
func (b *browser) acquire() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("browser closed")
	}
	if b.recycleAfter > 0 && b.pages >= b.recycleAfter {
		b.recycle()
	}
	b.pages++
	return b.current, nil
}

func (b *browser) launch() error {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Leakless(true).
		Headless(true)

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}

	rb := rod.New().ControlURL(u)
	if err := rb.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("connecting to browser: %w", err)
	}

	b.current, b.launcher = rb, l
	return nil
}

// recycle must be called with mu held.
func (b *browser) recycle() {
	old, oldLauncher := b.current, b.launcher
	if err := b.launch(); err != nil {
		b.current, b.launcher = old, oldLauncher
		return
	}
	_ = old.Close()
	oldLauncher.Kill()
	b.pages = 0
}

func (b *browser) close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	err := b.current.Close()
	b.launcher.Kill()
	return err
}

// pid returns the launcher process ID.
func (b *browser) pid() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.launcher.PID()
}
