// Package browser wraps one shared headless Chrome process behind a scoped
// page-acquisition API. The engine process is shared because its startup
// dominates cost; pages themselves are never pooled, every acquisition gets
// a fresh tab that is closed after use.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/botfleet/linkrelay/internal/bot"
	"github.com/botfleet/linkrelay/internal/metrics"
)

// Config controls the behavior of the browser pool.
type Config struct {
	NavigationTimeout time.Duration
	// Settle is how long to wait after the document is ready so
	// client-side redirects can fire before the final location is read.
	Settle    time.Duration
	UserAgent string
}

// Pool owns the shared browser engine. Start launches it, Close tears it
// down, and AcquirePage hands out fresh tabs while the engine is connected.
type Pool struct {
	cfg         Config
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc
	connected   atomic.Bool
	inUse       atomic.Int64
}

// NewPool prepares the allocator and browser contexts without launching
// Chrome; call Start to bring the engine up.
func NewPool(cfg Config) *Pool {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 40 * time.Second
	}
	if cfg.Settle <= 0 {
		cfg.Settle = 2 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserStop := chromedp.NewContext(allocCtx)

	return &Pool{
		cfg:         cfg,
		allocCancel: allocCancel,
		browserCtx:  browserCtx,
		browserStop: browserStop,
	}
}

// Start launches the browser process and begins connectivity tracking.
func (p *Pool) Start(ctx context.Context) error {
	startCtx, cancel := context.WithTimeout(p.browserCtx, 30*time.Second)
	defer cancel()
	if err := chromedp.Run(startCtx); err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	p.connected.Store(true)
	go func() {
		select {
		case <-p.browserCtx.Done():
		case <-ctx.Done():
		}
		p.connected.Store(false)
	}()
	return nil
}

// Close cancels the browser and allocator contexts.
func (p *Pool) Close() {
	p.connected.Store(false)
	p.browserStop()
	p.allocCancel()
}

// Connected reports whether the engine process is still reachable.
func (p *Pool) Connected() bool {
	return p.connected.Load()
}

// InUse reports how many pages are currently held.
func (p *Pool) InUse() int64 {
	return p.inUse.Load()
}

// AcquirePage opens a fresh tab. It fails fast with bot.ErrBrowserUnavailable
// when the engine is disconnected instead of blocking. Callers must Close
// the page on every exit path.
func (p *Pool) AcquirePage(ctx context.Context) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("acquire page: %w", err)
	}
	if !p.Connected() {
		return nil, fmt.Errorf("acquire page: %w", bot.ErrBrowserUnavailable)
	}
	tabCtx, tabCancel := chromedp.NewContext(p.browserCtx)
	metrics.SetBrowserPagesInUse(p.inUse.Add(1))
	return &Page{
		pool:   p,
		ctx:    tabCtx,
		cancel: tabCancel,
	}, nil
}

// Page is one browser tab. Close is idempotent.
type Page struct {
	pool      *Pool
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// Close releases the tab back to the pool.
func (pg *Page) Close() {
	pg.closeOnce.Do(func() {
		pg.cancel()
		metrics.SetBrowserPagesInUse(pg.pool.inUse.Add(-1))
	})
}

// Navigate loads the URL, waits for the document plus the settle window so
// client-side redirects run, and returns the final location. The whole
// operation is bounded by the pool's navigation timeout.
func (pg *Page) Navigate(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	navCtx, cancel := context.WithTimeout(pg.ctx, pg.pool.cfg.NavigationTimeout)
	defer cancel()
	// Caller cancellation must interrupt an in-flight run, not just gate entry.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var finalURL string
	actions := []chromedp.Action{
		pg.setupAction(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(pg.pool.cfg.Settle),
		chromedp.Location(&finalURL),
	}
	if err := chromedp.Run(navCtx, actions...); err != nil {
		switch {
		case ctx.Err() != nil:
			return "", fmt.Errorf("navigate %s: %w", url, ctx.Err())
		case errors.Is(err, context.DeadlineExceeded):
			return "", fmt.Errorf("navigate %s: %w", url, bot.ErrNavigationTimeout)
		case !pg.pool.Connected():
			return "", fmt.Errorf("navigate %s: %w", url, bot.ErrBrowserUnavailable)
		default:
			return "", fmt.Errorf("chromedp run: %w", err)
		}
	}
	return finalURL, nil
}

func (pg *Page) setupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if pg.pool.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(pg.pool.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

// ResolveFinalURL acquires a page, navigates, and guarantees release on
// every path. It satisfies the resolver's Navigator contract.
func (p *Pool) ResolveFinalURL(ctx context.Context, url string) (string, error) {
	page, err := p.AcquirePage(ctx)
	if err != nil {
		return "", err
	}
	defer page.Close()
	return page.Navigate(ctx, url)
}
