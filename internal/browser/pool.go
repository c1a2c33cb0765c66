// internal/browser/pool.go
package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/alkemir/jscrawl/internal/config"
	"github.com/alkemir/jscrawl/internal/traffic"
)

// Pool owns the browser process and hands out instrumented tabs. Borrowers
// use a tab for exactly one crawl session and return it; the pool closes it
// and the next checkout gets a fresh one, so no page state leaks between
// sessions. Checkout is rate limited to keep tab churn from overwhelming
// the browser.
type Pool struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *traffic.Store

	allocCtx    context.Context
	allocCancel context.CancelFunc

	limiter *rate.Limiter
	slots   chan struct{}

	mu     sync.Mutex
	open   map[string]*Tab
	closed bool
}

// NewPool launches the browser allocator and prepares pool bookkeeping.
func NewPool(ctx context.Context, cfg *config.Config, logger *zap.Logger, store *traffic.Store) *Pool {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !cfg.Browser.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.Browser.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	for _, arg := range cfg.Browser.Args {
		opts = append(opts, chromedp.Flag(arg, true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)

	checkoutRate := cfg.Browser.CheckoutRate
	if checkoutRate <= 0 {
		checkoutRate = 2.0
	}

	return &Pool{
		cfg:         cfg,
		logger:      logger.Named("pool"),
		store:       store,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		limiter:     rate.NewLimiter(rate.Limit(checkoutRate), 1),
		slots:       make(chan struct{}, cfg.Browser.PoolSize),
		open:        make(map[string]*Tab),
	}
}

// Checkout borrows a fresh tab. It blocks while the pool is at capacity and
// respects the checkout rate limit. The caller must hand the tab back via
// Return; the tab's lifecycle belongs to the pool, never to the borrower.
func (p *Pool) Checkout(ctx context.Context) (*Tab, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("checkout rate wait: %w", err)
	}

	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	tab, err := newTab(p.allocCtx, p.cfg, p.logger, p.store)
	if err != nil {
		<-p.slots
		return nil, fmt.Errorf("create tab: %w", err)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		tab.Close()
		<-p.slots
		return nil, fmt.Errorf("pool is shut down")
	}
	p.open[tab.id] = tab
	p.mu.Unlock()

	p.logger.Debug("Tab checked out.", zap.String("tab_id", tab.id))
	return tab, nil
}

// Return gives a borrowed tab back. The tab is closed, not recycled.
func (p *Pool) Return(tab *Tab) {
	if tab == nil {
		return
	}
	p.mu.Lock()
	_, known := p.open[tab.id]
	delete(p.open, tab.id)
	p.mu.Unlock()
	if !known {
		return
	}

	tab.Close()
	<-p.slots
	p.logger.Debug("Tab returned.", zap.String("tab_id", tab.id))
}

// Shutdown closes all outstanding tabs and the browser process.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	tabs := make([]*Tab, 0, len(p.open))
	for _, t := range p.open {
		tabs = append(tabs, t)
	}
	p.open = make(map[string]*Tab)
	p.mu.Unlock()

	for _, t := range tabs {
		t.Close()
		<-p.slots
	}
	p.allocCancel()
	p.logger.Info("Browser pool shut down.")
}
