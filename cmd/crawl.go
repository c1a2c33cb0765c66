// cmd/crawl.go
package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alkemir/jscrawl/internal/browser"
	"github.com/alkemir/jscrawl/internal/crawler"
	"github.com/alkemir/jscrawl/internal/observability"
	"github.com/alkemir/jscrawl/internal/parser"
	"github.com/alkemir/jscrawl/internal/traffic"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl <url> [url...]",
	Short: "Crawl one or more pages by dispatching their JS event handlers.",
	Long: `Loads each target in a fresh browser tab, enumerates the event listeners
attached to the DOM, dispatches them one by one and captures every request
the page makes along the way. Captured documents are parsed for links and
forms, and a summary is printed at the end.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	for _, target := range args {
		if err := validateTarget(target); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := observability.GetLogger()
	cfg := appConfig

	store := traffic.NewStore(0)
	pool := browser.NewPool(ctx, cfg, logger, store)
	defer pool.Shutdown()

	dispatcher := parser.NewDispatcher(cfg.Parser, logger)
	parserDone := make(chan error, 1)
	go func() {
		parserDone <- dispatcher.Run(ctx, store)
	}()

	c := crawler.New(cfg, logger)
	logger.Info("Starting crawl.",
		zap.String("crawler", c.Name()),
		zap.Int("targets", len(args)),
		zap.Int("pool_size", cfg.Browser.PoolSize))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Browser.PoolSize)
	for _, target := range args {
		g.Go(func() error {
			err := crawlTarget(gctx, pool, c, cfg.Network.NavigationTimeout, target)
			if browser.IsInterfaceError(err) {
				// One dead tab should not abort the remaining sessions.
				logger.Warn("Session lost its browser tab.",
					zap.String("target", target), zap.Error(err))
				return nil
			}
			return err
		})
	}
	err := g.Wait()

	// No more writers; closing the store lets the parser drain and finish.
	store.Close()
	if perr := <-parserDone; perr != nil && err == nil && ctx.Err() == nil {
		err = perr
	}

	summary := dispatcher.Summary()
	logger.Info("Crawl finished.",
		zap.Int("captured_records", store.Len()),
		zap.Int("parsed_documents", summary.Documents),
		zap.Int("discovered_links", len(summary.Links)),
		zap.Int("discovered_forms", len(summary.Forms)))
	for _, link := range summary.Links {
		fmt.Fprintln(cmd.OutOrStdout(), link)
	}

	return err
}

// crawlTarget runs one full session: borrow a tab, load the page, crawl it,
// give the tab back.
func crawlTarget(ctx context.Context, pool *browser.Pool, c *crawler.Crawler, navTimeout time.Duration, target string) error {
	tab, err := pool.Checkout(ctx)
	if err != nil {
		return fmt.Errorf("checking out a tab for %s: %w", target, err)
	}
	defer pool.Return(tab)

	if err := tab.Load(ctx, target); err != nil {
		return fmt.Errorf("loading %s: %w", target, err)
	}
	if err := tab.WaitForLoad(ctx, navTimeout); err != nil {
		return fmt.Errorf("waiting for %s to load: %w", target, err)
	}

	c.Crawl(ctx, tab, target)
	return nil
}

func validateTarget(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("invalid target %q: %w", target, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid target %q: only http and https are supported", target)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid target %q: missing host", target)
	}
	return nil
}
