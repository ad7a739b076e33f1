package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lottawords/internal/browser"
	"lottawords/internal/config"
	"lottawords/internal/freshness"
	"lottawords/internal/logging"
	"lottawords/internal/scraper"
	"lottawords/internal/service"
	"lottawords/internal/solver"
	"lottawords/internal/store"
)

func browserConfig(c *config.Config) browser.Config {
	bc := browser.DefaultConfig()
	bc.DebuggerURL = c.Browser.DebuggerURL
	bc.Bin = c.Browser.Bin
	bc.Headless = c.Browser.Headless
	bc.Display = c.Browser.Display
	bc.NavigationTimeout = c.GetNavigationTimeout()
	return bc
}

// buildFetcher assembles the fetchers for the configured scraper mode. The
// returned manager is nil when no browser is involved.
func buildFetcher(c *config.Config) (scraper.Fetcher, *browser.Manager) {
	switch c.Scraper.Mode {
	case "http":
		return scraper.NewHTTPFetcher(nil, c.Scraper.URL), nil
	case "browser":
		mgr := browser.NewManager(browserConfig(c))
		return scraper.NewBrowserFetcher(mgr, c.Scraper.URL, c.GetSettleDelay()), mgr
	default:
		mgr := browser.NewManager(browserConfig(c))
		chain := scraper.NewChainFetcher().
			Add("browser", scraper.NewBrowserFetcher(mgr, c.Scraper.URL, c.GetSettleDelay())).
			Add("http", scraper.NewHTTPFetcher(nil, c.Scraper.URL))
		return chain, mgr
	}
}

// checkBrowser makes sure the browser can be reached before serving. In auto
// mode a failure is only logged since the HTTP fetcher can still run.
func checkBrowser(ctx context.Context, c *config.Config, mgr *browser.Manager) error {
	if mgr == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	err := mgr.Start(ctx)
	if err == nil {
		return nil
	}
	if c.Scraper.Mode == "browser" {
		return fmt.Errorf("browser unavailable: %w", err)
	}
	logging.Get(logging.CategoryBoot).Warn("browser unavailable, relying on HTTP fetcher", zap.Error(err))
	return nil
}

func rollover(c *config.Config) (freshness.Rollover, error) {
	loc, err := time.LoadLocation(c.Schedule.Zone)
	if err != nil {
		return freshness.Rollover{}, fmt.Errorf("load schedule zone: %w", err)
	}
	return freshness.Rollover{Hour: c.Schedule.Hour, Minute: c.Schedule.Minute, Location: loc}, nil
}

func solverOptions(c *config.Config) solver.Options {
	return solver.Options{
		MaxChain:      c.Solver.MaxChain,
		MaxIterations: c.Solver.MaxIterations,
		FirstBranch:   c.Solver.FirstBranch,
		Branch:        c.Solver.Branch,
	}
}

func storeOptions(c *config.Config) store.Options {
	return store.Options{
		Backend:      c.Cache.Backend,
		RedisURL:     c.Cache.RedisURL,
		Key:          c.Cache.Key,
		DatabasePath: c.Cache.DatabasePath,
	}
}

func newService(c *config.Config, f scraper.Fetcher, st store.Store) (*service.Service, error) {
	r, err := rollover(c)
	if err != nil {
		return nil, err
	}
	return service.New(service.Options{
		Fetcher:  f,
		Store:    st,
		Solver:   solverOptions(c),
		Rollover: r,
		Workers:  c.Server.Workers,
		Timeout:  c.GetScraperTimeout(),
	}), nil
}
