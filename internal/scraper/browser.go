package scraper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lottawords/internal/browser"
	"lottawords/internal/logging"
	"lottawords/internal/puzzle"
)

// gameDataJS serialises window.gameData in the page, or yields null.
const gameDataJS = `() => window.gameData === undefined ? null : JSON.stringify(window.gameData)`

// BrowserFetcher renders the puzzle page in headless Chrome and reads
// window.gameData once the page has settled.
type BrowserFetcher struct {
	mgr    *browser.Manager
	url    string
	settle time.Duration
}

// NewBrowserFetcher creates a fetcher over mgr. An empty url means DefaultURL.
func NewBrowserFetcher(mgr *browser.Manager, url string, settle time.Duration) *BrowserFetcher {
	if url == "" {
		url = DefaultURL
	}
	return &BrowserFetcher{mgr: mgr, url: url, settle: settle}
}

// Fetch implements Fetcher.
func (f *BrowserFetcher) Fetch(ctx context.Context) (puzzle.Raw, error) {
	log := logging.Get(logging.CategoryScraper)
	timer := logging.StartTimer(logging.CategoryScraper, "browser fetch")
	defer timer.Stop()

	log.Info("Fetching puzzle data", zap.String("url", f.url))
	page, err := f.mgr.Open(ctx, f.url)
	if err != nil {
		return puzzle.Raw{}, fmt.Errorf("open puzzle page: %w", err)
	}
	defer page.Close()

	if f.settle > 0 {
		select {
		case <-time.After(f.settle):
		case <-ctx.Done():
			return puzzle.Raw{}, ctx.Err()
		}
	}

	v, err := page.Eval(ctx, gameDataJS)
	if err != nil {
		return puzzle.Raw{}, fmt.Errorf("read game data: %w", err)
	}
	if v.Nil() {
		log.Error("window.gameData not found. The page structure may have changed.")
		return puzzle.Raw{}, ErrGameDataMissing
	}

	gd, err := parseGameData([]byte(v.Str()))
	if err != nil {
		return puzzle.Raw{}, err
	}
	raw := gd.Raw()
	log.Info("Successfully fetched puzzle data", zap.Int("words", len(raw.Dictionary)))
	return raw, nil
}
