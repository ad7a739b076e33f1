// Package scraper acquires the day's Letter Boxed puzzle: its sides, the
// published solution and the dictionary of accepted words.
package scraper

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"lottawords/internal/logging"
	"lottawords/internal/puzzle"
)

// DefaultURL is the puzzle page.
const DefaultURL = "https://www.nytimes.com/puzzles/letter-boxed"

var (
	// ErrGameDataMissing means the page loaded without a window.gameData object.
	ErrGameDataMissing = errors.New("window.gameData not found; the page structure may have changed")
	// ErrNoDictionary means gameData carried no recognisable word list.
	ErrNoDictionary = errors.New("no dictionary found in game data")
)

// Fetcher retrieves the raw puzzle.
type Fetcher interface {
	Fetch(ctx context.Context) (puzzle.Raw, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) (puzzle.Raw, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context) (puzzle.Raw, error) { return f(ctx) }

// ChainFetcher tries each fetcher in order and returns the first success.
type ChainFetcher struct {
	fetchers []namedFetcher
}

type namedFetcher struct {
	name string
	f    Fetcher
}

// NewChainFetcher returns an empty chain; add fetchers with Add.
func NewChainFetcher() *ChainFetcher {
	return &ChainFetcher{}
}

// Add appends a fetcher under a name used in logs.
func (c *ChainFetcher) Add(name string, f Fetcher) *ChainFetcher {
	c.fetchers = append(c.fetchers, namedFetcher{name: name, f: f})
	return c
}

// Len reports the number of fetchers in the chain.
func (c *ChainFetcher) Len() int { return len(c.fetchers) }

// Fetch runs the chain. A result without sides or dictionary counts as a
// failure so the next fetcher gets a chance; if every fetcher fails the last
// error is returned.
func (c *ChainFetcher) Fetch(ctx context.Context) (puzzle.Raw, error) {
	log := logging.Get(logging.CategoryScraper)
	if len(c.fetchers) == 0 {
		return puzzle.Raw{}, errors.New("no fetchers configured")
	}

	var errs []error
	var last puzzle.Raw
	for _, nf := range c.fetchers {
		if err := ctx.Err(); err != nil {
			return puzzle.Raw{}, err
		}
		raw, err := nf.f.Fetch(ctx)
		if err == nil && len(raw.Sides) > 0 && len(raw.Dictionary) > 0 {
			log.Info("puzzle fetched", zap.String("fetcher", nf.name), zap.Int("dictionary", len(raw.Dictionary)))
			return raw, nil
		}
		if err == nil {
			// Partial data: keep it in case nothing better turns up.
			last = raw
			err = ErrNoDictionary
			if len(raw.Sides) == 0 {
				err = ErrGameDataMissing
			}
		}
		log.Warn("fetcher failed", zap.String("fetcher", nf.name), zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", nf.name, err))
	}

	if len(last.Sides) > 0 {
		return last, nil
	}
	return puzzle.Raw{}, errors.Join(errs...)
}
