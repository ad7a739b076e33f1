//go:build integration

package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lottawords/internal/browser"
)

func TestBrowserFetcherReadsGameData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, puzzlePage)
	}))
	defer srv.Close()

	mgr := browser.NewManager(browser.DefaultConfig())
	defer mgr.Shutdown(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	raw, err := NewBrowserFetcher(mgr, srv.URL, 0).Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC", "DEF", "GHI", "JKL"}, raw.Sides)
	assert.Len(t, raw.Dictionary, 4)
}

func TestBrowserFetcherMissingGameData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>nothing here</body></html>`)
	}))
	defer srv.Close()

	mgr := browser.NewManager(browser.DefaultConfig())
	defer mgr.Shutdown(context.Background())

	_, err := NewBrowserFetcher(mgr, srv.URL, 0).Fetch(context.Background())
	assert.ErrorIs(t, err, ErrGameDataMissing)
}
