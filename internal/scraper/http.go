package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"lottawords/internal/logging"
	"lottawords/internal/puzzle"
)

const (
	gameDataMarker = "window.gameData"
	userAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	maxPageBytes   = 8 << 20
)

// HTTPFetcher reads the inline gameData script from the served HTML,
// without running any JavaScript.
type HTTPFetcher struct {
	client *http.Client
	url    string
}

// NewHTTPFetcher creates a fetcher. A nil client gets a 30s default.
func NewHTTPFetcher(client *http.Client, url string) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if url == "" {
		url = DefaultURL
	}
	return &HTTPFetcher{client: client, url: url}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context) (puzzle.Raw, error) {
	log := logging.Get(logging.CategoryScraper)
	timer := logging.StartTimer(logging.CategoryScraper, "http fetch")
	defer timer.Stop()

	req, err := http.NewRequestWithContext(ctx, "GET", f.url, nil)
	if err != nil {
		return puzzle.Raw{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return puzzle.Raw{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return puzzle.Raw{}, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return puzzle.Raw{}, err
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return puzzle.Raw{}, err
	}

	data, ok := findGameData(doc)
	if !ok {
		return puzzle.Raw{}, ErrGameDataMissing
	}
	gd, err := parseGameData(data)
	if err != nil {
		return puzzle.Raw{}, err
	}
	raw := gd.Raw()
	log.Debug("parsed inline game data", zap.Int("keys", len(gd.keys)), zap.Int("words", len(raw.Dictionary)))
	return raw, nil
}

// findGameData walks script elements for `window.gameData = {...}` and
// returns the object literal.
func findGameData(doc *html.Node) ([]byte, bool) {
	var found []byte
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "script" {
			if obj, ok := extractAssignment(scriptText(n)); ok {
				found = obj
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return found, found != nil
}

func scriptText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// extractAssignment pulls the JSON object assigned to window.gameData out of
// a script body. Reads of window.gameData before the assignment are skipped,
// as are trailing statements after the object.
func extractAssignment(src string) ([]byte, bool) {
	for {
		idx := strings.Index(src, gameDataMarker)
		if idx < 0 {
			return nil, false
		}
		src = src[idx+len(gameDataMarker):]
		if obj, ok := assignedObject(src); ok {
			return obj, true
		}
	}
}

// assignedObject decodes `= {...}` at the start of src.
func assignedObject(src string) ([]byte, bool) {
	rest := strings.TrimSpace(src)
	if !strings.HasPrefix(rest, "=") || strings.HasPrefix(rest, "==") {
		return nil, false
	}
	rest = strings.TrimSpace(rest[1:])
	if !strings.HasPrefix(rest, "{") {
		return nil, false
	}

	var obj json.RawMessage
	if err := json.NewDecoder(strings.NewReader(rest)).Decode(&obj); err != nil {
		return nil, false
	}
	return obj, true
}
