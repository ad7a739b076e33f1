// Package browser owns the headless Chrome instance used to read the puzzle
// page. It either attaches to a remote DevTools endpoint or launches a local
// browser, and hands out short-lived pages.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"github.com/ysmood/gson"
	"go.uber.org/zap"

	"lottawords/internal/logging"
)

// ErrNotConnected is returned when no browser is available.
var ErrNotConnected = errors.New("browser not connected")

// Config holds browser configuration.
type Config struct {
	DebuggerURL       string
	Bin               string
	Headless          bool
	Display           string
	Flags             []string
	ViewportWidth     int
	ViewportHeight    int
	NavigationTimeout time.Duration
}

// DefaultFlags are passed to every locally launched browser.
var DefaultFlags = []string{
	"--disable-gpu",
	"--no-sandbox",
	"--disable-dev-shm-usage",
	"--log-level=3",
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Headless:          true,
		Flags:             DefaultFlags,
		ViewportWidth:     1920,
		ViewportHeight:    1080,
		NavigationTimeout: 30 * time.Second,
	}
}

// GetViewportWidth returns viewport width.
func (c Config) GetViewportWidth() int {
	if c.ViewportWidth == 0 {
		return 1920
	}
	return c.ViewportWidth
}

// GetViewportHeight returns viewport height.
func (c Config) GetViewportHeight() int {
	if c.ViewportHeight == 0 {
		return 1080
	}
	return c.ViewportHeight
}

// GetNavigationTimeout returns the navigation timeout.
func (c Config) GetNavigationTimeout() time.Duration {
	if c.NavigationTimeout <= 0 {
		return 30 * time.Second
	}
	return c.NavigationTimeout
}

// PageInfo describes a tracked page.
type PageInfo struct {
	ID        string    `json:"id"`
	TargetID  string    `json:"target_id,omitempty"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// Page is an open browser tab.
type Page struct {
	info    PageInfo
	page    *rod.Page
	context *rod.Browser // incognito context owning the page
	mgr     *Manager
}

// Manager owns the browser connection and tracks open pages.
type Manager struct {
	cfg        Config
	mu         sync.RWMutex
	browser    *rod.Browser
	launcher   *launcher.Launcher
	controlURL string
	pages      map[string]*Page
}

// NewManager creates a manager. Nothing is launched until Start or Open.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, pages: make(map[string]*Page)}
}

// Start connects to the configured remote browser or launches a local one.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	log := logging.Get(logging.CategoryBrowser)

	// If we already have a browser, verify it's still alive
	if m.browser != nil {
		if _, err := m.browser.Version(); err == nil {
			return nil
		}
		log.Warn("stale browser connection detected, reconnecting")
		m.closeLocked()
	}

	controlURL := m.cfg.DebuggerURL
	if controlURL != "" {
		resolved, err := resolveRemote(controlURL)
		if err != nil {
			return fmt.Errorf("resolve remote browser %s: %w", controlURL, err)
		}
		controlURL = resolved
	} else {
		l := m.newLauncher()
		u, err := l.Context(ctx).Launch()
		if err != nil {
			return fmt.Errorf("launch chrome: %w", err)
		}
		m.launcher = l
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		if m.launcher != nil {
			m.launcher.Kill()
			m.launcher = nil
		}
		return fmt.Errorf("connect to chrome: %w", err)
	}

	m.browser = b
	m.controlURL = controlURL
	log.Info("browser connected",
		zap.Bool("remote", m.cfg.DebuggerURL != ""),
		zap.String("control_url", controlURL))
	return nil
}

// resolveRemote accepts either a ws:// DevTools URL or an http(s) endpoint
// that serves /json/version.
func resolveRemote(u string) (string, error) {
	if strings.HasPrefix(u, "ws://") || strings.HasPrefix(u, "wss://") {
		return u, nil
	}
	return launcher.ResolveURL(u)
}

func (m *Manager) newLauncher() *launcher.Launcher {
	l := launcher.New().Headless(m.cfg.Headless)
	if m.cfg.Headless {
		l = l.Set(flags.Headless, "new")
	}
	if m.cfg.Bin != "" {
		l = l.Bin(m.cfg.Bin)
	}
	if m.cfg.Display != "" {
		l = l.Env(append(os.Environ(), "DISPLAY="+m.cfg.Display)...)
	}
	for _, raw := range m.cfg.Flags {
		name, val, hasVal := strings.Cut(strings.TrimLeft(raw, "-"), "=")
		if hasVal {
			l = l.Set(flags.Flag(name), val)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}
	return l
}

// ensureStarted starts the browser, or re-establishes the connection when
// the previous one has gone away.
func (m *Manager) ensureStarted(ctx context.Context) error {
	return m.Start(ctx)
}

// ControlURL returns the WebSocket debugger URL.
func (m *Manager) ControlURL() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.controlURL
}

// IsConnected returns whether the browser is connected.
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.browser != nil
}

// list returns metadata for all open pages.
func (m *Manager) list() []PageInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]PageInfo, 0, len(m.pages))
	for _, p := range m.pages {
		out = append(out, p.info)
	}
	return out
}

// Open creates an isolated page and navigates it to url, waiting for load.
func (m *Manager) Open(ctx context.Context, url string) (*Page, error) {
	if err := m.ensureStarted(ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	b := m.browser
	m.mu.RUnlock()
	if b == nil {
		return nil, ErrNotConnected
	}

	incognito, err := b.Incognito()
	if err != nil {
		return nil, fmt.Errorf("incognito context: %w", err)
	}
	rp, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             m.cfg.GetViewportWidth(),
		Height:            m.cfg.GetViewportHeight(),
		DeviceScaleFactor: 1.0,
	}).Call(rp); err != nil {
		logging.Get(logging.CategoryBrowser).Debug("failed to set viewport", zap.Error(err))
	}

	nav := rp.Context(ctx).Timeout(m.cfg.GetNavigationTimeout())
	if err := nav.Navigate(url); err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := nav.WaitLoad(); err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("wait load %s: %w", url, err)
	}

	p := &Page{
		info: PageInfo{
			ID:        uuid.NewString(),
			TargetID:  string(rp.TargetID),
			URL:       url,
			CreatedAt: time.Now(),
		},
		page:    rp,
		context: incognito,
		mgr:     m,
	}
	m.mu.Lock()
	m.pages[p.info.ID] = p
	m.mu.Unlock()
	return p, nil
}

// Eval runs a JavaScript function expression, e.g. `() => document.title`,
// and returns its JSON value.
func (p *Page) Eval(ctx context.Context, js string) (gson.JSON, error) {
	res, err := p.page.Context(ctx).Eval(js)
	if err != nil {
		return gson.JSON{}, err
	}
	return res.Value, nil
}

// evalInto runs js and decodes the JSON result into out.
func (p *Page) evalInto(ctx context.Context, js string, out any) error {
	v, err := p.Eval(ctx, js)
	if err != nil {
		return err
	}
	raw, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// html returns the current document markup.
func (p *Page) html(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

// Close disposes the tab's browser context and forgets the page.
func (p *Page) Close() error {
	p.mgr.mu.Lock()
	delete(p.mgr.pages, p.info.ID)
	p.mgr.mu.Unlock()
	return p.context.Close()
}

// Shutdown closes tracked pages and the browser, killing it if it was
// launched locally.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := m.closeLocked()
	logging.Get(logging.CategoryBrowser).Debug("browser shut down")
	return err
}

func (m *Manager) closeLocked() error {
	for id, p := range m.pages {
		_ = p.context.Close()
		delete(m.pages, id)
	}
	var err error
	if m.browser != nil {
		// A remote browser is shared; only drop our connection.
		if m.launcher != nil {
			err = m.browser.Close()
		}
		m.browser = nil
	}
	if m.launcher != nil {
		m.launcher.Kill()
		m.launcher.Cleanup()
		m.launcher = nil
	}
	m.controlURL = ""
	return err
}
