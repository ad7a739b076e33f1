// Package logging provides categorized zap loggers for LottaWords.
// Every subsystem logs through Get(category) so output can be filtered by the
// "logger" field. The level is shared and can be changed at runtime.
package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot     Category = "boot"     // Startup, config, shutdown
	CategoryHTTP     Category = "http"     // API requests
	CategoryScraper  Category = "scraper"  // Puzzle acquisition
	CategoryBrowser  Category = "browser"  // Headless Chrome lifecycle
	CategorySolver   Category = "solver"   // Chain search
	CategoryStore    Category = "store"    // Cache backends
	CategorySchedule Category = "schedule" // Daily refresh job
	CategoryService  Category = "service"  // Refresh orchestration
)

// Config controls logger construction.
type Config struct {
	Level      string // debug, info, warn, error
	Production bool   // JSON encoding when true
	// SyslogAddr ships a copy of every entry to a remote syslog collector
	// (host:port) when set. Only honoured in production.
	SyslogAddr string
	AppName    string
}

var (
	mu     sync.RWMutex
	root   = zap.NewNop()
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	closer func() error
)

// ParseLevel maps a level name to a zap level. Unknown names map to info.
func ParseLevel(name string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "critical", "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Initialize builds the root logger. It is safe to call more than once; the
// previous logger is flushed and replaced.
func Initialize(cfg Config) error {
	level.SetLevel(ParseLevel(cfg.Level))

	var encCfg zapcore.EncoderConfig
	var enc zapcore.Encoder
	if cfg.Production {
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg = zap.NewDevelopmentEncoderConfig()
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level),
	}

	var syslogClose func() error
	if cfg.Production && cfg.SyslogAddr != "" {
		ws, closeFn, err := dialSyslog(cfg.SyslogAddr, appName(cfg))
		if err != nil {
			return fmt.Errorf("dial syslog %s: %w", cfg.SyslogAddr, err)
		}
		cores = append(cores, zapcore.NewCore(enc.Clone(), ws, level))
		syslogClose = closeFn
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Named(appName(cfg))

	mu.Lock()
	prev, prevClose := root, closer
	root = logger
	closer = syslogClose
	mu.Unlock()

	_ = prev.Sync()
	if prevClose != nil {
		_ = prevClose()
	}
	return nil
}

// Use installs an existing logger as the root, mainly for tests.
func Use(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		l = zap.NewNop()
	}
	root = l
}

// L returns the root logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// Get returns the logger for a category.
func Get(category Category) *zap.Logger {
	return L().Named(string(category))
}

// SetLevel changes the level of every logger built by Initialize.
func SetLevel(name string) {
	level.SetLevel(ParseLevel(name))
}

// Level returns the current level.
func Level() zapcore.Level {
	return level.Level()
}

// Sync flushes buffered entries and closes the syslog connection.
func Sync() {
	mu.Lock()
	l, c := root, closer
	closer = nil
	mu.Unlock()
	_ = l.Sync()
	if c != nil {
		_ = c()
	}
}

func appName(cfg Config) string {
	if cfg.AppName == "" {
		return "lottawords"
	}
	return cfg.AppName
}

// Timer measures an operation and logs its duration when stopped.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer starts timing op under the given category.
func StartTimer(category Category, op string) *Timer {
	return &Timer{category: category, op: op, start: time.Now()}
}

// Stop logs the elapsed time at debug level and returns it.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("timing", zap.String("op", t.op), zap.Duration("elapsed", elapsed))
	return elapsed
}
