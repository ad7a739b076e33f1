package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "lottawords.yaml"

// Config holds all LottaWords configuration.
type Config struct {
	// Env is the deployment environment; "production" switches logging to
	// JSON and enables remote syslog.
	Env string `yaml:"env" env:"APP_ENV"`
	// Timezone sets the process-local zone (TZ).
	Timezone string `yaml:"timezone" env:"TZ"`

	Server    ServerConfig    `yaml:"server"`
	Cache     CacheConfig     `yaml:"cache"`
	Browser   BrowserConfig   `yaml:"browser"`
	Scraper   ScraperConfig   `yaml:"scraper"`
	Solver    SolverConfig    `yaml:"solver"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host string `yaml:"host" env:"HOST"`
	Port int    `yaml:"port" env:"PORT"`
	// Workers caps concurrent puzzle refreshes started by requests.
	Workers        int      `yaml:"workers" env:"WORKERS"`
	RequestTimeout string   `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// CacheConfig selects and configures the puzzle cache.
type CacheConfig struct {
	Backend      string `yaml:"backend" env:"CACHE_BACKEND"` // redis, sqlite, memory
	RedisURL     string `yaml:"redis_url" env:"REDIS_URL"`
	Key          string `yaml:"key" env:"CACHE_KEY"`
	DatabasePath string `yaml:"database_path" env:"CACHE_DB"`
}

// BrowserConfig configures headless Chrome.
type BrowserConfig struct {
	// DebuggerURL points at a remote browser; when empty a local one is launched.
	DebuggerURL       string `yaml:"debugger_url" env:"BROWSER_URL"`
	Bin               string `yaml:"bin" env:"CHROME_BIN"`
	Headless          bool   `yaml:"headless" env:"BROWSER_HEADLESS"`
	Display           string `yaml:"display" env:"DISPLAY"`
	NavigationTimeout string `yaml:"navigation_timeout" env:"BROWSER_NAV_TIMEOUT"`
}

// ScraperConfig configures puzzle acquisition.
type ScraperConfig struct {
	URL         string `yaml:"url" env:"PUZZLE_URL"`
	Mode        string `yaml:"mode" env:"SCRAPER_MODE"` // browser, http, auto
	SettleDelay string `yaml:"settle_delay" env:"SCRAPER_SETTLE_DELAY"`
	Timeout     string `yaml:"timeout" env:"SCRAPER_TIMEOUT"`
}

// SolverConfig bounds the chain search.
type SolverConfig struct {
	MaxChain      int `yaml:"max_chain"`
	MaxIterations int `yaml:"max_iterations"`
	FirstBranch   int `yaml:"first_branch"`
	Branch        int `yaml:"branch"`
}

// ScheduleConfig configures the daily refresh.
type ScheduleConfig struct {
	Enabled bool   `yaml:"enabled" env:"SCHEDULE_ENABLED"`
	Hour    int    `yaml:"hour"`
	Minute  int    `yaml:"minute"`
	Zone    string `yaml:"zone"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"` // debug, info, warn, error
	SyslogHost string `yaml:"syslog_host" env:"PAPERTRAIL_HOST"`
	SyslogPort string `yaml:"syslog_port" env:"PAPERTRAIL_PORT"`
}

// TelemetryConfig configures tracing export.
type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint" env:"OTEL_ENDPOINT"`
	ServiceName string `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Env: "development",

		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8000,
			Workers:        1,
			RequestTimeout: "120s",
			AllowedOrigins: []string{
				"lottawords.vercel.app",
				"lottawords-frontend.vercel.app",
				"web-production-2361.up.railway.app",
			},
		},

		Cache: CacheConfig{
			Backend:      "redis",
			RedisURL:     "redis://localhost:6379",
			Key:          "puzzle_data",
			DatabasePath: "data/lottawords.db",
		},

		Browser: BrowserConfig{
			Headless:          true,
			NavigationTimeout: "30s",
		},

		Scraper: ScraperConfig{
			URL:         "https://www.nytimes.com/puzzles/letter-boxed",
			Mode:        "auto",
			SettleDelay: "3s",
			Timeout:     "90s",
		},

		Solver: SolverConfig{
			MaxChain:      5,
			MaxIterations: 100000,
			FirstBranch:   25,
			Branch:        15,
		},

		Schedule: ScheduleConfig{
			Enabled: true,
			Hour:    3,
			Minute:  5,
			Zone:    "America/New_York",
		},

		Logging: LoggingConfig{
			Level: "INFO",
		},

		Telemetry: TelemetryConfig{
			ServiceName: "lottawords",
		},
	}
}

// Load loads configuration from a YAML file, then applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	// Names used by older deployments. SELENIUM_URL must name a DevTools
	// endpoint; a WebDriver hub is not understood by rod.
	if c.Browser.DebuggerURL == "" {
		c.Browser.DebuggerURL = os.Getenv("SELENIUM_URL")
	}
	if os.Getenv("APP_ENV") == "" {
		if v := os.Getenv("FLASK_ENV"); v != "" {
			c.Env = v
		}
	}
	return nil
}

var (
	validBackends = []string{"redis", "sqlite", "memory"}
	validModes    = []string{"browser", "http", "auto"}
)

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.Workers < 1 {
		return fmt.Errorf("invalid worker count: %d", c.Server.Workers)
	}
	if !contains(validBackends, c.Cache.Backend) {
		return fmt.Errorf("invalid cache backend: %s (valid: %v)", c.Cache.Backend, validBackends)
	}
	if !contains(validModes, c.Scraper.Mode) {
		return fmt.Errorf("invalid scraper mode: %s (valid: %v)", c.Scraper.Mode, validModes)
	}
	if c.Schedule.Hour < 0 || c.Schedule.Hour > 23 || c.Schedule.Minute < 0 || c.Schedule.Minute > 59 {
		return fmt.Errorf("invalid schedule time: %02d:%02d", c.Schedule.Hour, c.Schedule.Minute)
	}
	if _, err := time.LoadLocation(c.Schedule.Zone); err != nil {
		return fmt.Errorf("invalid schedule zone %q: %w", c.Schedule.Zone, err)
	}
	if (c.Logging.SyslogHost == "") != (c.Logging.SyslogPort == "") {
		return errors.New("PAPERTRAIL_HOST and PAPERTRAIL_PORT must be set together")
	}
	if c.Logging.SyslogPort != "" {
		if _, err := strconv.Atoi(c.Logging.SyslogPort); err != nil {
			return fmt.Errorf("invalid syslog port %q: %w", c.Logging.SyslogPort, err)
		}
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// SyslogAddr returns host:port of the remote syslog collector, or "".
func (c *Config) SyslogAddr() string {
	if c.Logging.SyslogHost == "" || c.Logging.SyslogPort == "" {
		return ""
	}
	return net.JoinHostPort(c.Logging.SyslogHost, c.Logging.SyslogPort)
}

// GetRequestTimeout returns the per-request timeout as a duration.
func (c *Config) GetRequestTimeout() time.Duration {
	return parseDuration(c.Server.RequestTimeout, 120*time.Second)
}

// GetNavigationTimeout returns the browser navigation timeout as a duration.
func (c *Config) GetNavigationTimeout() time.Duration {
	return parseDuration(c.Browser.NavigationTimeout, 30*time.Second)
}

// GetSettleDelay returns how long the scraper waits after page load.
func (c *Config) GetSettleDelay() time.Duration {
	return parseDuration(c.Scraper.SettleDelay, 3*time.Second)
}

// GetScraperTimeout returns the overall budget for one scrape.
func (c *Config) GetScraperTimeout() time.Duration {
	return parseDuration(c.Scraper.Timeout, 90*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
