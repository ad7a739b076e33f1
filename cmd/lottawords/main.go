package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lottawords/internal/config"
	"lottawords/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Loaded in PersistentPreRunE
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "lottawords",
	Short: "LottaWords - shortest solutions to the daily Letter Boxed",
	Long: `LottaWords fetches the daily NYT Letter Boxed puzzle, finds the shortest
word chain that uses every letter, and serves both its answer and the
published one over a small JSON API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			loaded.Logging.Level = "debug"
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = loaded

		if cfg.Timezone != "" {
			loc, err := time.LoadLocation(cfg.Timezone)
			if err != nil {
				return fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
			}
			time.Local = loc
		}

		if err := logging.Initialize(logging.Config{
			Level:      cfg.Logging.Level,
			Production: cfg.IsProduction(),
			SyslogAddr: cfg.SyslogAddr(),
		}); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.Get(logging.CategoryBoot).Debug("configuration loaded",
			zap.String("path", configPath),
			zap.String("env", cfg.Env),
			zap.String("cache", cfg.Cache.Backend),
			zap.String("scraper", cfg.Scraper.Mode))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

// serveCmd runs the API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the puzzle API and refresh it daily",
	Long: `Starts the HTTP API on HOST:PORT. On startup the cache is warmed if it
does not hold today's puzzle, and a job refreshes it every day at 03:05
US/Eastern, just after the NYT publishes a new square.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// solveCmd solves a square offline
var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a square against a local word list",
	Long: `Solves a square given on the command line using a newline-delimited word
list instead of the NYT dictionary.

Example:
  lottawords solve --square top:ABC,right:DEF,bottom:GHI,left:JKL --wordlist words_alpha.txt`,
	Args: cobra.NoArgs,
	RunE: runSolve,
}

// fetchCmd scrapes and solves once
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and solve today's puzzle once, printing JSON",
	Args:  cobra.NoArgs,
	RunE:  runFetch,
}

var (
	squareFlag   string
	wordlistFlag string
	fetchTimeout time.Duration
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to YAML config file")

	solveCmd.Flags().StringVar(&squareFlag, "square", "", "Square format: top:ABC,right:DEF,bottom:GHI,left:JKL")
	solveCmd.Flags().StringVar(&wordlistFlag, "wordlist", "words_alpha.txt", "Path to word list file")
	_ = solveCmd.MarkFlagRequired("square")

	fetchCmd.Flags().DurationVar(&fetchTimeout, "timeout", 2*time.Minute, "Overall fetch timeout")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(fetchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
