package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pfannkuchen/pkg/buildinfo"
	"github.com/matzehuels/pfannkuchen/pkg/cache"
	perrors "github.com/matzehuels/pfannkuchen/pkg/errors"
	"github.com/matzehuels/pfannkuchen/pkg/observability"
	"github.com/matzehuels/pfannkuchen/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "pfannkuchen"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any subcommand runs.
	Config Config

	configFile  string
	metricsFile string
	metrics     *observability.PrometheusHooks
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: defaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Pfannkuchen computes fannkuch-redux in parallel",
		Long: `Pfannkuchen computes the fannkuch-redux benchmark: for every permutation of
0..n-1 it counts the prefix reversals needed to bring 0 to the front, and
reports a parity-weighted checksum and the maximum flip count. The
permutation space is split into blocks that run in parallel.`,
		Version:            buildinfo.Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default $XDG_CONFIG_HOME/pfannkuchen/config.toml)")
	root.PersistentFlags().StringVar(&c.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")

	// Register all subcommands
	root.AddCommand(c.computeCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the config, registers metrics hooks and attaches the logger
// to the command context.
func (c *CLI) setup(cmd *cobra.Command, args []string) error {
	path, err := c.configPath()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(path, os.Getenv)
	if err != nil {
		return err
	}
	if c.metricsFile != "" {
		cfg.MetricsFile = c.metricsFile
	}
	c.Config = cfg
	c.Logger.Debug("loaded config", "path", path, "backend", cfg.Cache.Backend)

	if cfg.MetricsFile != "" {
		c.metrics = observability.NewPrometheusHooks()
		observability.SetComputeHooks(c.metrics)
		observability.SetCacheHooks(c.metrics)
	}

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// FlushMetrics writes the metrics textfile when one is configured. Call it
// after the root command returns, including when it returned an error, so
// rejected and failed runs are exported too.
func (c *CLI) FlushMetrics() error {
	if c.metrics == nil {
		return nil
	}
	if err := c.metrics.WriteTextfile(c.Config.MetricsFile); err != nil {
		return perrors.Wrap(perrors.ErrCodeInternal, err, "write metrics to %s", c.Config.MetricsFile)
	}
	c.Logger.Debug("wrote metrics", "path", c.Config.MetricsFile)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	store, err := c.openCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(store, c.Config.Cache.keyer(), c.Logger)
	runner.TTL, _ = c.Config.Cache.ttl()
	return runner, nil
}

// openCache opens the configured cache backend. A remote backend that
// cannot be reached is an error rather than a silent fallback, since the
// user asked for it by name.
func (c *CLI) openCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	cfg := cache.Config{
		Backend: c.Config.Cache.Backend,
		Redis: cache.RedisConfig{
			Addr: c.Config.Cache.RedisAddr,
			DB:   c.Config.Cache.RedisDB,
		},
		Mongo: cache.MongoConfig{
			URI:      c.Config.Cache.MongoURI,
			Database: c.Config.Cache.MongoDatabase,
		},
	}
	if cfg.Backend == cache.BackendFile || cfg.Backend == "" {
		dir, err := cacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		cfg.Dir = dir
	}

	store, err := cache.Open(ctx, cfg)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeCacheUnavailable, err, "open %s cache", cfg.Backend)
	}
	return store, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/pfannkuchen/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the config directory using XDG standard (~/.config/pfannkuchen/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// configPath returns the --config flag value or the default config file.
func (c *CLI) configPath() (string, error) {
	if c.configFile != "" {
		return c.configFile, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// Errors
// =============================================================================

// PrintError reports err to the user without the error code prefix.
// Internal defects keep the full chain, since they are bug reports.
func PrintError(err error) {
	var e *perrors.Error
	switch {
	case perrors.IsInternal(err):
		printError("%v", err)
	case errors.As(err, &e) && e.Cause != nil:
		printError("%s: %v", e.Message, e.Cause)
	default:
		printError("%s", perrors.UserMessage(err))
	}
}
