package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pfannkuchen/pkg/cache"
	perrors "github.com/matzehuels/pfannkuchen/pkg/errors"
	"github.com/matzehuels/pfannkuchen/pkg/fannkuch"
)

// Environment variables that override the config file.
const (
	envCacheBackend = "PFANNKUCHEN_CACHE_BACKEND"
	envRedisAddr    = "PFANNKUCHEN_REDIS_ADDR"
	envMongoURI     = "PFANNKUCHEN_MONGO_URI"
	envKeyPrefix    = "PFANNKUCHEN_CACHE_KEY_PREFIX"
)

// Config is the on-disk configuration. Command-line flags override it.
type Config struct {
	BlockCount  int         `toml:"block_count"`
	Workers     int         `toml:"workers"`
	MetricsFile string      `toml:"metrics_file"`
	Cache       CacheConfig `toml:"cache"`
}

// CacheConfig selects and configures the result cache backend.
type CacheConfig struct {
	Backend       string `toml:"backend"`
	TTL           string `toml:"ttl"`
	KeyPrefix     string `toml:"key_prefix"`
	RedisAddr     string `toml:"redis_addr"`
	RedisDB       int    `toml:"redis_db"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// defaultConfig returns the configuration used when no file exists.
func defaultConfig() Config {
	return Config{
		BlockCount: fannkuch.DefaultBlockCount,
		Cache: CacheConfig{
			Backend:       cache.BackendFile,
			TTL:           cache.TTLResult.String(),
			RedisAddr:     "localhost:6379",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: appName,
		},
	}
}

// loadConfig reads path over the defaults and applies environment
// overrides. A missing file is not an error. Unknown keys are, so that a
// typo does not silently fall back to a default.
func loadConfig(path string, getenv func(string) string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "read %s", path)
		default:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				keys := make([]string, len(undecoded))
				for i, k := range undecoded {
					keys[i] = k.String()
				}
				return Config{}, perrors.New(perrors.ErrCodeInvalidConfig,
					"%s: unknown keys: %s", path, strings.Join(keys, ", "))
			}
		}
	}

	if v := getenv(envCacheBackend); v != "" {
		cfg.Cache.Backend = v
	}
	if v := getenv(envRedisAddr); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := getenv(envMongoURI); v != "" {
		cfg.Cache.MongoURI = v
	}
	if v := getenv(envKeyPrefix); v != "" {
		cfg.Cache.KeyPrefix = v
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate checks values that flags cannot fix later.
func (c *Config) validate() error {
	if err := perrors.ValidateBlockCount(c.BlockCount); err != nil {
		return perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "block_count")
	}
	if err := perrors.ValidateWorkers(c.Workers); err != nil {
		return perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "workers")
	}
	c.Cache.Backend = strings.ToLower(c.Cache.Backend)
	if !slices.Contains(cache.Backends, c.Cache.Backend) {
		return perrors.New(perrors.ErrCodeInvalidConfig,
			"cache.backend %q must be one of: %s", c.Cache.Backend, strings.Join(cache.Backends, ", "))
	}
	if _, err := c.Cache.ttl(); err != nil {
		return perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "cache.ttl")
	}
	return nil
}

// ttl parses the configured TTL. An empty value means the default.
func (c CacheConfig) ttl() (time.Duration, error) {
	if c.TTL == "" {
		return cache.TTLResult, nil
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}

// keyer returns the cache keyer for the configured prefix. Deployments that
// share a Redis or Mongo backend use distinct prefixes to stay apart.
func (c CacheConfig) keyer() cache.Keyer {
	if c.KeyPrefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, c.KeyPrefix)
}

// configCommand creates the config inspection command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Print the configuration after defaults, the config file and environment
overrides have been applied, in the same TOML format the config file uses.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return toml.NewEncoder(stdout).Encode(c.Config)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.configPath()
			if err != nil {
				return fmt.Errorf("get config path: %w", err)
			}
			fmt.Fprintln(stdout, path)
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				printDetail("file does not exist; defaults are in effect")
			}
			return nil
		},
	})

	return cmd
}
