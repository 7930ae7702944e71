package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/pfannkuchen/pkg/cache"
	perrors "github.com/matzehuels/pfannkuchen/pkg/errors"
)

func noEnv(string) string { return "" }

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.toml"), noEnv)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg != defaultConfig() {
		t.Errorf("loadConfig() = %+v, want defaults", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
block_count = 24
workers = 4
metrics_file = "/tmp/pfannkuchen.prom"

[cache]
backend = "Redis"
ttl = "1h"
redis_addr = "cache:6379"
redis_db = 2
`)

	cfg, err := loadConfig(path, noEnv)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.BlockCount != 24 || cfg.Workers != 4 {
		t.Errorf("BlockCount, Workers = %d, %d; want 24, 4", cfg.BlockCount, cfg.Workers)
	}
	if cfg.MetricsFile != "/tmp/pfannkuchen.prom" {
		t.Errorf("MetricsFile = %q", cfg.MetricsFile)
	}
	if cfg.Cache.Backend != cache.BackendRedis {
		t.Errorf("Backend = %q, want %q", cfg.Cache.Backend, cache.BackendRedis)
	}
	if cfg.Cache.RedisAddr != "cache:6379" || cfg.Cache.RedisDB != 2 {
		t.Errorf("redis = %s/%d, want cache:6379/2", cfg.Cache.RedisAddr, cfg.Cache.RedisDB)
	}
	if ttl, _ := cfg.Cache.ttl(); ttl != time.Hour {
		t.Errorf("ttl = %v, want 1h", ttl)
	}
	// Keys absent from the file keep their defaults
	if cfg.Cache.MongoDatabase != appName {
		t.Errorf("MongoDatabase = %q, want %q", cfg.Cache.MongoDatabase, appName)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[cache]
backend = "file"
redis_addr = "file-value:6379"
`)
	env := map[string]string{
		envCacheBackend: "mongo",
		envRedisAddr:    "env-value:6379",
		envMongoURI:     "mongodb://db:27017",
		envKeyPrefix:    "ci:",
	}

	cfg, err := loadConfig(path, func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Cache.Backend != cache.BackendMongo {
		t.Errorf("Backend = %q, want mongo", cfg.Cache.Backend)
	}
	if cfg.Cache.RedisAddr != "env-value:6379" {
		t.Errorf("RedisAddr = %q, want env-value:6379", cfg.Cache.RedisAddr)
	}
	if cfg.Cache.MongoURI != "mongodb://db:27017" {
		t.Errorf("MongoURI = %q", cfg.Cache.MongoURI)
	}
	if cfg.Cache.KeyPrefix != "ci:" {
		t.Errorf("KeyPrefix = %q, want ci:", cfg.Cache.KeyPrefix)
	}
}

func TestLoadConfigKeyPrefix(t *testing.T) {
	path := writeConfig(t, "[cache]\nbackend = \"redis\"\nkey_prefix = \"staging:\"\n")

	cfg, err := loadConfig(path, noEnv)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Cache.KeyPrefix != "staging:" {
		t.Fatalf("KeyPrefix = %q, want staging:", cfg.Cache.KeyPrefix)
	}

	plain := cache.NewDefaultKeyer().ResultKey(7, cache.ResultKeyOpts{})
	if got := cfg.Cache.keyer().ResultKey(7, cache.ResultKeyOpts{}); got != "staging:"+plain {
		t.Errorf("keyer().ResultKey(7) = %q, want %q", got, "staging:"+plain)
	}
	if got := defaultConfig().Cache.keyer().ResultKey(7, cache.ResultKeyOpts{}); got != plain {
		t.Errorf("default keyer().ResultKey(7) = %q, want %q", got, plain)
	}
}

func TestConfigCommandShowsKeyPrefix(t *testing.T) {
	path := writeConfig(t, "[cache]\nkey_prefix = \"staging:\"\n")
	out, err := runCLI(t, "--config", path, "config")
	if err != nil {
		t.Fatalf("config error: %v", err)
	}
	if !strings.Contains(out, `key_prefix = "staging:"`) {
		t.Errorf("config output missing key_prefix:\n%s", out)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", `block_count = `},
		{"unknown key", `blocks = 3`},
		{"negative block count", `block_count = -1`},
		{"negative workers", `workers = -2`},
		{"unknown backend", "[cache]\nbackend = \"memcached\""},
		{"bad ttl", "[cache]\nttl = \"soon\""},
		{"negative ttl", "[cache]\nttl = \"-1h\""},
		{"zero ttl", "[cache]\nttl = \"0s\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.content), noEnv)
			if !perrors.Is(err, perrors.ErrCodeInvalidConfig) {
				t.Errorf("loadConfig() error = %v, want %s", err, perrors.ErrCodeInvalidConfig)
			}
		})
	}
}
