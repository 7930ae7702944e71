package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pfannkuchen/pkg/cache"
	"github.com/matzehuels/pfannkuchen/pkg/fannkuch"
	"github.com/matzehuels/pfannkuchen/pkg/pipeline"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the result cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached results",
		Long: `Clear all cached results from the configured backend.

The file backend removes every entry under the cache directory. Redis and
MongoDB backends, and any backend with cache.key_prefix set, delete the
result key of every supported n under that prefix and leave other data
alone.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openCache(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer store.Close()

			if fc, ok := store.(*cache.FileCache); ok && c.Config.Cache.KeyPrefix == "" {
				return clearFileCache(fc.Dir())
			}

			count, err := clearResults(cmd.Context(), store, c.Config.Cache.keyer())
			if err != nil {
				return err
			}
			printSuccess("Cleared %d result keys", count)
			printDetail("Backend: %s", c.Config.Cache.Backend)
			if prefix := c.Config.Cache.KeyPrefix; prefix != "" {
				printDetail("Prefix: %s", prefix)
			}
			return nil
		},
	}
}

// clearResults deletes the result key of every n below fannkuch.MaxN.
func clearResults(ctx context.Context, store cache.Cache, keyer cache.Keyer) (int, error) {
	count := 0
	for n := range fannkuch.MaxN {
		key := pipeline.ResultKey(keyer, n)
		if err := store.Delete(ctx, key); err != nil {
			return count, fmt.Errorf("delete %s: %w", key, err)
		}
		count++
	}
	return count, nil
}

// clearFileCache removes every entry under dir.
func clearFileCache(dir string) error {
	count := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors, continue walking
		}
		if path == dir {
			return nil
		}
		if !info.IsDir() {
			if err := os.Remove(path); err == nil {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Clean up empty subdirectories
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || path == dir {
			return nil
		}
		if info.IsDir() {
			os.Remove(path)
		}
		return nil
	})

	if count == 0 {
		printInfo("Cache is empty")
		return nil
	}
	printSuccess("Cleared %d cached entries", count)
	printDetail("Directory: %s", dir)
	return nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(stdout, dir)
			if c.Config.Cache.Backend != cache.BackendFile {
				printDetail("the %s backend is active; this directory is unused", c.Config.Cache.Backend)
			}
			return nil
		},
	}
}
