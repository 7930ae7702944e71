package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/pfannkuchen/pkg/cache"
	"github.com/matzehuels/pfannkuchen/pkg/fannkuch"
	"github.com/matzehuels/pfannkuchen/pkg/observability"
)

// Runner encapsulates computation with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is how long stored results live. Zero means cache.TTLResult.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Compute returns the result for opts.N, reading and filling the cache.
//
// The engine cannot be interrupted once started. ctx is checked before the
// engine runs, and a result that arrives after ctx is done is discarded and
// ctx.Err() returned instead.
func (r *Runner) Compute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		opts.computeHooks().OnComputeRejected(ctx, opts.N, err)
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	runID := uuid.NewString()
	logger := opts.Logger.With("run", runID[:8])
	start := time.Now()
	key := ResultKey(r.Keyer, opts.N)

	if !opts.Refresh && !opts.Detailed {
		if cached, ok := r.lookup(ctx, logger, key); ok {
			res := &Result{
				N:           cached.N,
				Result:      cached.Result,
				RunID:       runID,
				SourceRunID: cached.RunID,
				CacheHit:    true,
				Duration:    time.Since(start),
			}
			logger.Info("cache hit", "n", res.N, "computed_at", cached.ComputedAt.Format(time.RFC3339))
			return res, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug("computing", "n", opts.N, "blocks", opts.BlockCount, "workers", opts.Workers)
	res := &Result{N: opts.N, RunID: runID}
	engine := opts.Engine()
	if opts.Detailed {
		partials, err := engine.RunDetailed(ctx, opts.N)
		if err != nil {
			return nil, fmt.Errorf("compute: %w", err)
		}
		res.Blocks = partials
		res.Result = fannkuch.Reduce(partials)
	} else {
		out, err := engine.Run(ctx, opts.N)
		if err != nil {
			return nil, fmt.Errorf("compute: %w", err)
		}
		res.Result = out
	}
	res.Duration = time.Since(start)

	if err := ctx.Err(); err != nil {
		logger.Debug("discarding result of cancelled run", "n", opts.N)
		return nil, err
	}

	logger.Info("computed",
		"n", res.N,
		"checksum", res.Checksum,
		"max_flips", res.MaxFlips,
		"duration", res.Duration)

	r.store(ctx, logger, key, cachedResult{
		N:          res.N,
		Result:     res.Result,
		RunID:      runID,
		ComputedAt: time.Now().UTC(),
	})
	return res, nil
}

// ResultKey returns the cache key under which Compute stores the result
// for n.
func ResultKey(k cache.Keyer, n int) string {
	return k.ResultKey(n, cache.ResultKeyOpts{Version: resultVersion})
}

// Plan returns the block partition the engine would use for opts.
func (r *Runner) Plan(opts Options) (*fannkuch.Plan, error) {
	if err := opts.ValidateForPlan(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	plan, err := fannkuch.PlanBlocks(opts.N, opts.BlockCount)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// Verify computes opts.N with both the engine and the serial reference.
// The cache is not consulted; the point is to exercise the engine.
func (r *Runner) Verify(ctx context.Context, opts Options) (*Verification, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		opts.computeHooks().OnComputeRejected(ctx, opts.N, err)
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	got, err := opts.Engine().Run(ctx, opts.N)
	if err != nil {
		return nil, fmt.Errorf("compute: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want, err := fannkuch.Naive(opts.N)
	if err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}

	v := &Verification{N: opts.N, Engine: got, Reference: want}
	if v.Match() {
		opts.Logger.Info("verified", "n", opts.N, "checksum", got.Checksum, "max_flips", got.MaxFlips)
	} else {
		opts.Logger.Error("engine disagrees with reference", "n", opts.N, "engine", got, "reference", want)
	}
	return v, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// lookup reads a cached result. Backend failures and undecodable entries
// are logged and treated as misses.
func (r *Runner) lookup(ctx context.Context, logger *log.Logger, key string) (cachedResult, bool) {
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("cache read failed", "err", err)
		return cachedResult{}, false
	}
	if !hit {
		hooks.OnCacheMiss(ctx, cache.KeyTypeResult)
		return cachedResult{}, false
	}

	var cached cachedResult
	if err := json.Unmarshal(data, &cached); err != nil {
		logger.Warn("discarding undecodable cache entry", "err", err)
		hooks.OnCacheMiss(ctx, cache.KeyTypeResult)
		return cachedResult{}, false
	}
	hooks.OnCacheHit(ctx, cache.KeyTypeResult)
	return cached, true
}

// store writes a result to the cache. A failed write only costs a future
// recomputation, so it is logged and otherwise ignored.
func (r *Runner) store(ctx context.Context, logger *log.Logger, key string, entry cachedResult) {
	data, err := json.Marshal(entry)
	if err != nil {
		logger.Warn("encode cache entry", "err", err)
		return
	}
	ttl := r.TTL
	if ttl == 0 {
		ttl = cache.TTLResult
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		logger.Warn("cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, cache.KeyTypeResult, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
