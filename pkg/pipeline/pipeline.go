// Package pipeline runs fannkuch computations behind a result cache.
//
// The engine in pkg/fannkuch is pure: it takes n and returns a result. This
// package adds what the CLI and any other entry point share: option
// validation and defaults, cache-through lookup, run identifiers, logging
// and the caller-side cancellation check. Centralizing it here keeps the
// behavior the same no matter who drives the engine.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Compute(ctx, pipeline.Options{N: 12})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Format())
//
// Inspect the block partition without computing:
//
//	plan, err := runner.Plan(pipeline.Options{N: 12, BlockCount: 7})
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	perrors "github.com/matzehuels/pfannkuchen/pkg/errors"
	"github.com/matzehuels/pfannkuchen/pkg/fannkuch"
	"github.com/matzehuels/pfannkuchen/pkg/observability"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Library Callers
// =============================================================================

const (
	// DefaultN is the permutation size used when the caller gives none.
	DefaultN = 12

	// DefaultBlockCount is the preferred block count hint.
	DefaultBlockCount = fannkuch.DefaultBlockCount

	// resultVersion is bumped whenever the cached encoding changes.
	resultVersion = 1
)

// Format constants for result output.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatText: true,
	FormatJSON: true,
}

// =============================================================================
// Options - Run Configuration
// =============================================================================

// Options configures a single computation.
//
// N has no implicit default because 0 is a valid size; entry points that
// accept an absent n substitute DefaultN themselves.
type Options struct {
	N          int  `json:"n"`
	BlockCount int  `json:"block_count,omitempty"`
	Workers    int  `json:"workers,omitempty"`
	Refresh    bool `json:"refresh,omitempty"`  // Recompute and overwrite the cached result
	Detailed   bool `json:"detailed,omitempty"` // Keep per-block partials; bypasses the cache read

	// Runtime options (not serialized)
	Logger *log.Logger                `json:"-"`
	Hooks  observability.ComputeHooks `json:"-"` // Engine events; nil means the global hooks

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result is the outcome of one Compute call.
type Result struct {
	N int `json:"n"`
	fannkuch.Result

	// RunID identifies this call in logs. A cache hit gets a fresh RunID;
	// SourceRunID names the run that originally computed the value.
	RunID       string `json:"run_id"`
	SourceRunID string `json:"source_run_id,omitempty"`

	// Blocks holds per-block partials when Options.Detailed is set.
	Blocks []fannkuch.Partial `json:"blocks,omitempty"`

	CacheHit bool          `json:"cache_hit"`
	Duration time.Duration `json:"duration_ns"`
}

// Format renders the result as the classic two-line report.
func (r *Result) Format() string {
	return fmt.Sprintf("%d\nPfannkuchen(%d) = %d", r.Checksum, r.N, r.MaxFlips)
}

// Verification compares the engine against the serial reference.
type Verification struct {
	N         int             `json:"n"`
	Engine    fannkuch.Result `json:"engine"`
	Reference fannkuch.Result `json:"reference"`
}

// Match reports whether both computations agree.
func (v *Verification) Match() bool {
	return v.Engine == v.Reference
}

// cachedResult is the payload stored in the result cache.
type cachedResult struct {
	N          int             `json:"n"`
	Result     fannkuch.Result `json:"result"`
	RunID      string          `json:"run_id"`
	ComputedAt time.Time       `json:"computed_at"`
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that an output format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return perrors.New(perrors.ErrCodeInvalidInput, "invalid format: %q (must be one of: text, json)", format)
	}
	return nil
}

// ValidateAndSetDefaults checks every field and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := perrors.ValidateSize(o.N, fannkuch.MaxN); err != nil {
		return err
	}
	if err := o.ValidateForPlan(); err != nil {
		return err
	}
	if err := perrors.ValidateWorkers(o.Workers); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ValidateForPlan checks the fields that shape a block plan.
func (o *Options) ValidateForPlan() error {
	if err := perrors.ValidateBlockCount(o.BlockCount); err != nil {
		return err
	}
	if o.BlockCount > fannkuch.MaxBlockCount {
		return perrors.New(perrors.ErrCodeInvalidBlockCount, "block count too large (max %d)", fannkuch.MaxBlockCount)
	}
	if o.BlockCount == 0 {
		o.BlockCount = DefaultBlockCount
	}
	return nil
}

// Engine returns an engine configured from the options.
func (o *Options) Engine() *fannkuch.Engine {
	return &fannkuch.Engine{BlockCount: o.BlockCount, Workers: o.Workers, Hooks: o.Hooks}
}

// computeHooks returns the configured hooks or the global ones.
func (o *Options) computeHooks() observability.ComputeHooks {
	if o.Hooks != nil {
		return o.Hooks
	}
	return observability.Compute()
}
