package fannkuch

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	perrors "github.com/matzehuels/pfannkuchen/pkg/errors"
	"github.com/matzehuels/pfannkuchen/pkg/observability"
)

// Result is the aggregate over a whole permutation space, or over one block
// of it when held in a Partial.
type Result struct {
	Checksum int64 `json:"checksum"`
	MaxFlips int   `json:"max_flips"`
}

// Combine folds two results with (sum, max).
func (r Result) Combine(o Result) Result {
	return Result{
		Checksum: r.Checksum + o.Checksum,
		MaxFlips: max(r.MaxFlips, o.MaxFlips),
	}
}

// Partial is the result of a single block.
type Partial struct {
	Block  Block  `json:"block"`
	Result Result `json:"result"`
}

// Reduce combines partial results. The fold is commutative and associative,
// so the order of partials does not matter.
func Reduce(partials []Partial) Result {
	var r Result
	for _, p := range partials {
		r = r.Combine(p.Result)
	}
	return r
}

// Engine runs the block-parallel computation.
//
// The zero value is ready to use: DefaultBlockCount blocks, GOMAXPROCS
// workers and the globally registered observability hooks. An Engine holds
// no state between runs and may be shared.
type Engine struct {
	// BlockCount is the preferred number of blocks. It is a parallelism hint;
	// see PlanBlocks for how it is applied.
	BlockCount int

	// Workers caps how many blocks run at once. Zero means GOMAXPROCS.
	Workers int

	// Hooks receives compute events. Nil means observability.Compute().
	Hooks observability.ComputeHooks
}

// Compute returns the checksum and maximum flip count for size n using a
// default Engine.
func Compute(n int) (Result, error) {
	var e Engine
	return e.Run(context.Background(), n)
}

// Run computes the result for size n.
//
// Invalid sizes are rejected before any work is dispatched. Once blocks are
// running the computation is not interruptible: ctx only carries values to
// the hooks, and cancelling it has no effect on an active run.
func (e *Engine) Run(ctx context.Context, n int) (Result, error) {
	partials, err := e.RunDetailed(ctx, n)
	if err != nil {
		return Result{}, err
	}
	return Reduce(partials), nil
}

// RunDetailed is like Run but returns the per-block partial results, in
// block order.
func (e *Engine) RunDetailed(ctx context.Context, n int) ([]Partial, error) {
	hooks := e.hooks()
	if err := perrors.ValidateSize(n, MaxN); err != nil {
		hooks.OnComputeRejected(ctx, n, err)
		return nil, err
	}
	plan, err := PlanBlocks(n, e.BlockCount)
	if err != nil {
		hooks.OnComputeRejected(ctx, n, err)
		return nil, err
	}
	return e.RunPlan(ctx, plan)
}

// RunPlan computes every block of an existing plan and returns the partial
// results in block order. The plan is verified first; a plan that does not
// tile its space exactly aborts with BLOCK_COVERAGE before any block runs.
func (e *Engine) RunPlan(ctx context.Context, plan Plan) ([]Partial, error) {
	hooks := e.hooks()
	if err := perrors.ValidateSize(plan.N, MaxN); err != nil {
		hooks.OnComputeRejected(ctx, plan.N, err)
		return nil, err
	}
	if err := plan.Verify(); err != nil {
		hooks.OnComputeRejected(ctx, plan.N, err)
		return nil, err
	}
	hooks.OnComputeStart(ctx, plan.N, len(plan.Blocks))
	start := time.Now()

	// Blocks share nothing but the factorial table, so each writes its own
	// slot and the fold happens after Wait.
	partials := make([]Partial, len(plan.Blocks))

	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.SetLimit(e.workers())
	for i, b := range plan.Blocks {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil // an earlier block already failed
			}
			blockStart := time.Now()
			r, err := computeBlock(plan.N, b)
			if err != nil {
				return err
			}
			partials[i] = Partial{Block: b, Result: r}
			hooks.OnBlockComplete(ctx, plan.N, i, b.Size, time.Since(blockStart))
			return nil
		})
	}
	err := g.Wait()
	hooks.OnComputeComplete(ctx, plan.N, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return partials, nil
}

// computeBlock walks one block in index order. The state must advance
// strictly in sequence, so a block is never split further.
func computeBlock(n int, b Block) (Result, error) {
	s, err := Seed(n, b.Start)
	if err != nil {
		return Result{}, perrors.Wrap(perrors.ErrCodeBlockCoverage, err, "seed block %s of n=%d", b, n)
	}
	fc := NewFlipCounter(n)

	var r Result
	last := b.End() - 1
	for idx := b.Start; ; idx++ {
		if flips := fc.Count(s.perm); flips > 0 {
			if idx%2 == 0 {
				r.Checksum += int64(flips)
			} else {
				r.Checksum -= int64(flips)
			}
			r.MaxFlips = max(r.MaxFlips, flips)
		}
		if idx == last {
			return r, nil
		}
		if !s.Advance() {
			return Result{}, perrors.New(perrors.ErrCodeBlockCoverage,
				"permutation space of n=%d ended at %d inside block %s", n, idx, b)
		}
	}
}

func (e *Engine) workers() int {
	if e.Workers > 0 {
		return e.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (e *Engine) hooks() observability.ComputeHooks {
	if e.Hooks != nil {
		return e.Hooks
	}
	return observability.Compute()
}
