package fannkuch

import (
	"context"
	"sync"
	"testing"
	"time"

	perrors "github.com/matzehuels/pfannkuchen/pkg/errors"
	"github.com/matzehuels/pfannkuchen/pkg/observability"
)

type recordingHooks struct {
	mu        sync.Mutex
	starts    int
	blocks    []int
	completes int
	rejected  []error
	lastErr   error
}

func (h *recordingHooks) OnComputeStart(context.Context, int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.starts++
}

func (h *recordingHooks) OnBlockComplete(_ context.Context, _, block int, _ uint64, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.blocks = append(h.blocks, block)
}

func (h *recordingHooks) OnComputeComplete(_ context.Context, _ int, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.completes++
	h.lastErr = err
}

func (h *recordingHooks) OnComputeRejected(_ context.Context, _ int, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rejected = append(h.rejected, err)
}

var _ observability.ComputeHooks = (*recordingHooks)(nil)

func TestComputeKnownValues(t *testing.T) {
	tests := []struct {
		n    int
		want Result
	}{
		{0, Result{0, 0}},
		{1, Result{0, 0}},
		{2, Result{-1, 1}},
		{3, Result{2, 2}},
		{7, Result{228, 16}},
		{8, Result{1616, 22}},
		{9, Result{8629, 30}},
	}

	for _, tt := range tests {
		got, err := Compute(tt.n)
		if err != nil {
			t.Fatalf("Compute(%d) error: %v", tt.n, err)
		}
		if got != tt.want {
			t.Errorf("Compute(%d) = %+v, want %+v", tt.n, got, tt.want)
		}
	}
}

func TestComputeTen(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping n=10 in short mode")
	}
	got, err := Compute(10)
	if err != nil {
		t.Fatalf("Compute(10) error: %v", err)
	}
	if want := (Result{73196, 38}); got != want {
		t.Errorf("Compute(10) = %+v, want %+v", got, want)
	}
}

func TestRunDeterministic(t *testing.T) {
	const n = 7
	total, _ := Factorial(n)
	want := Result{228, 16}

	for _, blocks := range []int{1, 4, 12, 100, int(total)} {
		for _, workers := range []int{1, 2, 8} {
			e := Engine{BlockCount: blocks, Workers: workers, Hooks: observability.NoopComputeHooks{}}
			got, err := e.Run(context.Background(), n)
			if err != nil {
				t.Fatalf("Run(blocks=%d, workers=%d) error: %v", blocks, workers, err)
			}
			if got != want {
				t.Errorf("Run(blocks=%d, workers=%d) = %+v, want %+v", blocks, workers, got, want)
			}
		}
	}
}

func TestRunMatchesNaive(t *testing.T) {
	for n := 0; n <= 8; n++ {
		want, err := Naive(n)
		if err != nil {
			t.Fatalf("Naive(%d) error: %v", n, err)
		}
		e := Engine{BlockCount: 5, Workers: 3, Hooks: observability.NoopComputeHooks{}}
		got, err := e.Run(context.Background(), n)
		if err != nil {
			t.Fatalf("Run(%d) error: %v", n, err)
		}
		if got != want {
			t.Errorf("Run(%d) = %+v, Naive = %+v", n, got, want)
		}
	}
}

func TestRunRejectsInvalidSize(t *testing.T) {
	for _, n := range []int{MaxN, MaxN + 4, -1} {
		hooks := &recordingHooks{}
		e := Engine{Hooks: hooks}

		_, err := e.Run(context.Background(), n)
		if !perrors.Is(err, perrors.ErrCodeInvalidSize) {
			t.Errorf("Run(%d) error = %v, want %s", n, err, perrors.ErrCodeInvalidSize)
		}
		if hooks.starts != 0 || len(hooks.blocks) != 0 {
			t.Errorf("Run(%d) dispatched work: starts=%d blocks=%d", n, hooks.starts, len(hooks.blocks))
		}
		if len(hooks.rejected) != 1 {
			t.Errorf("Run(%d) rejections = %d, want 1", n, len(hooks.rejected))
		}
	}
}

func TestRunRejectsInvalidBlockCount(t *testing.T) {
	hooks := &recordingHooks{}
	e := Engine{BlockCount: -3, Hooks: hooks}

	_, err := e.Run(context.Background(), 5)
	if !perrors.Is(err, perrors.ErrCodeInvalidBlockCount) {
		t.Errorf("Run() error = %v, want %s", err, perrors.ErrCodeInvalidBlockCount)
	}
	if hooks.starts != 0 {
		t.Errorf("OnComputeStart called %d times, want 0", hooks.starts)
	}
}

func TestRunPlanRejectsBadCoverage(t *testing.T) {
	hooks := &recordingHooks{}
	e := Engine{Hooks: hooks}

	plan := Plan{N: 4, Total: 24, BlockSize: 10, Blocks: []Block{{0, 10}, {10, 10}}}
	_, err := e.RunPlan(context.Background(), plan)
	if !perrors.Is(err, perrors.ErrCodeBlockCoverage) {
		t.Errorf("RunPlan() error = %v, want %s", err, perrors.ErrCodeBlockCoverage)
	}
	if !perrors.IsInternal(err) {
		t.Errorf("IsInternal(%v) = false, want true", err)
	}
	if hooks.starts != 0 {
		t.Errorf("OnComputeStart called %d times, want 0", hooks.starts)
	}
}

func TestRunDetailedPartials(t *testing.T) {
	hooks := &recordingHooks{}
	e := Engine{BlockCount: 7, Workers: 4, Hooks: hooks}

	partials, err := e.RunDetailed(context.Background(), 6)
	if err != nil {
		t.Fatalf("RunDetailed() error: %v", err)
	}

	plan, _ := PlanBlocks(6, 7)
	if len(partials) != len(plan.Blocks) {
		t.Fatalf("len(partials) = %d, want %d", len(partials), len(plan.Blocks))
	}
	for i, p := range partials {
		if p.Block != plan.Blocks[i] {
			t.Errorf("partials[%d].Block = %v, want %v", i, p.Block, plan.Blocks[i])
		}
	}

	want, _ := Naive(6)
	if got := Reduce(partials); got != want {
		t.Errorf("Reduce(partials) = %+v, want %+v", got, want)
	}

	if hooks.starts != 1 || hooks.completes != 1 {
		t.Errorf("starts=%d completes=%d, want 1 and 1", hooks.starts, hooks.completes)
	}
	if len(hooks.blocks) != len(plan.Blocks) {
		t.Errorf("block events = %d, want %d", len(hooks.blocks), len(plan.Blocks))
	}
	if hooks.lastErr != nil {
		t.Errorf("OnComputeComplete error = %v, want nil", hooks.lastErr)
	}
}

func TestRunIgnoresCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := Engine{BlockCount: 12, Workers: 2, Hooks: observability.NoopComputeHooks{}}
	got, err := e.Run(ctx, 7)
	if err != nil {
		t.Fatalf("Run() on cancelled context error: %v", err)
	}
	if want := (Result{228, 16}); got != want {
		t.Errorf("Run() = %+v, want %+v", got, want)
	}
}

func TestResultCombine(t *testing.T) {
	a := Result{Checksum: 10, MaxFlips: 3}
	b := Result{Checksum: -4, MaxFlips: 7}

	if got := a.Combine(b); got != (Result{6, 7}) {
		t.Errorf("Combine() = %+v, want {6 7}", got)
	}
	if a.Combine(b) != b.Combine(a) {
		t.Error("Combine() is not commutative")
	}
	if got := Reduce(nil); got != (Result{}) {
		t.Errorf("Reduce(nil) = %+v, want zero", got)
	}
}
