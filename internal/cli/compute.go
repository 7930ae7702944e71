package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	perrors "github.com/matzehuels/pfannkuchen/pkg/errors"
	"github.com/matzehuels/pfannkuchen/pkg/observability"
	"github.com/matzehuels/pfannkuchen/pkg/pipeline"
)

// verifyWarnN is the smallest n for which the serial reference is slow
// enough to deserve a warning.
const verifyWarnN = 11

// computeOpts holds the flags of the compute command.
type computeOpts struct {
	n          int
	blockCount int
	workers    int
	format     string
	blocks     bool
	verify     bool
	noCache    bool
	refresh    bool
}

// computeCommand creates the compute command.
func (c *CLI) computeCommand() *cobra.Command {
	opts := computeOpts{}

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute the checksum and maximum flip count for n",
		Long: `Compute fannkuch-redux for size n.

The first line of output is the checksum, the second the maximum number of
flips over all permutations:

  $ pfannkuchen compute -n 7
  228
  Pfannkuchen(7) = 16

Results are cached by n; block and worker counts only change how fast a
result is found.`,
		Example: `  # Default size (12)
  pfannkuchen compute

  # Per-block results, four blocks on two workers
  pfannkuchen compute -n 10 --block-count 4 --workers 2 --blocks

  # Check the engine against the serial reference
  pfannkuchen compute -n 9 --verify`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyConfigDefaults(cmd, &opts.blockCount, &opts.workers)
			return c.runCompute(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.n, "n", "n", pipeline.DefaultN, "permutation size (0 to 15)")
	cmd.Flags().IntVar(&opts.blockCount, "block-count", 0, "preferred number of blocks (default from config, 12)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "maximum blocks run at once (0 = GOMAXPROCS)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", pipeline.FormatText, "output format: text, json")
	cmd.Flags().BoolVar(&opts.blocks, "blocks", false, "show per-block results")
	cmd.Flags().BoolVar(&opts.verify, "verify", false, "compare against the serial reference")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute and overwrite the cached result")

	return cmd
}

// applyConfigDefaults fills block count and workers from the config unless
// the flags were given explicitly.
func (c *CLI) applyConfigDefaults(cmd *cobra.Command, blockCount, workers *int) {
	if !cmd.Flags().Changed("block-count") {
		*blockCount = c.Config.BlockCount
	}
	if !cmd.Flags().Changed("workers") {
		*workers = c.Config.Workers
	}
}

func (c *CLI) runCompute(ctx context.Context, opts computeOpts) error {
	if err := pipeline.ValidateFormat(opts.format); err != nil {
		return err
	}

	logger := loggerFromContext(ctx)
	runner, err := c.newRunner(ctx, opts.noCache || opts.verify)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing n=%d", opts.n))
	hooks := &progressHooks{ComputeHooks: observability.Compute(), spinner: spinner, n: opts.n}
	pipeOpts := pipeline.Options{
		N:          opts.n,
		BlockCount: opts.blockCount,
		Workers:    opts.workers,
		Refresh:    opts.refresh,
		Detailed:   opts.blocks,
		Logger:     logger,
		Hooks:      hooks,
	}

	if opts.verify {
		if opts.n >= verifyWarnN {
			printWarning("the serial reference for n=%d may take a long time", opts.n)
		}
		return c.runVerify(ctx, runner, pipeOpts, spinner, opts.format)
	}

	prog := newProgress(logger)
	spinner.Start()
	res, err := runner.Compute(ctx, pipeOpts)
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Computed n=%d", res.N))

	if opts.format == pipeline.FormatJSON {
		return writeJSON(res)
	}
	if opts.blocks {
		fmt.Fprintln(stdout, renderPartialsTable(res.Blocks))
	}
	fmt.Fprintln(stdout, res.Format())
	printStats(len(res.Blocks), opts.workers, res.CacheHit)
	return nil
}

func (c *CLI) runVerify(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, spinner *Spinner, format string) error {
	spinner.Start()
	v, err := runner.Verify(ctx, opts)
	spinner.Stop()
	if err != nil {
		return err
	}

	if format == pipeline.FormatJSON {
		if err := writeJSON(v); err != nil {
			return err
		}
	} else {
		printKeyValue("engine", fmt.Sprintf("%d / %d", v.Engine.Checksum, v.Engine.MaxFlips))
		printKeyValue("reference", fmt.Sprintf("%d / %d", v.Reference.Checksum, v.Reference.MaxFlips))
	}
	if !v.Match() {
		return perrors.New(perrors.ErrCodeInternal, "engine result for n=%d disagrees with the serial reference", v.N)
	}
	if format != pipeline.FormatJSON {
		printSuccess("engine matches the serial reference for n=%d", v.N)
	}
	return nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// progressHooks reports block completion on the spinner and forwards every
// event to the wrapped hooks.
type progressHooks struct {
	observability.ComputeHooks
	spinner *Spinner
	n       int
	total   atomic.Int64
	done    atomic.Int64
}

func (h *progressHooks) OnComputeStart(ctx context.Context, n, blocks int) {
	h.total.Store(int64(blocks))
	h.ComputeHooks.OnComputeStart(ctx, n, blocks)
}

func (h *progressHooks) OnBlockComplete(ctx context.Context, n, block int, size uint64, d time.Duration) {
	done := h.done.Add(1)
	h.spinner.SetMessage(fmt.Sprintf("Computing n=%d · %d/%d blocks", h.n, done, h.total.Load()))
	h.ComputeHooks.OnBlockComplete(ctx, n, block, size, d)
}
