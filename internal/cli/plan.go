package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pfannkuchen/pkg/pipeline"
)

// planCommand creates the plan command, which shows how [0, n!) is split
// into blocks without computing anything.
func (c *CLI) planCommand() *cobra.Command {
	var (
		n          int
		blockCount int
		format     string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the block partition for n",
		Long: `Show how the n! permutations are split into contiguous blocks.

Each block is walked by one goroutine. When n! is not a multiple of the
block size the last block is widened to absorb the remainder; when n! does
not exceed the preferred block count there is a single block.`,
		Example: `  pfannkuchen plan -n 5 --block-count 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateFormat(format); err != nil {
				return err
			}
			if !cmd.Flags().Changed("block-count") {
				blockCount = c.Config.BlockCount
			}

			runner := pipeline.NewRunner(nil, nil, c.Logger)
			plan, err := runner.Plan(pipeline.Options{N: n, BlockCount: blockCount})
			if err != nil {
				return err
			}

			if format == pipeline.FormatJSON {
				return writeJSON(plan)
			}
			fmt.Fprintln(stdout, StyleTitle.Render(fmt.Sprintf("Pfannkuchen(%d)", plan.N)))
			printKeyValue("permutations", fmtUint(plan.Total))
			printKeyValue("blocks", fmt.Sprintf("%d", len(plan.Blocks)))
			printKeyValue("block size", fmtUint(plan.BlockSize))
			fmt.Fprintln(stdout, renderPlanTable(plan))
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "n", "n", pipeline.DefaultN, "permutation size (0 to 15)")
	cmd.Flags().IntVar(&blockCount, "block-count", 0, "preferred number of blocks (default from config, 12)")
	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatText, "output format: text, json")

	return cmd
}
