package fannkuch

import (
	"fmt"

	perrors "github.com/matzehuels/pfannkuchen/pkg/errors"
)

const (
	// DefaultBlockCount is the preferred number of blocks when none is given.
	// It divides n! evenly for every n >= 4.
	DefaultBlockCount = 12

	// MaxBlockCount bounds the block count hint so a plan stays small.
	MaxBlockCount = 1 << 20
)

// Block is the half-open index range [Start, Start+Size) owned by one worker.
type Block struct {
	Start uint64 `json:"start"`
	Size  uint64 `json:"size"`
}

// End returns the exclusive end of the block.
func (b Block) End() uint64 { return b.Start + b.Size }

func (b Block) String() string {
	return fmt.Sprintf("[%d, %d)", b.Start, b.End())
}

// Plan is a partition of [0, n!) into contiguous blocks.
type Plan struct {
	N         int     `json:"n"`
	Total     uint64  `json:"total"`
	BlockSize uint64  `json:"block_size"`
	Blocks    []Block `json:"blocks"`
}

// PlanBlocks splits the n! permutations into contiguous blocks.
//
// The block size is max(1, n!/preferred) and the block count is
// n!/blockSize. When the division is inexact the last block is widened to
// absorb the remainder, so no trailing permutation is ever dropped. A
// preferred count of 0 selects DefaultBlockCount. When n! does not exceed
// the preferred count the space collapses to a single block.
//
// The returned plan has already passed [Plan.Verify].
func PlanBlocks(n, preferred int) (Plan, error) {
	total, err := Factorial(n)
	if err != nil {
		return Plan{}, err
	}
	if err := validateBlockCount(preferred); err != nil {
		return Plan{}, err
	}
	if preferred == 0 {
		preferred = DefaultBlockCount
	}

	size := max(1, total/uint64(preferred))
	if total <= uint64(preferred) {
		size = total
	}
	count := total / size

	blocks := make([]Block, count)
	for i := range blocks {
		blocks[i] = Block{Start: uint64(i) * size, Size: size}
	}
	last := &blocks[len(blocks)-1]
	last.Size = total - last.Start

	p := Plan{N: n, Total: total, BlockSize: size, Blocks: blocks}
	if err := p.Verify(); err != nil {
		return Plan{}, err
	}
	return p, nil
}

// Verify checks that the blocks tile [0, Total) with no gap and no overlap.
// A failure is a BLOCK_COVERAGE defect; callers must abort rather than
// compute over a partial space.
func (p Plan) Verify() error {
	if total, err := Factorial(p.N); err != nil {
		return err
	} else if total != p.Total {
		return perrors.New(perrors.ErrCodeBlockCoverage,
			"plan for n=%d spans %d permutations, want %d", p.N, p.Total, total)
	}

	var next uint64
	for i, b := range p.Blocks {
		if b.Size == 0 {
			return perrors.New(perrors.ErrCodeBlockCoverage, "block %d of n=%d is empty", i, p.N)
		}
		if b.Start != next {
			return perrors.New(perrors.ErrCodeBlockCoverage,
				"block %d of n=%d starts at %d, want %d", i, p.N, b.Start, next)
		}
		next = b.End()
	}
	if next != p.Total {
		return perrors.New(perrors.ErrCodeBlockCoverage,
			"blocks of n=%d cover %d permutations, want %d", p.N, next, p.Total)
	}
	return nil
}

func validateBlockCount(preferred int) error {
	if err := perrors.ValidateBlockCount(preferred); err != nil {
		return err
	}
	if preferred > MaxBlockCount {
		return perrors.New(perrors.ErrCodeInvalidBlockCount, "block count too large (max %d)", MaxBlockCount)
	}
	return nil
}
