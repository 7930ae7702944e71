// Package pkg provides the libraries behind pfannkuchen, a block-parallel
// fannkuch-redux engine.
//
// # Overview
//
// For a size n the engine enumerates all n! permutations of 0..n-1, counts
// the prefix reversals ("pancake flips") each needs to bring 0 to the front,
// and reports a parity-weighted checksum together with the maximum flip
// count. The pkg directory is organized as:
//
//  1. [fannkuch] - The engine: factorial table, block planner, seeder,
//     sequencer, flip counter and the parallel reduce
//  2. [pipeline] - Option validation, cache-through computation and logging
//  3. [cache] - Result caches backed by files, Redis or MongoDB
//  4. [observability] - Hooks for metrics, with a Prometheus backend
//  5. [errors] - Structured error codes shared by every layer
//
// # Architecture
//
//	n
//	↓
//	[fannkuch.PlanBlocks] split [0, n!) into contiguous blocks
//	↓
//	[fannkuch.Seed] jump to each block start       (one goroutine per block)
//	↓
//	[fannkuch.State.Advance] + [fannkuch.FlipCounter] walk the block
//	↓
//	[fannkuch.Reduce] fold partials with (sum, max)
//	↓
//	checksum, max flips
//
// # Quick Start
//
//	import "github.com/matzehuels/pfannkuchen/pkg/fannkuch"
//
//	r, err := fannkuch.Compute(12)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d\nPfannkuchen(12) = %d\n", r.Checksum, r.MaxFlips)
//
// With caching and logging:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	res, err := runner.Compute(ctx, pipeline.Options{N: 12})
package pkg
