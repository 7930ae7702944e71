// Package fannkuch computes the fannkuch-redux statistics for a permutation
// size n: the maximum flip count over all n! permutations of {0, ..., n-1}
// and the alternating-sign checksum of flip counts in generation order.
//
// # Overview
//
// A flip reverses the prefix of a permutation that ends at the index equal
// to its front value. The flip count of a permutation is the number of flips
// needed to bring 0 to the front. Enumerating all n! permutations is the
// whole cost, so the package splits the index space and works on it in
// parallel:
//
//   - [NewFactorialTable]: n! lookups shared read-only by every worker
//   - [PlanBlocks]: contiguous blocks that tile [0, n!) exactly
//   - [Seed]: decodes a global index into a [State] in O(n²)
//   - [State.Advance]: steps to the next permutation in amortized O(1)
//   - [FlipCounter]: cycle-following flip count without full reversals
//   - [Engine]: fans blocks out to workers and folds partial results
//
// # Generation Order
//
// The order is fixed and starts at the identity. A [State] pairs the
// permutation with a mixed-radix counter whose digit i ranges over 0..i, the
// factorial number system. Advancing swaps the first two elements and then
// increments the counter; every carry at digit i rotates the prefix [0, i+1]
// left by one. [Seed] decodes the same digits directly, which is why any
// block can start mid-stream without replaying the permutations before it.
//
// # Determinism
//
// Partial results combine with (sum, max). Both are commutative and
// associative, so the final [Result] does not depend on the block count, the
// worker count or the order in which blocks finish.
//
// # Basic Usage
//
//	res, err := fannkuch.Compute(7)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%d\nPfannkuchen(7) = %d\n", res.Checksum, res.MaxFlips)
//
// Sizes at or above [MaxN] are rejected with an INVALID_SIZE error before
// any work is dispatched.
package fannkuch
