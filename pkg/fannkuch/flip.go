package fannkuch

// FlipCounter counts flips on a private scratch buffer so the permutation
// being enumerated is never modified. A FlipCounter is not safe for
// concurrent use; give each worker its own.
type FlipCounter struct {
	scratch []uint8
}

// NewFlipCounter returns a counter for permutations of length up to n.
func NewFlipCounter(n int) *FlipCounter {
	return &FlipCounter{scratch: make([]uint8, n)}
}

// Count returns the number of flips needed to bring 0 to the front of perm.
//
// Instead of materializing each reversal it follows the cycle of front
// values. Only the value heading for the front is tracked; the old front is
// written to its final slot and the interior of the flipped prefix is
// mirrored in place. Position 0 of the scratch copy is never read again, so
// it is never updated.
func (c *FlipCounter) Count(perm []uint8) int {
	if len(perm) == 0 || perm[0] == 0 {
		return 0
	}
	if cap(c.scratch) < len(perm) {
		c.scratch = make([]uint8, len(perm))
	}
	t := c.scratch[:len(perm)]
	copy(t, perm)

	flips := 1
	first := int(perm[0])
	for t[first] != 0 {
		next := t[first]
		t[first] = uint8(first)
		if first > 2 {
			for lo, hi := 1, first-1; lo < hi; lo, hi = lo+1, hi-1 {
				t[lo], t[hi] = t[hi], t[lo]
			}
		}
		first = int(next)
		flips++
	}
	return flips
}

// Flips is a convenience wrapper that counts flips with a fresh scratch
// buffer.
func Flips(perm []uint8) int {
	return NewFlipCounter(len(perm)).Count(perm)
}
