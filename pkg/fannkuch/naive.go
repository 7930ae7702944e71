package fannkuch

import (
	"slices"
)

// Naive computes the result serially, reversing each flipped prefix
// explicitly. It exists as a reference for the engine and is only practical
// for small n.
func Naive(n int) (Result, error) {
	s, err := Seed(n, 0)
	if err != nil {
		return Result{}, err
	}

	var r Result
	work := make([]uint8, n)
	for {
		copy(work, s.perm)
		flips := naiveFlips(work)
		if s.index%2 == 0 {
			r.Checksum += int64(flips)
		} else {
			r.Checksum -= int64(flips)
		}
		r.MaxFlips = max(r.MaxFlips, flips)
		if !s.Advance() {
			return r, nil
		}
	}
}

// naiveFlips reverses prefixes of p in place until 0 is at the front.
func naiveFlips(p []uint8) int {
	flips := 0
	for len(p) > 0 && p[0] != 0 {
		slices.Reverse(p[:p[0]+1])
		flips++
	}
	return flips
}
