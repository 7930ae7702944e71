package fannkuch

import (
	perrors "github.com/matzehuels/pfannkuchen/pkg/errors"
)

// MaxN is one greater than the largest supported permutation size.
// 15! is below 2^63, so every index and checksum fits in 64 bits.
const MaxN = 16

// FactorialTable holds n! for every n below its length.
// It is never written after construction.
type FactorialTable []uint64

// NewFactorialTable returns a table of factorials for 0 <= n < bound.
// A bound below 1 still yields the single entry 0! = 1.
//
// Factorials grow quickly: a bound above 21 overflows uint64.
func NewFactorialTable(bound int) FactorialTable {
	bound = max(bound, 1)
	t := make(FactorialTable, bound)
	t[0] = 1
	for i := 1; i < bound; i++ {
		t[i] = uint64(i) * t[i-1]
	}
	return t
}

// At returns n!. It fails with INVALID_SIZE when n is outside the table.
func (t FactorialTable) At(n int) (uint64, error) {
	if err := perrors.ValidateSize(n, len(t)); err != nil {
		return 0, err
	}
	return t[n], nil
}

// factorials is the shared table sized by MaxN.
var factorials = NewFactorialTable(MaxN)

// Factorial returns n! for 0 <= n < MaxN.
func Factorial(n int) (uint64, error) {
	return factorials.At(n)
}
