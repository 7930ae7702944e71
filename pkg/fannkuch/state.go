package fannkuch

import (
	"slices"

	perrors "github.com/matzehuels/pfannkuchen/pkg/errors"
)

// State is a permutation paired with the mixed-radix counter that locates
// it in the generation order. Count[i] never exceeds i.
//
// A State is owned by one goroutine; it is mutated in place by Advance.
type State struct {
	perm  []uint8
	count []int
	index uint64
	total uint64
	tmp   []uint8
}

// Seed returns the state at global index idx without replaying the
// permutations before it.
//
// Starting from the identity, for i from n-1 down to 1 it takes the
// factorial digit d = idx / i!, records it as count[i], rotates the prefix
// of length i+1 left by d, and keeps idx % i!. The cost is O(n²) no matter
// how large idx is.
func Seed(n int, idx uint64) (*State, error) {
	total, err := Factorial(n)
	if err != nil {
		return nil, err
	}
	if idx >= total {
		return nil, perrors.New(perrors.ErrCodeInvalidInput,
			"permutation index %d out of range [0, %d)", idx, total)
	}

	s := &State{
		perm:  make([]uint8, n),
		count: make([]int, n),
		index: idx,
		total: total,
		tmp:   make([]uint8, n),
	}
	for i := range s.perm {
		s.perm[i] = uint8(i)
	}
	for i := n - 1; i >= 1; i-- {
		f := factorials[i]
		d := int(idx / f)
		s.count[i] = d
		s.rotate(i+1, d)
		idx %= f
	}
	return s, nil
}

// rotate moves the prefix of length k left by d places.
func (s *State) rotate(k, d int) {
	if d == 0 {
		return
	}
	prefix := s.perm[:k]
	c := copy(s.tmp, prefix[d:])
	copy(s.tmp[c:], prefix[:d])
	copy(prefix, s.tmp[:k])
}

// Advance steps to the next permutation in generation order and reports
// whether it did. At the last index of the space it returns false and leaves
// the state untouched.
//
// The step swaps the first two elements, then increments the counter from
// digit 1 upward. Each digit that overflows is reset and the prefix
// [0, i+1] is rotated left by one before carrying into digit i+1. Carries
// are rare, so the cost is amortized O(1).
func (s *State) Advance() bool {
	if s.index+1 >= s.total {
		return false
	}
	s.index++

	p := s.perm
	p[0], p[1] = p[1], p[0]
	for i := 1; ; i++ {
		s.count[i]++
		if s.count[i] <= i {
			return true
		}
		s.count[i] = 0

		first := p[0]
		copy(p[:i+1], p[1:i+2])
		p[i+1] = first
	}
}

// Index returns the global index of the current permutation.
func (s *State) Index() uint64 { return s.index }

// Len returns the permutation size n.
func (s *State) Len() int { return len(s.perm) }

// Perm returns the current permutation. The slice is shared with the state
// and changes on the next Advance; clone it to keep it.
func (s *State) Perm() []uint8 { return s.perm }

// Count returns a copy of the mixed-radix counter.
func (s *State) Count() []int { return slices.Clone(s.count) }
