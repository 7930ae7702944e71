package fannkuch

import (
	"testing"

	perrors "github.com/matzehuels/pfannkuchen/pkg/errors"
)

func TestNewFactorialTable(t *testing.T) {
	table := NewFactorialTable(MaxN)
	if len(table) != MaxN {
		t.Fatalf("len(table) = %d, want %d", len(table), MaxN)
	}

	want := []uint64{1, 1, 2, 6, 24, 120, 720, 5040, 40320, 362880, 3628800}
	for n, w := range want {
		if table[n] != w {
			t.Errorf("table[%d] = %d, want %d", n, table[n], w)
		}
	}
	if got := table[15]; got != 1307674368000 {
		t.Errorf("table[15] = %d, want 1307674368000", got)
	}
}

func TestNewFactorialTableMinimalBound(t *testing.T) {
	for _, bound := range []int{-1, 0, 1} {
		table := NewFactorialTable(bound)
		if len(table) != 1 || table[0] != 1 {
			t.Errorf("NewFactorialTable(%d) = %v, want [1]", bound, table)
		}
	}
}

func TestFactorialOutOfRange(t *testing.T) {
	for _, n := range []int{MaxN, MaxN + 1, 100, -1} {
		_, err := Factorial(n)
		if !perrors.Is(err, perrors.ErrCodeInvalidSize) {
			t.Errorf("Factorial(%d) error = %v, want %s", n, err, perrors.ErrCodeInvalidSize)
		}
	}
}
