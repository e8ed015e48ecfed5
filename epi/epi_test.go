package epi

import (
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSetAndCmp(t *testing.T) {
	a := New()
	a.Set(42)
	b := New()
	b.Set(42)
	if a.Cmp(b) != 0 {
		t.Fatalf("expected equal, got cmp=%d", a.Cmp(b))
	}

	b.Set(43)
	if a.Cmp(b) >= 0 {
		t.Fatalf("expected a < b")
	}
}

func TestAdd(t *testing.T) {
	a := New()
	a.Set(17)
	b := New()
	b.Set(25)
	a.Add(b)

	want := New()
	want.Set(42)
	if diff := cmp.Diff(want.v.String(), a.v.String()); diff != "" {
		t.Fatalf("Add mismatch (-want +got):\n%s", diff)
	}
}

func TestMultiply(t *testing.T) {
	a := New()
	a.Set(1)
	for i := 2; i <= 10; i++ {
		a.Multiply(i)
	}
	// 10! = 3628800
	if a.v.Cmp(big.NewInt(3628800)) != 0 {
		t.Fatalf("10! = %s, want 3628800", a.v.String())
	}
}

func TestDivideRemainderInvariant(t *testing.T) {
	cases := []int64{0, 1, 2, 100, 987654321}
	for _, start := range cases {
		for _, n := range []int{1, 2, 3, 7, 97} {
			a := New()
			a.Set(start)
			orig := a.Clone()

			rem := a.Divide(n)
			if rem < 0 || rem >= n {
				t.Fatalf("remainder %d out of range [0,%d)", rem, n)
			}

			// a'*n + rem == original
			a.Multiply(n)
			remBI := New()
			remBI.Set(int64(rem))
			a.Add(remBI)

			if a.Cmp(orig) != 0 {
				t.Fatalf("start=%d n=%d: reconstruction mismatch: got %s want %s",
					start, n, a.v.String(), orig.v.String())
			}
		}
	}
}

func TestDecrement(t *testing.T) {
	a := New()
	a.Set(5)
	a.Decrement()
	if a.v.Cmp(big.NewInt(4)) != 0 {
		t.Fatalf("got %s, want 4", a.v.String())
	}
}

func TestBitLen(t *testing.T) {
	a := New()
	if a.BitLen() != 0 {
		t.Fatalf("zero value should have BitLen 0, got %d", a.BitLen())
	}
	a.Set(1)
	if a.BitLen() != 1 {
		t.Fatalf("got %d, want 1", a.BitLen())
	}
	a.Set(8)
	if a.BitLen() != 4 {
		t.Fatalf("got %d, want 4", a.BitLen())
	}
}

func TestBitAccessors(t *testing.T) {
	a := New()
	a.SetBit(0, 1)
	a.SetBit(3, 1)
	if a.Bit(0) != 1 || a.Bit(1) != 0 || a.Bit(3) != 1 {
		t.Fatalf("unexpected bit pattern")
	}
	if a.v.Cmp(big.NewInt(9)) != 0 {
		t.Fatalf("got %s, want 9", a.v.String())
	}
}
