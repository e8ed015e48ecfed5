// Package epi provides the extended-precision non-negative integer used to
// select a colour-map permutation.
//
// The reference gifshuffle implementation stores this as a fixed 2040-bit
// vector (see its epi.c). That representation is an implementation detail
// of the C program rather than a wire format: nothing else ever reads an
// EPI's bytes directly, only its arithmetic behavior. BigInt wraps
// math/big.Int, which gives the same non-negative, unbounded-precision
// arithmetic without a hand-rolled bit vector.
package epi

import "math/big"

// MaxBits bounds the representable value, matching the reference
// implementation's EPI_MAX_BITS. 256! needs about 1684 bits; 2040 leaves
// comfortable margin.
const MaxBits = 2040

// BigInt is a non-negative, arbitrary-precision integer.
type BigInt struct {
	v big.Int
}

// New returns a BigInt initialized to zero.
func New() *BigInt {
	return &BigInt{}
}

// Set assigns a non-negative int64 value.
func (b *BigInt) Set(n int64) {
	b.v.SetInt64(n)
}

// SetBigInt assigns a copy of the given big.Int value.
func (b *BigInt) SetBigInt(n *big.Int) {
	b.v.Set(n)
}

// Big returns the underlying big.Int value (read-only use expected).
func (b *BigInt) Big() *big.Int {
	return &b.v
}

// BitLen returns the index one past the highest set bit (0 for the value
// zero), equivalent to the reference implementation's epi_high_bit.
func (b *BigInt) BitLen() int {
	return b.v.BitLen()
}

// Cmp returns -1, 0 or 1 as b is less than, equal to, or greater than o.
func (b *BigInt) Cmp(o *BigInt) int {
	return b.v.Cmp(&o.v)
}

// Add sets b = b + o.
func (b *BigInt) Add(o *BigInt) {
	b.v.Add(&b.v, &o.v)
}

// Multiply sets b = b * n for a non-negative int n.
func (b *BigInt) Multiply(n int) {
	b.v.Mul(&b.v, big.NewInt(int64(n)))
}

// Divide replaces b with floor(b/n) and returns the remainder b mod n.
// n must be a positive int that fits in an int; the remainder always
// does too.
func (b *BigInt) Divide(n int) int {
	nb := big.NewInt(int64(n))
	rem := new(big.Int)
	b.v.QuoRem(&b.v, nb, rem)
	return int(rem.Int64())
}

// Decrement sets b = b - 1. b must be > 0.
func (b *BigInt) Decrement() {
	b.v.Sub(&b.v, big.NewInt(1))
}

// Clone returns an independent copy of b.
func (b *BigInt) Clone() *BigInt {
	c := New()
	c.v.Set(&b.v)
	return c
}

// Bit returns the i'th bit (0 or 1), little-endian, of b.
func (b *BigInt) Bit(i int) int {
	return int(b.v.Bit(i))
}

// SetBit sets the i'th bit, little-endian, of b to 0 or 1.
func (b *BigInt) SetBit(i, bit int) {
	b.v.SetBit(&b.v, i, uint(bit))
}

// IsZero reports whether b is zero.
func (b *BigInt) IsZero() bool {
	return b.v.Sign() == 0
}
