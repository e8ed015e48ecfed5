// Package bitio bridges the Huffman/CFB bit pipeline and the big integer
// that ultimately selects a colour-map permutation: Sink accumulates bits
// produced while embedding into a BigInt (appending the terminator bit
// on flush); Source unpacks a BigInt's bits back into the pipeline while
// extracting.
package bitio

import "github.com/mattkwan-go/gifshuffle/epi"

// Sink accumulates bits, in order, into a BigInt. It implements
// huffman.BitWriter; Embed feeds it through a wrapper that passes each
// bit through the CFB layer (package cfb) first.
type Sink struct {
	v   *epi.BigInt
	pos int
}

// NewSink returns an empty bit sink.
func NewSink() *Sink {
	return &Sink{v: epi.New()}
}

// WriteBit appends one bit. Bits beyond epi.MaxBits are silently dropped
// (matching the reference encoder), but the logical position still
// advances so Flush's bit count correctly reports an over-capacity
// payload to the caller.
func (s *Sink) WriteBit(bit int) error {
	if s.pos < epi.MaxBits {
		s.v.SetBit(s.pos, bit)
	}
	s.pos++
	return nil
}

// Flush appends the terminator bit 1 and returns the resulting value
// together with the logical bit count (including the terminator), which
// may exceed epi.MaxBits for an over-capacity payload.
func (s *Sink) Flush() (value *epi.BigInt, bitCount int) {
	if s.pos < epi.MaxBits {
		s.v.SetBit(s.pos, 1)
	}
	s.pos++
	return s.v, s.pos
}

// Source replays a BigInt's bits, low to high, stopping one bit short of
// its BitLen so the terminator set by Sink.Flush is excluded.
type Source struct {
	v *epi.BigInt
}

// NewSource wraps a decoded permutation value for bit-by-bit extraction.
func NewSource(v *epi.BigInt) *Source {
	return &Source{v: v}
}

// Drain calls consume once per payload bit (excluding the terminator),
// low to high. It stops at the first error consume returns.
func (s *Source) Drain(consume func(bit int) error) error {
	n := s.v.BitLen()
	for i := 0; i < n-1; i++ {
		if err := consume(s.v.Bit(i)); err != nil {
			return err
		}
	}
	return nil
}
