// Package permute implements the bijection between a big integer and an
// ordering of a GIF colour map's unique colours (factorial-base / Lehmer-
// code encoding), parameterised by a caller-supplied ordering key so it
// stays agnostic of whether that key is plain RGB or cipher ciphertext.
package permute

import (
	"bytes"
	"errors"
	"sort"

	"github.com/mattkwan-go/gifshuffle/epi"
	"github.com/mattkwan-go/gifshuffle/gifcodec"
)

// ErrCapacityExceeded is returned by EncodeColours when the value being
// embedded is too large for the number of unique colours available.
var ErrCapacityExceeded = errors.New("permute: value exceeds colour map capacity")

// KeyFunc returns the bytes used to order a colour; entries sort by the
// lexicographic order of their keys. PlainRGBKey and a cipher-ciphertext
// key (built from package cipher by the caller) are the two the system
// uses; permute itself never depends on how the key was produced.
type KeyFunc func(gifcodec.RGB) []byte

// PlainRGBKey orders by (R, G, B) lexicographically — the key used when
// no password is supplied, or when legacy v1 ordering is requested.
func PlainRGBKey(c gifcodec.RGB) []byte {
	return []byte{c.R, c.G, c.B}
}

// UniqueColours returns the distinct colours of colours, in first-
// occurrence order.
func UniqueColours(colours []gifcodec.RGB) []gifcodec.RGB {
	seen := make(map[gifcodec.RGB]bool, len(colours))
	unique := make([]gifcodec.RGB, 0, len(colours))
	for _, c := range colours {
		if !seen[c] {
			seen[c] = true
			unique = append(unique, c)
		}
	}
	return unique
}

// MaxValue returns n! - 1, the largest value encodable across n unique
// colours (n! - 1 for n >= 1; for n == 0 the result is 0, though the
// system never has zero unique colours in practice).
func MaxValue(n int) *epi.BigInt {
	v := epi.New()
	v.Set(1)
	for i := 2; i <= n; i++ {
		v.Multiply(i)
	}
	v.Decrement()
	return v
}

// CapacityBits returns the usable payload bit capacity for n unique
// colours: floor(log2(n!)) - 1, clamped at 0 to reserve the terminator
// bit the bit-shaping layer always appends.
func CapacityBits(n int) int {
	f := epi.New()
	f.Set(1)
	for i := 2; i <= n; i++ {
		f.Multiply(i)
	}
	// f.BitLen() - 1 is floor(log2(n!)).
	bits := f.BitLen() - 2
	if bits < 0 {
		return 0
	}
	return bits
}

func sortedByKey(colours []gifcodec.RGB, key KeyFunc) []gifcodec.RGB {
	sorted := make([]gifcodec.RGB, len(colours))
	copy(sorted, colours)
	sort.SliceStable(sorted, func(i, j int) bool {
		return bytes.Compare(key(sorted[i]), key(sorted[j])) < 0
	})
	return sorted
}

// EncodeColours permutes gi.Colours so that decoding it (with the same
// key) recovers v, and consumes v in the process (v is left at zero on
// success). Colour-map slots beyond the unique prefix are padded with
// whatever colour originally occupied the last slot of the map, matching
// the reference implementation's padding behaviour exactly (those slots
// are always duplicates and carry no information).
func EncodeColours(gi *gifcodec.Info, v *epi.BigInt, key KeyFunc) error {
	orig := make([]gifcodec.RGB, len(gi.Colours))
	copy(orig, gi.Colours)

	unique := UniqueColours(orig)
	n := len(unique)
	sorted := sortedByKey(unique, key)

	pos := make([]int, n)
	for i := 0; i < n; i++ {
		pos[n-1-i] = v.Divide(i + 1)
	}
	if !v.IsZero() {
		return ErrCapacityExceeded
	}

	result := make([]gifcodec.RGB, 0, n)
	for i := 0; i < n; i++ {
		idx := n - 1 - i
		p := pos[idx]
		result = append(result, gifcodec.RGB{})
		copy(result[p+1:i+1], result[p:i])
		result[p] = sorted[idx]
	}

	full := make([]gifcodec.RGB, gi.NumColours)
	copy(full, result)
	if n < gi.NumColours {
		padFill := orig[gi.NumColours-1]
		for i := n; i < gi.NumColours; i++ {
			full[i] = padFill
		}
	}
	gi.Colours = full

	return nil
}

// DecodeColours recovers the value encoded in gi.Colours's current
// ordering, using the same key as was used to encode it.
func DecodeColours(gi *gifcodec.Info, key KeyFunc) *epi.BigInt {
	unique := UniqueColours(gi.Colours)
	n := len(unique)

	type rankedColour struct {
		colour gifcodec.RGB
		pos    int
	}
	ranked := make([]rankedColour, n)
	for i, c := range unique {
		ranked[i] = rankedColour{colour: c, pos: i}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return bytes.Compare(key(ranked[i].colour), key(ranked[j].colour)) < 0
	})

	v := epi.New()
	for i := 0; i < n-1; i++ {
		pos := ranked[i].pos

		v.Multiply(n - i)
		posValue := epi.New()
		posValue.Set(int64(pos))
		v.Add(posValue)

		for j := i + 1; j < n; j++ {
			if ranked[j].pos > pos {
				ranked[j].pos--
			}
		}
	}

	return v
}
