package permute

import (
	"testing"

	"github.com/mattkwan-go/gifshuffle/epi"
	"github.com/mattkwan-go/gifshuffle/gifcodec"
)

func makeColours(n int) []gifcodec.RGB {
	colours := make([]gifcodec.RGB, n)
	for i := range colours {
		colours[i] = gifcodec.RGB{R: byte(i), G: byte(i * 3), B: byte(i * 7)}
	}
	return colours
}

func TestEncodeDecodeBijection(t *testing.T) {
	for _, n := range []int{2, 3, 4, 8, 16} {
		colours := makeColours(n)
		max := MaxValue(n)

		for _, want := range []int64{0, 1, int64(n) - 1} {
			gi := &gifcodec.Info{NumColours: n, Colours: append([]gifcodec.RGB(nil), colours...)}
			v := epi.New()
			v.Set(want)
			if v.Big().Cmp(max.Big()) > 0 {
				continue
			}

			if err := EncodeColours(gi, v, PlainRGBKey); err != nil {
				t.Fatalf("n=%d v=%d: EncodeColours: %v", n, want, err)
			}

			got := DecodeColours(gi, PlainRGBKey)
			if got.Big().Int64() != want {
				t.Fatalf("n=%d: decode(encode(%d)) = %d", n, want, got.Big().Int64())
			}
		}
	}
}

func TestEncodeDecodeExhaustiveSmallN(t *testing.T) {
	const n = 5
	colours := makeColours(n)
	max := MaxValue(n)
	top := max.Big().Int64()

	for want := int64(0); want <= top; want++ {
		gi := &gifcodec.Info{NumColours: n, Colours: append([]gifcodec.RGB(nil), colours...)}
		v := epi.New()
		v.Set(want)

		if err := EncodeColours(gi, v, PlainRGBKey); err != nil {
			t.Fatalf("v=%d: EncodeColours: %v", want, err)
		}
		got := DecodeColours(gi, PlainRGBKey)
		if got.Big().Int64() != want {
			t.Fatalf("decode(encode(%d)) = %d", want, got.Big().Int64())
		}
	}
}

func TestEncodeDecodeProducesAllPermutations(t *testing.T) {
	const n = 4
	colours := makeColours(n)
	max := MaxValue(n).Big().Int64()

	seen := make(map[string]bool)
	for want := int64(0); want <= max; want++ {
		gi := &gifcodec.Info{NumColours: n, Colours: append([]gifcodec.RGB(nil), colours...)}
		v := epi.New()
		v.Set(want)
		if err := EncodeColours(gi, v, PlainRGBKey); err != nil {
			t.Fatalf("v=%d: %v", want, err)
		}
		key := string([]byte{
			gi.Colours[0].R, gi.Colours[1].R, gi.Colours[2].R, gi.Colours[3].R,
		})
		seen[key] = true
	}
	if int64(len(seen)) != max+1 {
		t.Fatalf("got %d distinct permutations, want %d", len(seen), max+1)
	}
}

func TestEncodeOverCapacityFails(t *testing.T) {
	const n = 4
	gi := &gifcodec.Info{NumColours: n, Colours: makeColours(n)}
	v := epi.New()
	v.Set(MaxValue(n).Big().Int64() + 1)

	if err := EncodeColours(gi, v, PlainRGBKey); err != ErrCapacityExceeded {
		t.Fatalf("got %v, want ErrCapacityExceeded", err)
	}
}

func TestCapacityBitsMonotonic(t *testing.T) {
	prev := -1
	for n := 1; n <= 256; n++ {
		bits := CapacityBits(n)
		if bits < prev {
			t.Fatalf("capacity decreased at n=%d: %d < %d", n, bits, prev)
		}
		prev = bits
	}
}

func TestCapacityBitsSingleColour(t *testing.T) {
	if bits := CapacityBits(1); bits != 0 {
		t.Fatalf("CapacityBits(1) = %d, want 0", bits)
	}
}

func TestUniqueColoursDedups(t *testing.T) {
	c := gifcodec.RGB{R: 1, G: 2, B: 3}
	d := gifcodec.RGB{R: 4, G: 5, B: 6}
	colours := []gifcodec.RGB{c, d, c, c, d}

	unique := UniqueColours(colours)
	if len(unique) != 2 || unique[0] != c || unique[1] != d {
		t.Fatalf("got %+v, want first-occurrence-ordered [c d]", unique)
	}
}

func TestEncodePadsDuplicateSlotsWithOriginalLastColour(t *testing.T) {
	c1 := gifcodec.RGB{R: 1}
	c2 := gifcodec.RGB{R: 2}
	last := gifcodec.RGB{R: 9}
	// Three unique colours (c1, c2, last) plus one duplicate slot. With
	// v = 0 the sorted order puts `last` in slot 2, and the pad slot
	// (index 3) takes the original last colour, `last`.
	gi := &gifcodec.Info{
		NumColours: 4,
		Colours:    []gifcodec.RGB{c1, c2, c1, last},
	}
	v := epi.New()

	if err := EncodeColours(gi, v, PlainRGBKey); err != nil {
		t.Fatalf("EncodeColours: %v", err)
	}
	if gi.Colours[2] != last || gi.Colours[3] != last {
		t.Fatalf("padding slots = %+v, %+v, want both %+v", gi.Colours[2], gi.Colours[3], last)
	}
}
