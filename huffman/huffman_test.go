package huffman

import (
	"bytes"
	"testing"
)

// bitCollector implements BitWriter by recording bits into a slice.
type bitCollector struct {
	bits []int
}

func (c *bitCollector) WriteBit(b int) error {
	c.bits = append(c.bits, b)
	return nil
}

func TestTableIsCompletePrefixCode(t *testing.T) {
	lens := codeLengths()
	if len(lens) != 256 {
		t.Fatalf("expected 256 code lengths, got %d", len(lens))
	}

	// Kraft's inequality must be an equality for a complete binary code.
	var sum float64
	for _, l := range lens {
		if l <= 0 {
			t.Fatalf("non-positive code length %d", l)
		}
		shift := 1.0
		for i := 0; i < l; i++ {
			shift /= 2
		}
		sum += shift
	}
	if sum < 0.999999 || sum > 1.000001 {
		t.Fatalf("Kraft sum = %v, want ~1.0 for a complete code", sum)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	msg := []byte("the quick brown fox jumps over the lazy dog")

	bc := &bitCollector{}
	enc := NewEncoder(bc)
	for _, c := range msg {
		if err := enc.WriteByte(c); err != nil {
			t.Fatalf("WriteByte: %v", err)
		}
	}
	if err := enc.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	var out bytes.Buffer
	dec := NewDecoder(&out)
	for _, bit := range bc.bits {
		if err := dec.ReadBit(bit); err != nil {
			t.Fatalf("ReadBit: %v", err)
		}
	}
	if err := dec.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if out.String() != string(msg) {
		t.Fatalf("got %q, want %q", out.String(), string(msg))
	}
}

func TestEncodeDecodeArbitraryBytes(t *testing.T) {
	msg := make([]byte, 256)
	for i := range msg {
		msg[i] = byte(i)
	}

	bc := &bitCollector{}
	enc := NewEncoder(bc)
	for _, c := range msg {
		enc.WriteByte(c)
	}

	var out bytes.Buffer
	dec := NewDecoder(&out)
	for _, bit := range bc.bits {
		dec.ReadBit(bit)
	}

	if !bytes.Equal(out.Bytes(), msg) {
		t.Fatalf("round trip over all byte values failed")
	}
}

func TestIdentityCodecRoundTrip(t *testing.T) {
	msg := []byte("binary\x00\x01\xffpayload")

	bc := &bitCollector{}
	enc := NewIdentityEncoder(bc)
	for _, c := range msg {
		enc.WriteByte(c)
	}
	enc.Flush()

	var out bytes.Buffer
	dec := NewIdentityDecoder(&out)
	for _, bit := range bc.bits {
		dec.ReadBit(bit)
	}
	dec.Flush()

	if !bytes.Equal(out.Bytes(), msg) {
		t.Fatalf("identity round trip failed: got %q want %q", out.Bytes(), msg)
	}
}

func TestCommonLettersAreShorterThanRareBytes(t *testing.T) {
	short := sharedTable.encode[' '].length
	long := sharedTable.encode[0x01].length
	if short >= long {
		t.Fatalf("space code length %d should be shorter than control-byte length %d", short, long)
	}
}
