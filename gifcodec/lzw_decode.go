package gifcodec

import (
	"bufio"
	"fmt"
)

const maxLZWBits = 12

// lzwBitReader refills a sliding 16-bit-window buffer from length-prefixed
// GIF sub-blocks, mirroring the reference get_lwz_code's LWZ_BUFFER.
type lzwBitReader struct {
	buf       [280]byte
	currBit   int
	lastBit   int
	lastByte  int
	done      bool
	zeroBlock bool
}

// getDataBlock reads one length-prefixed sub-block into buf, recording
// the first observed size as the Transcoder's block size (used later when
// re-encoding, to match the source's packet granularity).
func (t *Transcoder) getDataBlock(br *bufio.Reader, buf []byte) (int, error) {
	countByte, err := br.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("gifcodec: reading data block size: %w", err)
	}
	count := int(countByte)

	if count > 0 {
		if _, err := readFull(br, buf[:count]); err != nil {
			return 0, fmt.Errorf("gifcodec: reading data block: %w", err)
		}
	}

	if t.blockSize == 0 {
		t.blockSize = count
	}

	return count, nil
}

func readFull(br *bufio.Reader, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := br.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// getLWZCode returns the next code_size-bit code, refilling lb from sub-
// blocks as needed. ok is false once the input is exhausted (either
// cleanly, via a declared end, or because no more sub-blocks remain);
// that is not itself an error, callers decide whether exhaustion at that
// point is acceptable.
func (t *Transcoder) getLWZCode(br *bufio.Reader, codeSize int, lb *lzwBitReader) (int, bool, error) {
	if lb.currBit+codeSize >= lb.lastBit {
		if lb.done {
			if lb.currBit >= lb.lastBit {
				return 0, false, fmt.Errorf("gifcodec: uncompression exceeded end")
			}
			return 0, false, nil
		}

		if lb.lastByte >= 2 {
			lb.buf[0] = lb.buf[lb.lastByte-2]
			lb.buf[1] = lb.buf[lb.lastByte-1]
		}

		count, err := t.getDataBlock(br, lb.buf[2:])
		if err != nil {
			return 0, false, err
		}
		lb.zeroBlock = count == 0
		if count == 0 {
			lb.done = true
		}

		lb.lastByte = count + 2
		lb.currBit += 16 - lb.lastBit
		lb.lastBit = lb.lastByte * 8
	}

	ret := 0
	i := lb.currBit
	for j := 0; j < codeSize; i, j = i+1, j+1 {
		if lb.buf[i/8]&(1<<uint(i%8)) != 0 {
			ret |= 1 << uint(j)
		}
	}
	lb.currBit += codeSize

	return ret, true, nil
}

// lzwDecoder holds the prefix/suffix table and expansion stack used to
// unpack codes into pixel bytes, mirroring LWZ_PARAMS.
type lzwDecoder struct {
	codeSize    int
	setCodeSize int
	maxCode     int
	maxCodeSize int
	firstCode   int
	oldCode     int
	clearCode   int
	endCode     int
	prefix      [1 << maxLZWBits]int
	suffix      [1 << maxLZWBits]int
	stack       [2 << maxLZWBits]int
	sp          int
	fresh       bool
}

func newLZWDecoder(inputCodeSize int) *lzwDecoder {
	d := &lzwDecoder{
		setCodeSize: inputCodeSize,
		codeSize:    inputCodeSize + 1,
		fresh:       true,
	}
	d.clearCode = 1 << inputCodeSize
	d.endCode = d.clearCode + 1
	d.maxCodeSize = 2 * d.clearCode
	d.maxCode = d.clearCode + 2

	for i := 0; i < d.clearCode; i++ {
		d.prefix[i] = 0
		d.suffix[i] = i
	}
	for i := d.clearCode; i < 1<<maxLZWBits; i++ {
		d.prefix[i] = 0
		d.suffix[i] = 0
	}

	return d
}

// readByte decodes the next pixel byte. ok is false at clean end of
// stream.
func (t *Transcoder) readByte(br *bufio.Reader, d *lzwDecoder, lb *lzwBitReader) (int, bool, error) {
	if d.fresh {
		d.fresh = false
		for {
			code, ok, err := t.getLWZCode(br, d.codeSize, lb)
			if err != nil {
				return 0, false, err
			}
			if !ok {
				return 0, false, nil
			}
			d.oldCode = code
			d.firstCode = code
			if d.firstCode != d.clearCode {
				break
			}
		}
		return d.firstCode, true, nil
	}

	if d.sp > 0 {
		d.sp--
		return d.stack[d.sp], true, nil
	}

	for {
		code, ok, err := t.getLWZCode(br, d.codeSize, lb)
		if err != nil {
			return 0, false, err
		}
		if !ok {
			return 0, false, nil
		}

		if code == d.clearCode {
			if t.maxCode >= t.clearCodeIndex {
				t.clearCodeIndex = t.maxCode + 1
			}

			for i := 0; i < code; i++ {
				d.prefix[i] = 0
				d.suffix[i] = i
			}
			for i := code; i < 1<<maxLZWBits; i++ {
				d.prefix[i] = 0
				d.suffix[i] = 0
			}

			d.codeSize = d.setCodeSize + 1
			d.maxCodeSize = d.clearCode * 2
			d.maxCode = d.clearCode + 2
			d.sp = 0

			next, ok, err := t.getLWZCode(br, d.codeSize, lb)
			if err != nil {
				return 0, false, err
			}
			if !ok {
				return 0, false, nil
			}
			d.oldCode = next
			d.firstCode = next
			return d.firstCode, true, nil
		}

		if code == d.endCode {
			t.useEndCode = true
			if lb.zeroBlock {
				return 0, false, nil
			}
			for {
				var buf [260]byte
				count, err := t.getDataBlock(br, buf[:])
				if err != nil {
					return 0, false, err
				}
				if count <= 0 {
					break
				}
			}
			return 0, false, nil
		}

		incode := code
		if code >= d.maxCode {
			d.stack[d.sp] = d.firstCode
			d.sp++
			code = d.oldCode
		}

		for code >= d.clearCode {
			d.stack[d.sp] = d.suffix[code]
			d.sp++
			if code == d.prefix[code] {
				return 0, false, fmt.Errorf("gifcodec: circular table entry")
			}
			code = d.prefix[code]
		}

		d.firstCode = d.suffix[code]
		d.stack[d.sp] = d.firstCode
		d.sp++

		if code := d.maxCode; code < 1<<maxLZWBits {
			d.prefix[code] = d.oldCode
			d.suffix[code] = d.firstCode
			d.maxCode++
			if d.maxCode >= d.maxCodeSize && d.maxCodeSize < 1<<maxLZWBits {
				d.maxCodeSize *= 2
				d.codeSize++
			}
			if code > t.maxCode {
				t.maxCode = code
			}
		}

		d.oldCode = incode

		if d.sp > 0 {
			d.sp--
			return d.stack[d.sp], true, nil
		}
	}
}

// DecodeImage LZW-decompresses a size-byte pixel stream.
func DecodeImage(t *Transcoder, br *bufio.Reader, size int) ([]byte, error) {
	codeSizeByte, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("gifcodec: reading LZW code size: %w", err)
	}

	d := newLZWDecoder(int(codeSizeByte))
	lb := &lzwBitReader{}

	image := make([]byte, 0, size)
	for len(image) < size {
		v, ok, err := t.readByte(br, d, lb)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		image = append(image, byte(v))
	}

	if len(image) < size {
		return nil, fmt.Errorf("gifcodec: incomplete image data")
	}
	if d.sp > 0 {
		return nil, fmt.Errorf("gifcodec: too much image data")
	}

	// The code after the last pixel is an explicit END or the final
	// byte's padding bits; the remaining sub-blocks are skipped.
	if !lb.done {
		code, ok, err := t.getLWZCode(br, d.codeSize, lb)
		if err != nil {
			return nil, err
		}
		t.useEndCode = t.useEndCode || (ok && code == d.endCode)
	}
	for !lb.done {
		count, err := t.getDataBlock(br, lb.buf[2:])
		if err != nil {
			return nil, err
		}
		lb.done = count == 0
	}

	return image, nil
}
