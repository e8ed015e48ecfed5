// Package gifcodec parses a GIF87a/89a stream with a global colour map,
// LZW-decompresses each image's pixel stream, and can re-encode it while
// remapping colour indices through an arbitrary permutation. It preserves
// block framing, extension passthrough, and the GIF89a transparency-index
// patching rule.
package gifcodec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// RGB is a single colour-map entry.
type RGB struct {
	R, G, B byte
}

// Less orders RGB values lexicographically by (R, G, B), matching the
// reference implementation's 24-bit packed comparison.
func (a RGB) Less(b RGB) bool {
	if a.R != b.R {
		return a.R < b.R
	}
	if a.G != b.G {
		return a.G < b.G
	}
	return a.B < b.B
}

// Info is the parsed state of a GIF's header and global colour map.
type Info struct {
	Header      [13]byte
	BitsPerPixel int
	NumColours  int
	// Colours is the map written on output; orchestration mutates it to
	// the embedded ordering. OrigColours is the map exactly as parsed and
	// never changes after ReadHeader returns.
	Colours     []RGB
	OrigColours []RGB
}

// ErrNotGIF is returned when the input lacks the GIF magic or a global
// colour map.
var ErrNotGIF = errors.New("gifcodec: not a GIF file with a global colour map")

// ReadHeader reads the 13-byte header and the global colour map. The
// reader is left positioned at the start of the block stream (the first
// introducer byte).
func ReadHeader(r io.Reader) (*Info, error) {
	gi := &Info{}

	if _, err := io.ReadFull(r, gi.Header[:]); err != nil {
		return nil, fmt.Errorf("gifcodec: reading header: %w", err)
	}
	if gi.Header[0] != 'G' || gi.Header[1] != 'I' || gi.Header[2] != 'F' {
		return nil, ErrNotGIF
	}
	if gi.Header[10]&0x80 == 0 {
		return nil, ErrNotGIF
	}

	gi.BitsPerPixel = int(gi.Header[10]&7) + 1
	gi.NumColours = 1 << gi.BitsPerPixel

	buf := make([]byte, gi.NumColours*3)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("gifcodec: reading colour map: %w", err)
	}

	gi.Colours = make([]RGB, gi.NumColours)
	gi.OrigColours = make([]RGB, gi.NumColours)
	for i := 0; i < gi.NumColours; i++ {
		c := RGB{R: buf[i*3], G: buf[i*3+1], B: buf[i*3+2]}
		gi.Colours[i] = c
		gi.OrigColours[i] = c
	}

	return gi, nil
}

// BuildRemap returns cidx such that cidx[i] == j iff OrigColours[i] equals
// the j'th entry of Colours (the post-permutation map). Ties — duplicate
// colours in the input map — resolve to the lowest matching j.
func BuildRemap(gi *Info) []int {
	cidx := make([]int, gi.NumColours)
	for i, orig := range gi.OrigColours {
		for j, c := range gi.Colours {
			if orig == c {
				cidx[i] = j
				break
			}
		}
	}
	return cidx
}

// WriteHeader writes the 13-byte header (with the background-index byte
// remapped through cidx) followed by the current colour map.
func WriteHeader(gi *Info, cidx []int, w io.Writer) error {
	var hdr [13]byte
	copy(hdr[:], gi.Header[:])
	hdr[11] = byte(cidx[hdr[11]])

	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("gifcodec: writing header: %w", err)
	}

	buf := make([]byte, gi.NumColours*3)
	for i, c := range gi.Colours {
		buf[i*3] = c.R
		buf[i*3+1] = c.G
		buf[i*3+2] = c.B
	}
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("gifcodec: writing colour map: %w", err)
	}
	return nil
}

// Transcoder carries the LZW framing parameters that must survive from
// decoding an image to re-encoding it: the sub-block size and clear-code
// threshold observed in the source, and whether the source used an
// explicit end-of-information code. The reference implementation keeps
// these as process statics because it only ever handles one file per run;
// here they are explicit fields threaded through one GIF's images, so two
// Transcoder values never share state across invocations.
type Transcoder struct {
	blockSize      int
	clearCodeIndex int
	maxCode        int
	useEndCode     bool
}

// NewTranscoder returns empty framing state for one GIF stream.
func NewTranscoder() *Transcoder {
	return &Transcoder{}
}

// TranscodeBody copies the block stream following the header, remapping
// colour indices through cidx: extensions pass through verbatim except
// for the GIF89a transparency-index patch, and each image using the
// global colour map is LZW-decompressed, remapped and LZW-recompressed.
func TranscodeBody(t *Transcoder, gi *Info, cidx []int, r io.Reader, w io.Writer) error {
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	for {
		introducer, err := br.ReadByte()
		if err != nil {
			return fmt.Errorf("gifcodec: reading block introducer: %w", err)
		}
		if err := bw.WriteByte(introducer); err != nil {
			return fmt.Errorf("gifcodec: writing block introducer: %w", err)
		}

		switch introducer {
		case ';':
			return bw.Flush()
		case '!':
			if err := filterExtension(cidx, br, bw); err != nil {
				return err
			}
		case ',':
			if err := filterImage(t, gi, cidx, br, bw); err != nil {
				return err
			}
		default:
			return fmt.Errorf("gifcodec: unknown block introducer 0x%02x", introducer)
		}
	}
}

// filterExtension passes an extension block through unchanged, except
// that a GIF89a graphic-control extension's transparency index (byte 3 of
// its first data sub-block, when the transparency flag is set) is
// remapped through cidx.
func filterExtension(cidx []int, br *bufio.Reader, bw *bufio.Writer) error {
	label, err := br.ReadByte()
	if err != nil {
		return fmt.Errorf("gifcodec: reading extension label: %w", err)
	}
	if err := bw.WriteByte(label); err != nil {
		return err
	}
	isGraphicControl := label == 0xf9

	size, err := br.ReadByte()
	if err != nil {
		return fmt.Errorf("gifcodec: reading extension block size: %w", err)
	}
	if err := bw.WriteByte(size); err != nil {
		return err
	}

	for size != 0 {
		buf := make([]byte, size)
		if _, err := io.ReadFull(br, buf); err != nil {
			return fmt.Errorf("gifcodec: reading extension data: %w", err)
		}

		if isGraphicControl && buf[0]&1 != 0 {
			buf[3] = byte(cidx[buf[3]])
		}

		if _, err := bw.Write(buf); err != nil {
			return err
		}

		size, err = br.ReadByte()
		if err != nil {
			return fmt.Errorf("gifcodec: reading extension block size: %w", err)
		}
		if err := bw.WriteByte(size); err != nil {
			return err
		}
	}

	return nil
}

// filterImage reads the 9-byte image descriptor, passes through any local
// colour map untouched, LZW-decompresses the pixel stream, remaps indices
// through cidx (only when the image has no local colour map of its own),
// and LZW-recompresses the result.
func filterImage(t *Transcoder, gi *Info, cidx []int, br *bufio.Reader, bw *bufio.Writer) error {
	var desc [9]byte
	if _, err := io.ReadFull(br, desc[:]); err != nil {
		return fmt.Errorf("gifcodec: reading image descriptor: %w", err)
	}
	if _, err := bw.Write(desc[:]); err != nil {
		return err
	}

	bpp := gi.BitsPerPixel
	localCmap := desc[8]&0x80 != 0
	if localCmap {
		localBpp := int(desc[8]&7) + 1
		bpp = localBpp
		n := 1 << localBpp
		buf := make([]byte, n*3)
		if _, err := io.ReadFull(br, buf); err != nil {
			return fmt.Errorf("gifcodec: reading local colour map: %w", err)
		}
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}

	width := int(desc[4]) | int(desc[5])<<8
	height := int(desc[6]) | int(desc[7])<<8
	if width == 0 || height == 0 {
		return fmt.Errorf("gifcodec: illegal image dimensions %dx%d", width, height)
	}
	size := width * height

	image, err := DecodeImage(t, br, size)
	if err != nil {
		return err
	}

	if !localCmap {
		for i, idx := range image {
			image[i] = byte(cidx[idx])
		}
	}

	return EncodeImage(t, bw, bpp, image)
}

// Transcode writes gi's (possibly permuted) header and colour map, then
// streams the remainder of r to w with every image's pixel indices
// remapped through cidx. It is the single entry point orchestration code
// needs once a GIF has been parsed and cidx has been computed.
func Transcode(gi *Info, cidx []int, r io.Reader, w io.Writer) error {
	if err := WriteHeader(gi, cidx, w); err != nil {
		return err
	}
	return TranscodeBody(NewTranscoder(), gi, cidx, r, w)
}
