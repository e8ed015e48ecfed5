// Package gifshuffle conceals a payload inside a GIF image by permuting
// the entries of its global colour map. Because any permutation of a
// colour map can be compensated for by remapping the pixel-index stream,
// the resulting image is visually identical to the original, while the
// ordering of colours carries log2(N!) bits of covert information,
// where N is the number of distinct colours.
//
// Embed, Extract and Capacity are the three entry points; each is
// independent and safe to call repeatedly in one process — all state is
// built fresh per call, never held in package-level variables.
package gifshuffle

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/mattkwan-go/gifshuffle/bitio"
	"github.com/mattkwan-go/gifshuffle/cfb"
	"github.com/mattkwan-go/gifshuffle/cipher"
	"github.com/mattkwan-go/gifshuffle/gifcodec"
	"github.com/mattkwan-go/gifshuffle/huffman"
	"github.com/mattkwan-go/gifshuffle/permute"
)

// Flags mirrors the CLI's option surface. Password is a pointer so "-p"
// was never given can be distinguished from "-p ''" (the latter still
// derives a level-1 key, with a warning, exactly like the reference
// implementation).
type Flags struct {
	Compress bool
	Quiet    bool
	LegacyV1 bool
	Password *string
}

// byteWriterFunc adapts an io.Writer to huffman.ByteWriter.
type byteWriterFunc func(c byte) error

func (f byteWriterFunc) WriteByte(c byte) error { return f(c) }

func toByteWriter(w io.Writer) huffman.ByteWriter {
	var one [1]byte
	return byteWriterFunc(func(c byte) error {
		one[0] = c
		_, err := w.Write(one[:])
		return err
	})
}

// cipherSink feeds compressed bits through the CFB layer (or straight
// through, if stream has no key) and into the BigInt bit sink.
type cipherSink struct {
	stream *cfb.Stream
	sink   *bitio.Sink
}

func (w *cipherSink) WriteBit(bit int) error {
	return w.sink.WriteBit(w.stream.EncryptBit(bit))
}

func newKeyAndOrder(f Flags, log *zap.SugaredLogger) (*cipher.Key, permute.KeyFunc) {
	if f.Password == nil {
		return nil, permute.PlainRGBKey
	}

	key := cipher.NewKey(*f.Password, log)
	orderKey := permute.PlainRGBKey
	if !f.LegacyV1 {
		orderKey = func(c gifcodec.RGB) []byte {
			ct := key.EncryptColour(c.R, c.G, c.B)
			return ct[:]
		}
	}
	return key, orderKey
}

// Embed reads a GIF from in, conceals payload's bytes in its colour map
// ordering, and writes the result to out. log may be nil to disable
// structured diagnostics; fatal conditions are always returned as an
// error regardless of log.
func Embed(in io.Reader, out io.Writer, payload io.Reader, f Flags, log *zap.SugaredLogger) error {
	key, orderKey := newKeyAndOrder(f, log)
	stream := cfb.New(key)

	sink := bitio.NewSink()
	bitWriter := &cipherSink{stream: stream, sink: sink}

	var enc huffman.Codec
	if f.Compress {
		enc = huffman.NewEncoder(bitWriter)
	} else {
		enc = huffman.NewIdentityEncoder(bitWriter)
	}

	buf := make([]byte, 4096)
	for {
		n, err := payload.Read(buf)
		for _, c := range buf[:n] {
			if werr := enc.WriteByte(c); werr != nil {
				return wrapErr(IoError, werr)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return wrapErr(IoError, fmt.Errorf("reading payload: %w", err))
		}
	}
	if err := enc.Flush(); err != nil {
		return wrapErr(IoError, err)
	}

	v, bitCount := sink.Flush()

	gi, err := gifcodec.ReadHeader(in)
	if err != nil {
		return wrapErr(MalformedGif, err)
	}

	n := len(permute.UniqueColours(gi.Colours))
	max := permute.MaxValue(n)
	maxBits := max.BitLen()

	if bitCount > maxBits || v.Big().Cmp(max.Big()) > 0 {
		if maxBits == 0 {
			if log != nil {
				log.Warn("GIF file has no storage space")
			}
			return wrapErr(CapacityExceeded, fmt.Errorf("GIF file has no storage space"))
		}
		pct := (float64(bitCount)/float64(maxBits) - 1.0) * 100.0
		return wrapErr(CapacityExceeded, fmt.Errorf(
			"message exceeded available space by approximately %.2f%%", pct))
	}

	if err := permute.EncodeColours(gi, v, orderKey); err != nil {
		return wrapErr(CapacityExceeded, err)
	}

	cidx := gifcodec.BuildRemap(gi)
	if err := gifcodec.Transcode(gi, cidx, in, out); err != nil {
		return wrapErr(MalformedGif, err)
	}

	if !f.Quiet && log != nil {
		log.Infof("message used approximately %.2f%% of available space",
			float64(bitCount)/float64(maxBits)*100.0)
	}

	return nil
}

// Extract reads a GIF from in, recovers the payload concealed in its
// colour map ordering, and writes it to out.
func Extract(in io.Reader, out io.Writer, f Flags, log *zap.SugaredLogger) error {
	key, orderKey := newKeyAndOrder(f, log)
	stream := cfb.New(key)

	gi, err := gifcodec.ReadHeader(in)
	if err != nil {
		return wrapErr(MalformedGif, err)
	}

	v := permute.DecodeColours(gi, orderKey)

	bw := toByteWriter(out)
	var dec huffman.Uncodec
	if f.Compress {
		dec = huffman.NewDecoder(bw)
	} else {
		dec = huffman.NewIdentityDecoder(bw)
	}

	src := bitio.NewSource(v)
	drainErr := src.Drain(func(bit int) error {
		p := stream.DecryptBit(bit)
		return dec.ReadBit(p)
	})
	if drainErr != nil {
		return wrapErr(IoError, drainErr)
	}
	if err := dec.Flush(); err != nil {
		return wrapErr(IoError, err)
	}

	return nil
}

// Capacity reports the usable payload capacity of the GIF read from in,
// in bits and bytes, written to w.
func Capacity(in io.Reader, w io.Writer) error {
	gi, err := gifcodec.ReadHeader(in)
	if err != nil {
		return wrapErr(MalformedGif, err)
	}

	n := len(permute.UniqueColours(gi.Colours))
	bits := permute.CapacityBits(n)

	if _, err := fmt.Fprintf(w, "File has storage capacity of %d bits (%d bytes)\n", bits, bits/8); err != nil {
		return wrapErr(IoError, err)
	}
	return nil
}
