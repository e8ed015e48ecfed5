// Package cfb implements the 1-bit cipher-feedback mode gifshuffle wraps
// around its block cipher to turn the compressed payload bitstream into
// an encrypted one (and back).
package cfb

import "github.com/mattkwan-go/gifshuffle/cipher"

// Stream holds the cipher-feedback register for one direction of travel
// (encrypt or decrypt — the bit math is symmetric, only which bit feeds
// the register differs). A nil key makes the stream an identity
// pass-through, matching the reference's "if no password, bypass CFB".
type Stream struct {
	key *cipher.Key
	iv  [cipher.BlockSize]byte
}

// New creates a CFB stream. If key is nil the stream is an identity
// pass-through.
func New(key *cipher.Key) *Stream {
	s := &Stream{key: key}
	if key != nil {
		s.iv = key.InitialIV()
	}
	return s
}

// rotateIn shifts the 8-byte register one bit left (as a single 64-bit
// value) and inserts bit at the LSB.
func (s *Stream) rotateIn(bit int) {
	for i := 0; i < 8; i++ {
		s.iv[i] <<= 1
		if i < 7 && s.iv[i+1]&0x80 != 0 {
			s.iv[i] |= 1
		}
	}
	s.iv[7] |= byte(bit & 1)
}

// EncryptBit turns one plaintext bit into one ciphertext bit.
func (s *Stream) EncryptBit(p int) int {
	if s.key == nil {
		return p
	}

	ks := s.key.Encrypt(s.iv)
	c := p
	if ks[0]&0x80 != 0 {
		c = 1 - c
	}

	s.rotateIn(c)
	return c
}

// DecryptBit turns one ciphertext bit back into one plaintext bit.
func (s *Stream) DecryptBit(c int) int {
	if s.key == nil {
		return c
	}

	ks := s.key.Encrypt(s.iv)
	p := c
	if ks[0]&0x80 != 0 {
		p = 1 - p
	}

	s.rotateIn(c)
	return p
}
