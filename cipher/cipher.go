// Package cipher derives a 64-bit block cipher key from a gifshuffle
// password and exposes the block encryption primitive the permutation
// ordering and the 1-bit CFB layer (package cfb) build on.
//
// The reference gifshuffle tool uses the ICE cipher. ICE's source is not
// part of this corpus (the retrieved original_source/ tarball carries
// encrypt.c but not ice.c/ice.h), so bit-for-bit interop with real
// gifshuffle output is out of reach here. Per the design's open question,
// an incompatible rewrite may pick any declared-key-schedule 64-bit block
// cipher; this one uses Blowfish from golang.org/x/crypto, the same
// module the example corpus already depends on (pdfcpu) for block-cipher
// work.
package cipher

import (
	"crypto/sha256"

	"go.uber.org/zap"
	"golang.org/x/crypto/blowfish"
)

// MaxPasswordChars is the character limit after which password_set in the
// reference implementation truncates (128 levels * 64 bits / 7 bits per
// char, rounded down).
const MaxPasswordChars = 1170

// BlockSize is the cipher's block size in bytes.
const BlockSize = 8

// Key wraps a password-derived Blowfish key and exposes single-block
// encryption. A nil *Key means "no password" and every caller must check
// for that before using it (mirroring the reference's ice_key == NULL
// checks).
type Key struct {
	block *blowfish.Cipher
	iv    [BlockSize]byte
}

// packPassword concatenates the low 7 bits of each password byte,
// left-to-right, into a packed big-endian bit buffer, exactly as
// encrypt.c's password_set does. level bounds the buffer to level*8
// bytes (64 bits per level).
func packPassword(passwd string, level int) []byte {
	buf := make([]byte, level*8)

	bitPos := 0
	maxBits := level * 64
	for i := 0; i < len(passwd) && bitPos < maxBits; i++ {
		c := passwd[i] & 0x7f
		idx := bitPos / 8
		bit := bitPos & 7

		switch {
		case bit == 0:
			buf[idx] = c << 1
		case bit == 1:
			buf[idx] |= c
		default:
			buf[idx] |= c >> uint(bit-1)
			if idx+1 < len(buf) {
				buf[idx+1] = c << uint(9-bit)
			}
		}

		bitPos += 7
	}

	return buf
}

// DerivationLevel returns the key-schedule "level" (clamped to [1,128])
// for a password of the given length, matching password_set's
// level = ceil(len*7/64) formula.
func DerivationLevel(passwordLen int) (level int, truncated bool) {
	level = (passwordLen*7 + 63) / 64
	if level == 0 {
		return 1, false
	}
	if level > 128 {
		return 128, true
	}
	return level, false
}

// NewKey derives a Key from a password. An empty password still produces
// a usable level-1 key, with a warning logged through log (nil logger
// disables logging).
func NewKey(passwd string, log *zap.SugaredLogger) *Key {
	level, truncated := DerivationLevel(len(passwd))

	if len(passwd) == 0 && log != nil {
		log.Warn("an empty password is being used")
	}
	if truncated && log != nil {
		log.Warnf("password truncated to %d chars", MaxPasswordChars)
	}

	packed := packPassword(passwd, level)

	// Fold the packed buffer down to a fixed-size Blowfish key with
	// SHA-256, the same role fasaxc-permutation's FFX gives HKDF: turn an
	// arbitrary-length input key into a cipher-sized one.
	sum := sha256.Sum256(packed)
	block, err := blowfish.NewCipher(sum[:])
	if err != nil {
		// blowfish.NewCipher only fails for out-of-range key sizes; a
		// 32-byte SHA-256 digest is always valid.
		panic(err)
	}

	k := &Key{block: block}

	// "Set the initialization vector with the key with itself": encrypt
	// the first block of the packed buffer under the key just derived.
	var first [BlockSize]byte
	copy(first[:], packed)
	k.iv = k.Encrypt(first)

	return k
}

// InitialIV returns the cipher-feedback register's starting value,
// derived by encrypting the first block of the password-derivation
// buffer with the key it produced.
func (k *Key) InitialIV() [BlockSize]byte {
	return k.iv
}

// Encrypt runs one forward block-cipher pass over an 8-byte block.
func (k *Key) Encrypt(src [BlockSize]byte) [BlockSize]byte {
	var dst [BlockSize]byte
	k.block.Encrypt(dst[:], src[:])
	return dst
}

// EncryptColour encrypts an RGB triple padded to a full block, matching
// encrypt_colour's ptext layout ([r,g,b,0,0,0,0,0]).
func (k *Key) EncryptColour(r, g, b byte) [BlockSize]byte {
	var ptext [BlockSize]byte
	ptext[0], ptext[1], ptext[2] = r, g, b
	return k.Encrypt(ptext)
}
