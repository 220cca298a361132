// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package ccm implements the Counter with CBC-MAC AEAD mode (NIST SP
// 800-38C, RFC 3610) over a crypto/cipher.Block. The Go standard library
// does not provide CCM, unlike GCM; this is the primitive
// TLS_PSK_WITH_AES_128_CCM_8 needs.
package ccm

import (
	"crypto/cipher"
	"crypto/subtle"
	"errors"
)

const blockSize = 16

var (
	// ErrTagSize is returned when an unsupported tag length is requested.
	ErrTagSize = errors.New("ccm: invalid tag size")
	// ErrNonceSize is returned when an unsupported nonce length is requested.
	ErrNonceSize = errors.New("ccm: invalid nonce size")
	// ErrOpen is returned by Open on tag mismatch. The comparison itself is
	// constant-time; this error carries no timing signal about which byte
	// differed.
	ErrOpen = errors.New("ccm: message authentication failed")
)

type ccm struct {
	block   cipher.Block
	tagSize int
	nonceN  int // length of the length-of-message field, L
}

// New wraps block in a CCM AEAD using the given nonce size and
// authentication tag size. nonceSize must leave room for the length field:
// nonceSize + lengthFieldSize == 15, and lengthFieldSize is derived as
// 15-nonceSize, so valid nonceSize is 7..13. tagSize must be an even number
// in 4..16.
func New(block cipher.Block, nonceSize, tagSize int) (cipher.AEAD, error) {
	if block.BlockSize() != blockSize {
		return nil, errors.New("ccm: block cipher must have a 128-bit block size")
	}
	if nonceSize < 7 || nonceSize > 13 {
		return nil, ErrNonceSize
	}
	if tagSize < 4 || tagSize > 16 || tagSize%2 != 0 {
		return nil, ErrTagSize
	}
	return &ccm{block: block, tagSize: tagSize, nonceN: 15 - nonceSize}, nil
}

// NewCCM8 wraps block in a CCM AEAD with an 8-byte tag and 12-byte nonce
// (4-byte salt plus 8-byte explicit nonce), exactly what
// TLS_PSK_WITH_AES_128_CCM_8 requires.
func NewCCM8(block cipher.Block) (cipher.AEAD, error) {
	return New(block, 12, 8)
}

func (c *ccm) NonceSize() int { return 15 - c.nonceN }
func (c *ccm) Overhead() int  { return c.tagSize }

func (c *ccm) Seal(dst, nonce, plaintext, additionalData []byte) []byte {
	if len(nonce) != c.NonceSize() {
		panic("ccm: incorrect nonce length given to Seal")
	}

	tag := c.mac(nonce, plaintext, additionalData)
	ret, out := sliceForAppend(dst, len(plaintext)+c.tagSize)
	c.ctrXOR(nonce, 0, out[:len(plaintext)], plaintext)

	s0 := make([]byte, blockSize)
	c.block.Encrypt(s0, c.counterBlock(nonce, 0))
	for i := 0; i < c.tagSize; i++ {
		out[len(plaintext)+i] = tag[i] ^ s0[i]
	}
	return ret
}

func (c *ccm) Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error) {
	if len(nonce) != c.NonceSize() {
		panic("ccm: incorrect nonce length given to Open")
	}
	if len(ciphertext) < c.tagSize {
		return nil, ErrOpen
	}

	ctLen := len(ciphertext) - c.tagSize
	sealedTag := ciphertext[ctLen:]
	body := ciphertext[:ctLen]

	s0 := make([]byte, blockSize)
	c.block.Encrypt(s0, c.counterBlock(nonce, 0))
	gotTag := make([]byte, c.tagSize)
	for i := 0; i < c.tagSize; i++ {
		gotTag[i] = sealedTag[i] ^ s0[i]
	}

	plaintext := make([]byte, ctLen)
	c.ctrXOR(nonce, 0, plaintext, body)

	expectedTag := c.mac(nonce, plaintext, additionalData)
	if subtle.ConstantTimeCompare(gotTag, expectedTag) != 1 {
		for i := range plaintext {
			plaintext[i] = 0
		}
		return nil, ErrOpen
	}

	ret, out := sliceForAppend(dst, len(plaintext))
	copy(out, plaintext)
	return ret, nil
}

// counterBlock builds A_i = flags || nonce || counter(L bytes), used both
// for keystream generation (i>=1) and the MAC-tag mask (i==0).
func (c *ccm) counterBlock(nonce []byte, i uint64) []byte {
	block := make([]byte, blockSize)
	block[0] = byte(c.nonceN - 1)
	copy(block[1:], nonce)
	putCounter(block[1+len(nonce):], i, c.nonceN)
	return block
}

func putCounter(dst []byte, v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		dst[i] = byte(v)
		v >>= 8
	}
}

// ctrXOR encrypts (or decrypts) src into dst using the counter stream
// starting at counter value startCounter+1 (counter 0 is reserved for the
// MAC-tag mask).
func (c *ccm) ctrXOR(nonce []byte, startCounter uint64, dst, src []byte) {
	counter := startCounter + 1
	keystream := make([]byte, blockSize)
	for len(src) > 0 {
		c.block.Encrypt(keystream, c.counterBlock(nonce, counter))
		n := len(src)
		if n > blockSize {
			n = blockSize
		}
		for i := 0; i < n; i++ {
			dst[i] = src[i] ^ keystream[i]
		}
		dst = dst[n:]
		src = src[n:]
		counter++
	}
}

// mac computes the CBC-MAC over B0, the formatted associated data, and the
// plaintext, each block-padded with zeros, returning the full tagSize-byte
// (truncated) MAC.
func (c *ccm) mac(nonce, plaintext, additionalData []byte) []byte {
	b0 := c.formatB0(nonce, len(plaintext), len(additionalData) > 0)

	y := make([]byte, blockSize)
	c.block.Encrypt(y, b0)

	if len(additionalData) > 0 {
		aadField := formatAAD(additionalData)
		for _, block := range splitBlocks(aadField) {
			xorInto(y, block)
			c.block.Encrypt(y, y)
		}
	}

	for _, block := range splitBlocks(plaintext) {
		xorInto(y, block)
		c.block.Encrypt(y, y)
	}

	return y[:c.tagSize]
}

// formatB0 builds B0 = flags(1) || nonce(15-L) || message-length(L).
func (c *ccm) formatB0(nonce []byte, msgLen int, hasAAD bool) []byte {
	b0 := make([]byte, blockSize)
	flags := byte(c.nonceN - 1)
	flags |= byte((c.tagSize-2)/2) << 3
	if hasAAD {
		flags |= 0x40
	}
	b0[0] = flags
	copy(b0[1:], nonce)
	putCounter(b0[1+len(nonce):], uint64(msgLen), c.nonceN)
	return b0
}

// formatAAD encodes additionalData with its RFC 3610 Section 2.2 length
// prefix. Only the 2-byte-length form is implemented: this endpoint's
// associated data is always 13 bytes, far below the 0xFEFF threshold for
// the extended encoding.
func formatAAD(additionalData []byte) []byte {
	out := make([]byte, 2+len(additionalData))
	out[0] = byte(len(additionalData) >> 8)
	out[1] = byte(len(additionalData))
	copy(out[2:], additionalData)
	return out
}

// splitBlocks splits data into zero-padded 16-byte blocks.
func splitBlocks(data []byte) [][]byte {
	if len(data) == 0 {
		return nil
	}
	n := (len(data) + blockSize - 1) / blockSize
	padded := make([]byte, n*blockSize)
	copy(padded, data)

	out := make([][]byte, n)
	for i := 0; i < n; i++ {
		out[i] = padded[i*blockSize : (i+1)*blockSize]
	}
	return out
}

func xorInto(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

func sliceForAppend(in []byte, n int) (head, tail []byte) {
	if total := len(in) + n; cap(in) >= total {
		head = in[:total]
	} else {
		head = make([]byte, total)
		copy(head, in)
	}
	tail = head[len(in):]
	return
}
