// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package codec provides bounds-checked big-endian encoding for the
// u8/u16/u24/u32/u48 fields and length-prefixed vectors used throughout the
// DTLS record and handshake wire formats.
package codec

import (
	"errors"

	"golang.org/x/crypto/cryptobyte"
)

// ErrBufferTooShort is returned by every Reader method when the underlying
// buffer does not hold enough bytes to satisfy the read.
var ErrBufferTooShort = errors.New("codec: buffer too short")

// Reader wraps cryptobyte.String with the fixed-width and length-prefixed
// vector reads this wire format needs, translating cryptobyte's boolean
// failures into ErrBufferTooShort.
type Reader struct {
	s cryptobyte.String
}

// NewReader creates a Reader over buf. The Reader does not take ownership
// of buf and never mutates it.
func NewReader(buf []byte) *Reader {
	return &Reader{s: cryptobyte.String(buf)}
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int { return len(r.s) }

// Uint8 reads one byte.
func (r *Reader) Uint8() (uint8, error) {
	var v uint8
	if !r.s.ReadUint8(&v) {
		return 0, ErrBufferTooShort
	}
	return v, nil
}

// Uint16 reads a 16-bit big-endian field.
func (r *Reader) Uint16() (uint16, error) {
	var v uint16
	if !r.s.ReadUint16(&v) {
		return 0, ErrBufferTooShort
	}
	return v, nil
}

// Uint24 reads a 24-bit big-endian field, returned widened to uint32.
func (r *Reader) Uint24() (uint32, error) {
	var v uint32
	if !r.s.ReadUint24(&v) {
		return 0, ErrBufferTooShort
	}
	return v, nil
}

// Uint32 reads a 32-bit big-endian field.
func (r *Reader) Uint32() (uint32, error) {
	var v uint32
	if !r.s.ReadUint32(&v) {
		return 0, ErrBufferTooShort
	}
	return v, nil
}

// Uint48 reads a 48-bit big-endian field, returned widened to uint64. There
// is no native cryptobyte primitive for 48-bit fields, so the six octets are
// read individually and combined.
func (r *Reader) Uint48() (uint64, error) {
	var raw []byte
	if !r.s.ReadBytes(&raw, 6) {
		return 0, ErrBufferTooShort
	}
	var v uint64
	for _, b := range raw {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

// Bytes reads exactly n raw bytes.
func (r *Reader) Bytes(n int) ([]byte, error) {
	var raw []byte
	if !r.s.ReadBytes(&raw, n) {
		return nil, ErrBufferTooShort
	}
	return raw, nil
}

// Vector8 reads a vector whose length is given by a preceding 1-byte field.
func (r *Reader) Vector8() ([]byte, error) {
	var v cryptobyte.String
	if !r.s.ReadUint8LengthPrefixed(&v) {
		return nil, ErrBufferTooShort
	}
	return []byte(v), nil
}

// Vector16 reads a vector whose length is given by a preceding 2-byte field.
func (r *Reader) Vector16() ([]byte, error) {
	var v cryptobyte.String
	if !r.s.ReadUint16LengthPrefixed(&v) {
		return nil, ErrBufferTooShort
	}
	return []byte(v), nil
}

// Vector24 reads a vector whose length is given by a preceding 3-byte field.
func (r *Reader) Vector24() ([]byte, error) {
	var v cryptobyte.String
	if !r.s.ReadUint24LengthPrefixed(&v) {
		return nil, ErrBufferTooShort
	}
	return []byte(v), nil
}

// Rest returns and consumes every remaining byte.
func (r *Reader) Rest() []byte {
	out := append([]byte{}, r.s...)
	r.s = r.s[len(r.s):]
	return out
}

// Writer accumulates a wire-format message.
type Writer struct {
	b cryptobyte.Builder
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// PutUint8 appends one byte.
func (w *Writer) PutUint8(v uint8) { w.b.AddUint8(v) }

// PutUint16 appends a 16-bit big-endian field.
func (w *Writer) PutUint16(v uint16) { w.b.AddUint16(v) }

// PutUint24 appends a 24-bit big-endian field; the top byte of v is ignored.
func (w *Writer) PutUint24(v uint32) { w.b.AddUint24(v) }

// PutUint32 appends a 32-bit big-endian field.
func (w *Writer) PutUint32(v uint32) { w.b.AddUint32(v) }

// PutUint48 appends a 48-bit big-endian field; the top 16 bits of v are
// ignored.
func (w *Writer) PutUint48(v uint64) {
	var raw [6]byte
	for i := 5; i >= 0; i-- {
		raw[i] = byte(v)
		v >>= 8
	}
	w.b.AddBytes(raw[:])
}

// PutBytes appends raw bytes verbatim.
func (w *Writer) PutBytes(p []byte) { w.b.AddBytes(p) }

// PutVector8 appends p prefixed by its 1-byte length.
func (w *Writer) PutVector8(p []byte) {
	w.b.AddUint8LengthPrefixed(func(c *cryptobyte.Builder) { c.AddBytes(p) })
}

// PutVector16 appends p prefixed by its 2-byte length.
func (w *Writer) PutVector16(p []byte) {
	w.b.AddUint16LengthPrefixed(func(c *cryptobyte.Builder) { c.AddBytes(p) })
}

// PutVector24 appends p prefixed by its 3-byte length.
func (w *Writer) PutVector24(p []byte) {
	w.b.AddUint24LengthPrefixed(func(c *cryptobyte.Builder) { c.AddBytes(p) })
}

// Bytes returns the accumulated buffer. The Writer must not be used
// afterward if the caller mutates the returned slice.
func (w *Writer) Bytes() ([]byte, error) {
	return w.b.Bytes()
}
