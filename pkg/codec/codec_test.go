// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package codec

import (
	"bytes"
	"testing"
)

func TestRoundTripFixedWidth(t *testing.T) {
	w := NewWriter()
	w.PutUint8(0xAB)
	w.PutUint16(0x1234)
	w.PutUint24(0x010203)
	w.PutUint32(0xdeadbeef)
	w.PutUint48(0x0001020304ff)
	raw, err := w.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	r := NewReader(raw)
	if v, err := r.Uint8(); err != nil || v != 0xAB {
		t.Fatalf("Uint8: %v, %v", v, err)
	}
	if v, err := r.Uint16(); err != nil || v != 0x1234 {
		t.Fatalf("Uint16: %v, %v", v, err)
	}
	if v, err := r.Uint24(); err != nil || v != 0x010203 {
		t.Fatalf("Uint24: %v, %v", v, err)
	}
	if v, err := r.Uint32(); err != nil || v != 0xdeadbeef {
		t.Fatalf("Uint32: %v, %v", v, err)
	}
	if v, err := r.Uint48(); err != nil || v != 0x0001020304ff {
		t.Fatalf("Uint48: %v, %v", v, err)
	}
	if r.Len() != 0 {
		t.Fatalf("expected exhausted reader, %d bytes remain", r.Len())
	}
}

func TestVectors(t *testing.T) {
	w := NewWriter()
	w.PutVector8([]byte("hi"))
	w.PutVector16(bytes.Repeat([]byte{0x42}, 300))
	w.PutVector24(bytes.Repeat([]byte{0x7}, 70000))
	raw, err := w.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	r := NewReader(raw)
	v8, err := r.Vector8()
	if err != nil || string(v8) != "hi" {
		t.Fatalf("Vector8: %q, %v", v8, err)
	}
	v16, err := r.Vector16()
	if err != nil || len(v16) != 300 {
		t.Fatalf("Vector16: len=%d, %v", len(v16), err)
	}
	v24, err := r.Vector24()
	if err != nil || len(v24) != 70000 {
		t.Fatalf("Vector24: len=%d, %v", len(v24), err)
	}
}

func TestBufferTooShort(t *testing.T) {
	r := NewReader([]byte{0x01})
	if _, err := r.Uint16(); err != ErrBufferTooShort {
		t.Fatalf("expected ErrBufferTooShort, got %v", err)
	}
	r2 := NewReader([]byte{})
	if _, err := r2.Uint8(); err != ErrBufferTooShort {
		t.Fatalf("expected ErrBufferTooShort, got %v", err)
	}
}
