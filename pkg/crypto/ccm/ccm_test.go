// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ccm

import (
	"bytes"
	"crypto/aes"
	"testing"
)

func newTestAEAD(t *testing.T) interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	NonceSize() int
	Overhead() int
} {
	t.Helper()
	key := bytes.Repeat([]byte{0x42}, 16)
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	aead, err := NewCCM8(block)
	if err != nil {
		t.Fatal(err)
	}
	return aead
}

func TestSealOpenRoundTrip(t *testing.T) {
	aead := newTestAEAD(t)
	nonce := bytes.Repeat([]byte{0x01}, aead.NonceSize())
	ad := []byte{0, 0, 0, 0, 0, 0, 0, 1, 23, 0xfe, 0xfd, 0x00, 0x04}
	plaintext := []byte("ping")

	sealed := aead.Seal(nil, nonce, plaintext, ad)
	if len(sealed) != len(plaintext)+aead.Overhead() {
		t.Fatalf("unexpected sealed length %d", len(sealed))
	}

	opened, err := aead.Open(nil, nonce, sealed, ad)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Fatalf("got %q want %q", opened, plaintext)
	}
}

func TestOpenRejectsTamperedTag(t *testing.T) {
	aead := newTestAEAD(t)
	nonce := bytes.Repeat([]byte{0x02}, aead.NonceSize())
	ad := []byte{0, 0, 0, 0, 0, 0, 0, 2, 23, 0xfe, 0xfd, 0x00, 0x04}
	plaintext := []byte("ping")

	sealed := aead.Seal(nil, nonce, plaintext, ad)
	sealed[len(sealed)-1] ^= 0xff

	if _, err := aead.Open(nil, nonce, sealed, ad); err == nil {
		t.Fatal("expected tag mismatch error")
	}
}

func TestOpenRejectsTamperedAAD(t *testing.T) {
	aead := newTestAEAD(t)
	nonce := bytes.Repeat([]byte{0x03}, aead.NonceSize())
	ad := []byte{0, 0, 0, 0, 0, 0, 0, 3, 23, 0xfe, 0xfd, 0x00, 0x04}
	plaintext := []byte("ping")

	sealed := aead.Seal(nil, nonce, plaintext, ad)
	tamperedAD := append([]byte{}, ad...)
	tamperedAD[0] ^= 0xff

	if _, err := aead.Open(nil, nonce, sealed, tamperedAD); err == nil {
		t.Fatal("expected tag mismatch error for tampered associated data")
	}
}
