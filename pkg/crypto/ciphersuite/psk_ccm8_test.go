// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ciphersuite

import (
	"bytes"
	"testing"

	"github.com/lightdtls/lightdtls/pkg/protocol"
	"github.com/lightdtls/lightdtls/pkg/protocol/record"
)

func testKeys() (localKey, localIV, remoteKey, remoteIV []byte) {
	return bytes.Repeat([]byte{0x11}, KeyLength),
		bytes.Repeat([]byte{0x22}, SaltLength),
		bytes.Repeat([]byte{0x33}, KeyLength),
		bytes.Repeat([]byte{0x44}, SaltLength)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	lk, lIV, rk, rIV := testKeys()
	sender, err := New(lk, lIV, rk, rIV)
	if err != nil {
		t.Fatal(err)
	}
	receiver, err := New(rk, rIV, lk, lIV)
	if err != nil {
		t.Fatal(err)
	}

	hdr := &record.Header{
		ContentType:    protocol.ContentTypeApplicationData,
		Version:        protocol.Version1_2,
		Epoch:          1,
		SequenceNumber: 0,
	}
	rec := &record.Record{Header: *hdr, Content: []byte("ping")}
	raw, err := rec.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	sealed, err := sender.Encrypt(hdr, raw)
	if err != nil {
		t.Fatal(err)
	}

	var gotHdr record.Header
	if err := gotHdr.Unmarshal(sealed); err != nil {
		t.Fatal(err)
	}

	opened, err := receiver.Decrypt(gotHdr, sealed)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(opened[record.FixedHeaderSize:], []byte("ping")) {
		t.Fatalf("got %q want %q", opened[record.FixedHeaderSize:], "ping")
	}
}

func TestDecryptRejectsFlippedTagByte(t *testing.T) {
	lk, lIV, rk, rIV := testKeys()
	sender, err := New(lk, lIV, rk, rIV)
	if err != nil {
		t.Fatal(err)
	}
	receiver, err := New(rk, rIV, lk, lIV)
	if err != nil {
		t.Fatal(err)
	}

	hdr := &record.Header{
		ContentType:    protocol.ContentTypeApplicationData,
		Version:        protocol.Version1_2,
		Epoch:          1,
		SequenceNumber: 7,
	}
	rec := &record.Record{Header: *hdr, Content: []byte("ping")}
	raw, err := rec.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	sealed, err := sender.Encrypt(hdr, raw)
	if err != nil {
		t.Fatal(err)
	}
	sealed[len(sealed)-1] ^= 0xff

	var gotHdr record.Header
	if err := gotHdr.Unmarshal(sealed); err != nil {
		t.Fatal(err)
	}
	if _, err := receiver.Decrypt(gotHdr, sealed); err == nil {
		t.Fatal("expected bad tag to fail decryption")
	}
}
