// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package ciphersuite implements the AEAD record protector for
// TLS_PSK_WITH_AES_128_CCM_8: explicit-nonce framing and associated-data
// formatting over pkg/crypto/ccm, per RFC 6655.
package ciphersuite

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"

	"github.com/lightdtls/lightdtls/pkg/codec"
	"github.com/lightdtls/lightdtls/pkg/crypto/ccm"
	"github.com/lightdtls/lightdtls/pkg/protocol/record"
)

// KeyLength is the AES-128 key size in bytes.
const KeyLength = 16

// SaltLength is the implicit IV (salt) size in bytes.
const SaltLength = 4

// ExplicitNonceLength is the on-wire explicit nonce size: epoch(2) ||
// sequence(6).
const ExplicitNonceLength = 8

// TagLength is the CCM-8 authentication tag size.
const TagLength = 8

// ErrNotEnoughRoomForNonce is returned by Decrypt when the ciphertext is too
// short to contain an explicit nonce and tag.
var ErrNotEnoughRoomForNonce = errors.New("ciphersuite: not enough room for nonce")

// PSKWithAES128CCM8 is the sole negotiated cipher suite's record protector.
// A peer holds a single instance, installed as soon as the key schedule has
// run; records at epoch 0 bypass it and records at epoch 1 or above go
// through it. There is no separate pending instance promoted at
// ChangeCipherSpec: the epoch counters alone decide when it takes effect.
type PSKWithAES128CCM8 struct {
	localAEAD, remoteAEAD       cipher.AEAD
	localWriteIV, remoteWriteIV []byte
}

// New derives a PSKWithAES128CCM8 from the write-direction keys and IVs
// produced by prf.GenerateEncryptionKeys. Which of (localKey,localIV) is
// the client or server write side is the caller's responsibility, matching
// the current read/write direction recorded in the peer's security
// parameters.
func New(localKey, localWriteIV, remoteKey, remoteWriteIV []byte) (*PSKWithAES128CCM8, error) {
	localBlock, err := aes.NewCipher(localKey)
	if err != nil {
		return nil, err
	}
	localAEAD, err := ccm.NewCCM8(localBlock)
	if err != nil {
		return nil, err
	}

	remoteBlock, err := aes.NewCipher(remoteKey)
	if err != nil {
		return nil, err
	}
	remoteAEAD, err := ccm.NewCCM8(remoteBlock)
	if err != nil {
		return nil, err
	}

	return &PSKWithAES128CCM8{
		localAEAD:     localAEAD,
		localWriteIV:  localWriteIV,
		remoteAEAD:    remoteAEAD,
		remoteWriteIV: remoteWriteIV,
	}, nil
}

// Encrypt seals a plaintext record. raw is the already-marshaled cleartext
// record (header + plaintext payload); the returned slice is
// header || explicit_nonce || ciphertext || tag, with the header's length
// field rewritten to match.
func (c *PSKWithAES128CCM8) Encrypt(hdr *record.Header, raw []byte) ([]byte, error) {
	payload := raw[record.FixedHeaderSize:]
	head := raw[:record.FixedHeaderSize]

	explicitNonce := make([]byte, ExplicitNonceLength)
	w := codec.NewWriter()
	w.PutUint16(hdr.Epoch)
	w.PutUint48(hdr.SequenceNumber)
	enc, err := w.Bytes()
	if err != nil {
		return nil, err
	}
	copy(explicitNonce, enc)

	nonce := make([]byte, 0, SaltLength+ExplicitNonceLength)
	nonce = append(nonce, c.localWriteIV...)
	nonce = append(nonce, explicitNonce...)

	ad := generateAdditionalData(hdr.SequenceNumber, hdr.Epoch, hdr.ContentType, hdr.Version, len(payload))
	sealed := c.localAEAD.Seal(nil, nonce, payload, ad)

	out := make([]byte, len(head)+len(explicitNonce)+len(sealed))
	copy(out, head)
	copy(out[len(head):], explicitNonce)
	copy(out[len(head)+len(explicitNonce):], sealed)

	hdrLenOffset := record.FixedHeaderSize - 2
	newLen := uint16(len(explicitNonce) + len(sealed))
	out[hdrLenOffset] = byte(newLen >> 8)
	out[hdrLenOffset+1] = byte(newLen)

	return out, nil
}

// Decrypt opens a protected record. hdr must already be the unmarshaled
// cleartext header of in. Returns the reassembled cleartext record (header
// + plaintext payload) on success.
func (c *PSKWithAES128CCM8) Decrypt(hdr record.Header, in []byte) ([]byte, error) {
	if len(in) < record.FixedHeaderSize+ExplicitNonceLength+TagLength {
		return nil, ErrNotEnoughRoomForNonce
	}

	explicitNonce := in[record.FixedHeaderSize : record.FixedHeaderSize+ExplicitNonceLength]
	ciphertext := in[record.FixedHeaderSize+ExplicitNonceLength:]

	nonce := make([]byte, 0, SaltLength+ExplicitNonceLength)
	nonce = append(nonce, c.remoteWriteIV...)
	nonce = append(nonce, explicitNonce...)

	plaintextLen := len(ciphertext) - TagLength
	ad := generateAdditionalData(hdr.SequenceNumber, hdr.Epoch, hdr.ContentType, hdr.Version, plaintextLen)

	plaintext, err := c.remoteAEAD.Open(nil, nonce, ciphertext, ad)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, record.FixedHeaderSize+len(plaintext))
	out = append(out, in[:record.FixedHeaderSize]...)
	out = append(out, plaintext...)
	return out, nil
}
