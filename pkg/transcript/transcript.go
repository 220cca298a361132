// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package transcript implements the running handshake-message hash used to
// compute and verify Finished.VerifyData, RFC 5246 Section 7.4.9.
package transcript

import (
	"crypto/sha256"
	"hash"

	"github.com/lightdtls/lightdtls/pkg/protocol/handshake"
)

// Transcript accumulates every handshake message fed to it, in issue/
// receipt order, with fragment_offset and fragment_length normalised to
// match length (this endpoint never fragments, so that is already true of
// every message it builds or accepts). HelloVerifyRequest and the
// pre-cookie ClientHello are excluded by the caller simply never calling
// Write for them.
type Transcript struct {
	h hash.Hash
}

// New returns an empty Transcript.
func New() *Transcript {
	return &Transcript{h: sha256.New()}
}

// Write feeds one handshake message, header and body together, into the
// running hash.
func (t *Transcript) Write(h *handshake.Handshake) error {
	raw, err := h.Marshal()
	if err != nil {
		return err
	}
	_, err = t.h.Write(raw)
	return err
}

// WriteRaw feeds an already-marshaled handshake message (header + body) as
// received off the wire, avoiding a re-marshal/re-encode round trip that
// could (in principle) fail to byte-for-byte match what the peer hashed.
func (t *Transcript) WriteRaw(raw []byte) error {
	_, err := t.h.Write(raw)
	return err
}

// Sum returns SHA-256 of every message written so far, without consuming
// the running state: further Write calls continue to build on it.
func (t *Transcript) Sum() []byte {
	return t.h.Sum(nil)
}

// Reset discards all accumulated state. Used on the client when a
// HelloVerifyRequest arrives: the pre-cookie ClientHello must not appear in
// the transcript, so the client starts over once it resends ClientHello
// with the cookie.
func (t *Transcript) Reset() {
	t.h = sha256.New()
}
