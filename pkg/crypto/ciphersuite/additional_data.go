// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ciphersuite

import (
	"github.com/lightdtls/lightdtls/pkg/codec"
	"github.com/lightdtls/lightdtls/pkg/protocol"
)

// generateAdditionalData builds the TLS 1.2 AEAD associated data:
// seq_num(8) || type(1) || version(2) || length(2), RFC 5246 Section 6.2.3.3.
// seq_num here is epoch(2)||sequence(6), matching the explicit nonce.
func generateAdditionalData(seq uint64, epoch uint16, contentType protocol.ContentType, version protocol.Version, plaintextLen int) []byte {
	w := codec.NewWriter()
	w.PutUint16(epoch)
	w.PutUint48(seq)
	w.PutUint8(uint8(contentType))
	w.PutUint8(version.Major)
	w.PutUint8(version.Minor)
	w.PutUint16(uint16(plaintextLen))

	out, _ := w.Bytes()
	return out
}
