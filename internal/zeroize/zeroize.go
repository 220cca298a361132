// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package zeroize scrubs buffers that held key material. Acquisition is
// scoped to a peer's lifetime; every such buffer is zeroised on peer
// destruction and on any fatal path that discards the peer.
package zeroize

// Bytes overwrites every byte of b with zero. It does not free or resize b.
func Bytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// All zeroises every buffer in bs.
func All(bs ...[]byte) {
	for _, b := range bs {
		Bytes(b)
	}
}
