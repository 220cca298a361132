// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import "github.com/lightdtls/lightdtls/pkg/codec"

// MessageClientKeyExchange carries the PSK identity the client is
// presenting. X.509/Diffie-Hellman key-exchange variants are out of
// scope. RFC 4279 Section 2.
type MessageClientKeyExchange struct {
	IdentityHint []byte
}

// Type returns the handshake Type.
func (m MessageClientKeyExchange) Type() Type { return TypeClientKeyExchange }

// Marshal encodes the ClientKeyExchange body.
func (m *MessageClientKeyExchange) Marshal() ([]byte, error) {
	w := codec.NewWriter()
	w.PutVector16(m.IdentityHint)
	return w.Bytes()
}

// Unmarshal decodes the ClientKeyExchange body.
func (m *MessageClientKeyExchange) Unmarshal(data []byte) error {
	r := codec.NewReader(data)
	hint, err := r.Vector16()
	if err != nil {
		return err
	}
	m.IdentityHint = hint
	return nil
}
