// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

// MessageServerHelloDone has an empty body; it marks the end of the
// server's flight. RFC 5246 Section 7.4.5.
type MessageServerHelloDone struct{}

// Type returns the handshake Type.
func (m MessageServerHelloDone) Type() Type { return TypeServerHelloDone }

// Marshal encodes the (empty) ServerHelloDone body.
func (m *MessageServerHelloDone) Marshal() ([]byte, error) { return []byte{}, nil }

// Unmarshal accepts only an empty body.
func (m *MessageServerHelloDone) Unmarshal(data []byte) error {
	if len(data) != 0 {
		return ErrLengthMismatch
	}
	return nil
}
