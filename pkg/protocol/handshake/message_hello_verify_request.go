// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"errors"

	"github.com/lightdtls/lightdtls/pkg/codec"
	"github.com/lightdtls/lightdtls/pkg/protocol"
)

// MaxCookieLength is the largest cookie this endpoint will send or accept.
const MaxCookieLength = 32

// ErrCookieTooLong is returned when a HelloVerifyRequest carries a cookie
// longer than MaxCookieLength.
var ErrCookieTooLong = errors.New("handshake: cookie too long")

// MessageHelloVerifyRequest is the server's stateless reply to a
// ClientHello that did not carry a valid cookie. RFC 6347 Section 4.2.1.
type MessageHelloVerifyRequest struct {
	Version protocol.Version
	Cookie  []byte
}

// Type returns the handshake Type.
func (m MessageHelloVerifyRequest) Type() Type { return TypeHelloVerifyRequest }

// Marshal encodes the HelloVerifyRequest body.
func (m *MessageHelloVerifyRequest) Marshal() ([]byte, error) {
	if len(m.Cookie) > MaxCookieLength {
		return nil, ErrCookieTooLong
	}
	w := codec.NewWriter()
	w.PutUint8(m.Version.Major)
	w.PutUint8(m.Version.Minor)
	w.PutVector8(m.Cookie)
	return w.Bytes()
}

// Unmarshal decodes the HelloVerifyRequest body.
func (m *MessageHelloVerifyRequest) Unmarshal(data []byte) error {
	r := codec.NewReader(data)
	major, err := r.Uint8()
	if err != nil {
		return err
	}
	minor, err := r.Uint8()
	if err != nil {
		return err
	}
	m.Version = protocol.Version{Major: major, Minor: minor}
	if m.Cookie, err = r.Vector8(); err != nil {
		return err
	}
	if len(m.Cookie) > MaxCookieLength {
		return ErrCookieTooLong
	}
	return nil
}
