// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"errors"

	"github.com/lightdtls/lightdtls/pkg/codec"
	"github.com/lightdtls/lightdtls/pkg/protocol"
	"github.com/zmap/zcrypto/tls"
)

var (
	errCipherSuiteUnset       = errors.New("handshake: cipher suite unset")
	errCompressionMethodUnset = errors.New("handshake: compression method unset")
)

// MessageServerHello is sent once the server has picked PSK/AES-128-CCM-8
// for a cookie-validated ClientHello. RFC 5246 Section 7.4.1.3.
type MessageServerHello struct {
	Version           protocol.Version
	Random            Random
	SessionID         []byte
	CipherSuiteID     *protocol.CipherSuiteID
	CompressionMethod *protocol.CompressionMethodID
}

// Type returns the handshake Type.
func (m MessageServerHello) Type() Type { return TypeServerHello }

// Marshal encodes the ServerHello body.
func (m *MessageServerHello) Marshal() ([]byte, error) {
	if m.CipherSuiteID == nil {
		return nil, errCipherSuiteUnset
	}
	if m.CompressionMethod == nil {
		return nil, errCompressionMethodUnset
	}

	w := codec.NewWriter()
	w.PutUint8(m.Version.Major)
	w.PutUint8(m.Version.Minor)
	rnd := m.Random.MarshalFixed()
	w.PutBytes(rnd[:])
	w.PutVector8(m.SessionID)
	w.PutUint16(uint16(*m.CipherSuiteID))
	w.PutUint8(uint8(*m.CompressionMethod))
	return w.Bytes()
}

// Unmarshal decodes the ServerHello body.
func (m *MessageServerHello) Unmarshal(data []byte) error {
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

	randRaw, err := r.Bytes(RandomLength)
	if err != nil {
		return err
	}
	var fixed [RandomLength]byte
	copy(fixed[:], randRaw)
	m.Random.UnmarshalFixed(fixed)

	if m.SessionID, err = r.Vector8(); err != nil {
		return err
	}

	suite, err := r.Uint16()
	if err != nil {
		return err
	}
	id := protocol.CipherSuiteID(suite)
	m.CipherSuiteID = &id

	cm, err := r.Uint8()
	if err != nil {
		return err
	}
	cmID := protocol.CompressionMethodID(cm)
	m.CompressionMethod = &cmID

	return nil
}

// MakeLog builds the zcrypto summary of this ServerHello, for handshake
// observability (Peer.HandshakeLog).
func (m *MessageServerHello) MakeLog() *tls.ServerHello {
	ret := &tls.ServerHello{}
	ret.Version = tls.TLSVersion((uint16(m.Version.Major) << 8) | uint16(m.Version.Minor))
	rnd := m.Random.MarshalFixed()
	ret.Random = append([]byte{}, rnd[:]...)
	ret.SessionID = append([]byte{}, m.SessionID...)
	if m.CipherSuiteID != nil {
		ret.CipherSuite = tls.CipherSuiteID(*m.CipherSuiteID)
	}
	if m.CompressionMethod != nil {
		ret.CompressionMethod = uint8(*m.CompressionMethod)
	}
	return ret
}
