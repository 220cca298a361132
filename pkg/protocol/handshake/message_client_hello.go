// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"github.com/lightdtls/lightdtls/pkg/codec"
	"github.com/lightdtls/lightdtls/pkg/protocol"
)

// MessageClientHello is the first message a client sends, and the message
// it resends once carrying the server's cookie. RFC 6347 Section 4.2.1.
type MessageClientHello struct {
	Version            protocol.Version
	Random             Random
	SessionID          []byte
	Cookie             []byte
	CipherSuiteIDs     []protocol.CipherSuiteID
	CompressionMethods []protocol.CompressionMethodID
}

// Type returns the handshake Type.
func (m MessageClientHello) Type() Type { return TypeClientHello }

// Marshal encodes the ClientHello body.
func (m *MessageClientHello) Marshal() ([]byte, error) {
	w := codec.NewWriter()
	w.PutUint8(m.Version.Major)
	w.PutUint8(m.Version.Minor)
	rnd := m.Random.MarshalFixed()
	w.PutBytes(rnd[:])
	w.PutVector8(m.SessionID)
	w.PutVector8(m.Cookie)

	cs := codec.NewWriter()
	for _, id := range m.CipherSuiteIDs {
		cs.PutUint16(uint16(id))
	}
	csBytes, err := cs.Bytes()
	if err != nil {
		return nil, err
	}
	w.PutVector16(csBytes)

	cm := make([]byte, len(m.CompressionMethods))
	for i, id := range m.CompressionMethods {
		cm[i] = byte(id)
	}
	w.PutVector8(cm)

	return w.Bytes()
}

// Unmarshal decodes the ClientHello body. Extensions, if present, are
// ignored: this endpoint negotiates only PSK/AES-128-CCM-8 with null
// compression, so no extension changes its behaviour.
func (m *MessageClientHello) Unmarshal(data []byte) error {
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
	if m.Cookie, err = r.Vector8(); err != nil {
		return err
	}

	csRaw, err := r.Vector16()
	if err != nil {
		return err
	}
	csr := codec.NewReader(csRaw)
	m.CipherSuiteIDs = nil
	for csr.Len() > 0 {
		id, err := csr.Uint16()
		if err != nil {
			return err
		}
		m.CipherSuiteIDs = append(m.CipherSuiteIDs, protocol.CipherSuiteID(id))
	}

	cmRaw, err := r.Vector8()
	if err != nil {
		return err
	}
	m.CompressionMethods = nil
	for _, b := range cmRaw {
		m.CompressionMethods = append(m.CompressionMethods, protocol.CompressionMethodID(b))
	}

	return nil
}
