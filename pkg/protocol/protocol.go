// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package protocol holds the record-layer wire types shared by the codec,
// the handshake package, and the cipher suite: content types, the protocol
// version field, and the null compression method.
package protocol

// Version is the two-octet DTLS version field. DTLS versions are encoded as
// the one's complement of the nominal TLS version, per RFC 6347 Section
// 4.1.2.1.
type Version struct {
	Major, Minor uint8
}

// Equal reports whether v and o name the same version.
func (v Version) Equal(o Version) bool { return v.Major == o.Major && v.Minor == o.Minor }

var (
	// Version1_0 is DTLS 1.0, wire value 0xFEFF.
	Version1_0 = Version{Major: 0xfe, Minor: 0xff}
	// Version1_2 is DTLS 1.2, wire value 0xFEFD.
	Version1_2 = Version{Major: 0xfe, Minor: 0xfd}
)

// ContentType identifies the payload carried by a record.
type ContentType uint8

// Record content types, RFC 6347 Section 4.1.
const (
	ContentTypeChangeCipherSpec ContentType = 20
	ContentTypeAlert            ContentType = 21
	ContentTypeHandshake        ContentType = 22
	ContentTypeApplicationData  ContentType = 23
)

func (c ContentType) String() string {
	switch c {
	case ContentTypeChangeCipherSpec:
		return "ChangeCipherSpec"
	case ContentTypeAlert:
		return "Alert"
	case ContentTypeHandshake:
		return "Handshake"
	case ContentTypeApplicationData:
		return "ApplicationData"
	default:
		return "Unknown"
	}
}

// CompressionMethodID identifies a compression method. Only Null is
// supported; certificate-based cipher suites and their compression
// negotiation are out of scope.
type CompressionMethodID uint8

// CompressionMethodNull is the only compression method this endpoint offers
// or accepts.
const CompressionMethodNull CompressionMethodID = 0

// CipherSuiteID is the IANA two-byte cipher suite identifier.
type CipherSuiteID uint16

// TLSPSKWithAES128CCM8 is the sole negotiated suite, IANA value 0xC0A8,
// RFC 6655.
const TLSPSKWithAES128CCM8 CipherSuiteID = 0xc0a8

// ChangeCipherSpec is the single-byte body of a ChangeCipherSpec record.
type ChangeCipherSpec struct{}

// Marshal encodes the ChangeCipherSpec body.
func (c ChangeCipherSpec) Marshal() ([]byte, error) { return []byte{1}, nil }

// Unmarshal validates the ChangeCipherSpec body.
func (c *ChangeCipherSpec) Unmarshal(data []byte) error {
	if len(data) < 1 || data[0] != 1 {
		return ErrInvalidCipherSpec
	}
	return nil
}
