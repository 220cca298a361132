// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package record implements the DTLS record header: type(1) || version(2)
// || epoch(2) || sequence(6) || length(2), RFC 6347 Section 4.1.
package record

import (
	"github.com/lightdtls/lightdtls/pkg/codec"
	"github.com/lightdtls/lightdtls/pkg/protocol"
)

// FixedHeaderSize is the on-wire size of a record header in octets.
const FixedHeaderSize = 13

// MaxSequenceNumber is the largest value the 48-bit sequence field can hold.
const MaxSequenceNumber = (uint64(1) << 48) - 1

// Header is the cleartext prefix of every DTLS record.
type Header struct {
	ContentType    protocol.ContentType
	Version        protocol.Version
	Epoch          uint16
	SequenceNumber uint64 // 48 bits significant
	ContentLen     uint16
}

// Marshal encodes the header.
func (h *Header) Marshal() ([]byte, error) {
	w := codec.NewWriter()
	w.PutUint8(uint8(h.ContentType))
	w.PutUint8(h.Version.Major)
	w.PutUint8(h.Version.Minor)
	w.PutUint16(h.Epoch)
	w.PutUint48(h.SequenceNumber)
	w.PutUint16(h.ContentLen)
	return w.Bytes()
}

// Unmarshal decodes the header from the front of data.
func (h *Header) Unmarshal(data []byte) error {
	r := codec.NewReader(data)
	ct, err := r.Uint8()
	if err != nil {
		return err
	}
	major, err := r.Uint8()
	if err != nil {
		return err
	}
	minor, err := r.Uint8()
	if err != nil {
		return err
	}
	epoch, err := r.Uint16()
	if err != nil {
		return err
	}
	seq, err := r.Uint48()
	if err != nil {
		return err
	}
	length, err := r.Uint16()
	if err != nil {
		return err
	}

	h.ContentType = protocol.ContentType(ct)
	h.Version = protocol.Version{Major: major, Minor: minor}
	h.Epoch = epoch
	h.SequenceNumber = seq
	h.ContentLen = length
	return nil
}

// Record pairs a Header with its decoded Content. Content is never
// persisted except as ciphertext in transit.
type Record struct {
	Header  Header
	Content []byte
}

// Marshal encodes the header followed by Content, setting ContentLen from
// len(Content).
func (r *Record) Marshal() ([]byte, error) {
	r.Header.ContentLen = uint16(len(r.Content))
	head, err := r.Header.Marshal()
	if err != nil {
		return nil, err
	}
	return append(head, r.Content...), nil
}

// Unmarshal decodes a header and slices off exactly ContentLen bytes of
// content; trailing bytes (if any) are left for the caller, matching a
// datagram that may carry several coalesced records.
func (r *Record) Unmarshal(data []byte) (rest []byte, err error) {
	if err := r.Header.Unmarshal(data); err != nil {
		return nil, err
	}
	start := FixedHeaderSize
	end := start + int(r.Header.ContentLen)
	if len(data) < end {
		return nil, codec.ErrBufferTooShort
	}
	r.Content = append([]byte{}, data[start:end]...)
	return data[end:], nil
}
