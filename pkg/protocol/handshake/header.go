// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package handshake implements the DTLS handshake header and the handshake
// message bodies needed for the PSK/AES-128-CCM-8 flow: ClientHello,
// HelloVerifyRequest, ServerHello, ServerHelloDone, ClientKeyExchange (PSK
// identity), and Finished.
package handshake

import (
	"errors"

	"github.com/lightdtls/lightdtls/pkg/codec"
)

// HeaderLength is the on-wire size of a handshake header.
const HeaderLength = 12

// ErrLengthMismatch is returned when Unmarshal finds fewer bytes than the
// header declares.
var ErrLengthMismatch = errors.New("handshake: length mismatch")

// Header is msg_type(1) || length(3) || message_seq(2) ||
// fragment_offset(3) || fragment_length(3), RFC 6347 Section 4.2.2. This
// endpoint never reassembles fragments: a message is only accepted when
// FragmentOffset == 0 and FragmentLength == Length.
type Header struct {
	Type            Type
	Length          uint32 // 24 bits significant
	MessageSequence uint16
	FragmentOffset  uint32 // 24 bits significant
	FragmentLength  uint32 // 24 bits significant
}

// IsFragment reports whether this header describes a partial message that
// this endpoint must drop rather than reassemble.
func (h Header) IsFragment() bool {
	return h.FragmentOffset != 0 || h.FragmentLength != h.Length
}

// Marshal encodes the header.
func (h *Header) Marshal() ([]byte, error) {
	w := codec.NewWriter()
	w.PutUint8(uint8(h.Type))
	w.PutUint24(h.Length)
	w.PutUint16(h.MessageSequence)
	w.PutUint24(h.FragmentOffset)
	w.PutUint24(h.FragmentLength)
	return w.Bytes()
}

// Unmarshal decodes the header from the front of data.
func (h *Header) Unmarshal(data []byte) error {
	r := codec.NewReader(data)
	t, err := r.Uint8()
	if err != nil {
		return err
	}
	length, err := r.Uint24()
	if err != nil {
		return err
	}
	seq, err := r.Uint16()
	if err != nil {
		return err
	}
	off, err := r.Uint24()
	if err != nil {
		return err
	}
	flen, err := r.Uint24()
	if err != nil {
		return err
	}
	h.Type = Type(t)
	h.Length = length
	h.MessageSequence = seq
	h.FragmentOffset = off
	h.FragmentLength = flen
	return nil
}

// Message is implemented by every handshake message body.
type Message interface {
	Type() Type
	Marshal() ([]byte, error)
	Unmarshal(data []byte) error
}

// Handshake pairs a Header with its decoded Message body.
type Handshake struct {
	Header  Header
	Message Message
}

// Marshal encodes Header (with Length/FragmentLength derived from the
// marshaled message) followed by the message body.
func (h *Handshake) Marshal() ([]byte, error) {
	body, err := h.Message.Marshal()
	if err != nil {
		return nil, err
	}
	h.Header.Type = h.Message.Type()
	h.Header.Length = uint32(len(body))
	h.Header.FragmentOffset = 0
	h.Header.FragmentLength = uint32(len(body))

	head, err := h.Header.Marshal()
	if err != nil {
		return nil, err
	}
	return append(head, body...), nil
}

// Unmarshal decodes a header and dispatches the body to the matching
// Message implementation. Fragmented messages are rejected with
// ErrLengthMismatch; the caller is expected to drop rather than buffer
// them.
func (h *Handshake) Unmarshal(data []byte) error {
	if err := h.Header.Unmarshal(data); err != nil {
		return err
	}
	if h.Header.IsFragment() {
		return ErrLengthMismatch
	}
	body := data[HeaderLength:]
	if uint32(len(body)) < h.Header.Length {
		return ErrLengthMismatch
	}
	body = body[:h.Header.Length]

	msg, err := newMessage(h.Header.Type)
	if err != nil {
		return err
	}
	if err := msg.Unmarshal(body); err != nil {
		return err
	}
	h.Message = msg
	return nil
}

func newMessage(t Type) (Message, error) {
	switch t {
	case TypeClientHello:
		return &MessageClientHello{}, nil
	case TypeHelloVerifyRequest:
		return &MessageHelloVerifyRequest{}, nil
	case TypeServerHello:
		return &MessageServerHello{}, nil
	case TypeServerHelloDone:
		return &MessageServerHelloDone{}, nil
	case TypeClientKeyExchange:
		return &MessageClientKeyExchange{}, nil
	case TypeFinished:
		return &MessageFinished{}, nil
	default:
		return nil, errUnknownMessageType
	}
}

var errUnknownMessageType = errors.New("handshake: unknown message type")
