// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import "github.com/lightdtls/lightdtls/pkg/protocol/alert"

// Identity is a PSK identity/key pair, as returned by Handler.GetKey for a
// local identity presentation (id == nil) or looked up by remote identity
// otherwise.
type Identity struct {
	Identity []byte
	Key      []byte
}

// Handler is the capability record the application binds at context
// configuration time: four synchronous callbacks covering transmit,
// receive, event notification, and PSK lookup. The engine holds a
// non-owning reference for its lifetime; it never stores a back-pointer
// into the application's own state.
//
// Every method is called synchronously and must not block: all of Write,
// Read, Event, and GetKey run on the caller's stack inside Connect, Write,
// Close, HandleMessage, or CheckRetransmit.
type Handler struct {
	// Write transmits one datagram to the peer identified by session. The
	// engine does not retry short writes and does not tear down the peer
	// over a failed write. A non-nil error is returned by Connect, Write,
	// and HandleMessage when their own sends fail; a return value below
	// len(p) is reported only by Context.Write, as ErrBadRecord.
	Write func(session Session, p []byte) (n int, err error)

	// Read delivers verified application plaintext. Required for any
	// endpoint that exchanges application data after the handshake; may be
	// nil for a pure handshake/test harness, in which case application
	// records are dropped silently after decryption.
	Read func(session Session, p []byte)

	// Event delivers alert and engine-level notifications. May be nil, in
	// which case events are no-ops.
	Event func(session Session, level alert.Level, code int)

	// GetKey looks up PSK material. id == nil requests the local identity
	// to present in ClientKeyExchange / accept in ServerHello; any other
	// id is a remote-presented identity to resolve. A nil Key in the
	// returned Identity (or a non-nil error) is a miss: the engine issues
	// a fatal UnknownPSKIdentity alert and closes the peer. Required.
	GetKey func(session Session, id []byte) (Identity, error)
}

// validate reports ErrMissingWriteCallback / ErrMissingPSKCallback when a
// required capability is absent.
func (h Handler) validate() error {
	if h.Write == nil {
		return ErrMissingWriteCallback
	}
	if h.GetKey == nil {
		return ErrMissingPSKCallback
	}
	return nil
}

func (h Handler) event(session Session, level alert.Level, code int) {
	if h.Event != nil {
		h.Event(session, level, code)
	}
}

func (h Handler) read(session Session, p []byte) {
	if h.Read != nil {
		h.Read(session, p)
	}
}
