// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import "errors"

// Sentinel errors for the §7 error kinds that are not already distinct
// types elsewhere in the module (codec.ErrBufferTooShort, ccm.ErrOpen,
// replay.ErrStale/ErrReplay all double as their own kind).
var (
	// ErrProtocolViolation reports an unexpected handshake message for the
	// peer's current state.
	ErrProtocolViolation = errors.New("dtls: protocol violation")
	// ErrUnknownIdentity reports a PSK identity the application's GetKey
	// callback did not recognise.
	ErrUnknownIdentity = errors.New("dtls: unknown psk identity")
	// ErrHandshakeTimeout reports that the retransmit attempt ceiling was
	// exceeded.
	ErrHandshakeTimeout = errors.New("dtls: handshake timeout")
	// ErrResourceExhausted reports a full peer table.
	ErrResourceExhausted = errors.New("dtls: peer table full")
	// ErrBadRecord reports a malformed header, wrong version, or AEAD tag
	// failure on an established peer.
	ErrBadRecord = errors.New("dtls: bad record")

	// ErrNilContext is returned by entry points called with a nil *Context.
	ErrNilContext = errors.New("dtls: nil context")
	// ErrContextClosed is returned by entry points called after Free.
	ErrContextClosed = errors.New("dtls: context closed")
	// ErrNoSuchPeer is returned by Write/Close when no peer exists for the
	// given Session.
	ErrNoSuchPeer = errors.New("dtls: no such peer")
	// ErrNotConnected is returned by Write when the peer has not yet
	// completed the handshake.
	ErrNotConnected = errors.New("dtls: peer not connected")
	// ErrMissingPSKCallback is returned by NewContext when no GetKey
	// capability was configured.
	ErrMissingPSKCallback = errors.New("dtls: config missing GetKey callback")
	// ErrMissingWriteCallback is returned by NewContext when no Write
	// capability was configured.
	ErrMissingWriteCallback = errors.New("dtls: config missing Write callback")
)
