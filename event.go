// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

// Event is a code delivered to Handler.Event, reporting a peer lifecycle
// transition.
type Event int

// Event codes. Codes below 256 are alert descriptions, delivered with the
// alert's level for every alert sent or received; 256 and above, delivered
// with level 0, are engine-level conditions with no wire representation.
const (
	// EventConnected reports that the handshake completed and the peer is
	// ready for Write/application data.
	EventConnected Event = 256 + iota
	// EventClosed reports that the peer was torn down, either by a local
	// Close call, a received close_notify, or a fatal alert.
	EventClosed
	// EventHandshakeTimeout reports that the retransmission ceiling was
	// reached without completing the handshake.
	EventHandshakeTimeout
)

// String returns a short human-readable name, for logging.
func (e Event) String() string {
	switch e {
	case EventConnected:
		return "connected"
	case EventClosed:
		return "closed"
	case EventHandshakeTimeout:
		return "handshake-timeout"
	default:
		return "event-unknown"
	}
}
