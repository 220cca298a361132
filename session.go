// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"fmt"
	"net"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// Session identifies one peer's 4-tuple plus, where the application reads
// from a wildcard socket on a multi-homed host, the local interface index
// a datagram arrived on. Two peers behind the same NAT on different
// interfaces of this host are distinct Sessions.
//
// Session is comparable and usable as a map key directly; Context keeps
// its peer registry keyed on it.
type Session struct {
	RemoteAddr string // net.UDPAddr.String() of the peer
	IfIndex    int    // 0 when the local socket is not interface-bound
}

// String renders the Session for logging.
func (s Session) String() string {
	if s.IfIndex == 0 {
		return s.RemoteAddr
	}
	return fmt.Sprintf("%s%%if%d", s.RemoteAddr, s.IfIndex)
}

// NewSession builds a Session from a peer address alone, for sockets that
// are not interface-bound (the common case).
func NewSession(remote *net.UDPAddr) Session {
	return Session{RemoteAddr: remote.String()}
}

// SessionFromControlMessage builds a Session from a peer address together
// with the ancillary control message returned alongside a ReadFrom call on
// a golang.org/x/net/ipv4 or ipv6 PacketConn with control-message reporting
// enabled (SetControlMessage(ipv4.FlagInterface, true)). Passing a nil cm
// is equivalent to NewSession. Exactly one of cm4/cm6 should be non-nil;
// both nil falls back to IfIndex 0.
func SessionFromControlMessage(remote *net.UDPAddr, cm4 *ipv4.ControlMessage, cm6 *ipv6.ControlMessage) Session {
	s := NewSession(remote)
	switch {
	case cm4 != nil:
		s.IfIndex = cm4.IfIndex
	case cm6 != nil:
		s.IfIndex = cm6.IfIndex
	}
	return s
}
