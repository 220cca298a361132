// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"time"

	"github.com/pion/logging"

	"github.com/lightdtls/lightdtls/pkg/protocol"
)

// Defaults for the retransmit and lifecycle knobs, matching the
// flight-retransmission backoff pion/dtls/v2 uses for its own flight
// state machine.
const (
	DefaultRetransmitInitialBackoff = time.Second
	DefaultRetransmitMaxBackoff     = 60 * time.Second
	DefaultRetransmitMaxAttempts    = 7
	DefaultPeerIdleTimeout          = 5 * time.Minute
	DefaultMaxDatagramSize          = 1200
	DefaultMaxPeers                 = 4096
)

// Role selects whether a Context's peers run the client or server side of
// the handshake.
type Role int

const (
	RoleServer Role = iota
	RoleClient
)

// Config configures a Context. Zero-value fields are replaced with the
// package defaults by NewContext.
type Config struct {
	// Role selects the handshake side every peer of this Context plays.
	// Zero value is RoleServer.
	Role Role

	// ProtocolVersion selects the wire version field: protocol.Version1_2
	// (0xfefd, the default) or protocol.Version1_0 (0xfeff), fixed for the
	// Context's lifetime.
	ProtocolVersion protocol.Version

	// MaxDatagramSize sizes the Context's scratch read/write buffers.
	// Datagrams above this size on ingress are rejected with ErrBadRecord;
	// outbound records are not checked against it.
	MaxDatagramSize int

	// CookieRotationPeriod is passed to cookie.NewService. Server role
	// only; ignored for a client-role Context.
	CookieRotationPeriod time.Duration

	// RetransmitInitialBackoff, RetransmitMaxBackoff, and
	// RetransmitMaxAttempts govern the exponential-backoff flight
	// retransmission timer.
	RetransmitInitialBackoff time.Duration
	RetransmitMaxBackoff     time.Duration
	RetransmitMaxAttempts    int

	// PeerIdleTimeout evicts a Connected peer that has neither sent nor
	// received a record for this long, freeing its registry slot and
	// zeroising its keys. Zero selects DefaultPeerIdleTimeout; a negative
	// value disables idle eviction.
	PeerIdleTimeout time.Duration

	// MaxPeers bounds the registry; Connect beyond this returns
	// ErrResourceExhausted.
	MaxPeers int

	// Handler is the application's capability record.
	Handler Handler

	// LoggerFactory builds the per-Context LeveledLogger, following pion/
	// logging's convention. A nil factory selects
	// logging.NewDefaultLoggerFactory(), which logs at LogLevelWarn.
	LoggerFactory logging.LoggerFactory
}

// withDefaults returns a copy of c with every zero-value field replaced by
// its package default.
func (c Config) withDefaults() Config {
	if c.ProtocolVersion == (protocol.Version{}) {
		c.ProtocolVersion = protocol.Version1_2
	}
	if c.MaxDatagramSize <= 0 {
		c.MaxDatagramSize = DefaultMaxDatagramSize
	}
	if c.CookieRotationPeriod <= 0 {
		c.CookieRotationPeriod = time.Hour
	}
	if c.RetransmitInitialBackoff <= 0 {
		c.RetransmitInitialBackoff = DefaultRetransmitInitialBackoff
	}
	if c.RetransmitMaxBackoff <= 0 {
		c.RetransmitMaxBackoff = DefaultRetransmitMaxBackoff
	}
	if c.RetransmitMaxAttempts <= 0 {
		c.RetransmitMaxAttempts = DefaultRetransmitMaxAttempts
	}
	if c.PeerIdleTimeout == 0 {
		c.PeerIdleTimeout = DefaultPeerIdleTimeout
	}
	if c.MaxPeers <= 0 {
		c.MaxPeers = DefaultMaxPeers
	}
	if c.LoggerFactory == nil {
		c.LoggerFactory = logging.NewDefaultLoggerFactory()
	}
	return c
}
