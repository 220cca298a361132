// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package dtls implements a connectionless, callback-driven, single-
// threaded DTLS endpoint restricted to the PSK/AES-128-CCM-8 handshake: no
// internal goroutines, no internal I/O, no X.509. A Context multiplexes
// many peers, each identified by a Session, and the application drives
// ingress, egress, and the retransmission clock explicitly.
package dtls

import (
	"time"

	"github.com/pion/logging"

	"github.com/lightdtls/lightdtls/pkg/cookie"
	"github.com/lightdtls/lightdtls/pkg/protocol"
	"github.com/lightdtls/lightdtls/pkg/protocol/alert"
	"github.com/lightdtls/lightdtls/pkg/protocol/record"
)

// ConnectResult reports whether Connect started a new handshake or found
// one already in flight for the given Session.
type ConnectResult int

const (
	ConnectStarted ConnectResult = iota
	ConnectExists
)

// Context is the process-wide engine state: configuration, the peer
// registry keyed by Session, the cookie service (server role), and the
// scratch buffers used while processing one call.
//
// A Context is not safe for concurrent use; the application must serialise
// every call, and must not re-enter any Context method from inside a
// Handler callback.
type Context struct {
	cfg     Config
	cookies *cookie.Service
	peers   map[Session]*peer
	closed  bool
	log     logging.LeveledLogger

	scratchRead  []byte
	scratchWrite []byte

	// AppData is an opaque pointer the application may stash at creation
	// time and retrieve later; the engine never reads or writes it.
	AppData any
}

// NewContext creates a Context. appData is stored verbatim in
// Context.AppData. Returns ErrMissingWriteCallback / ErrMissingPSKCallback
// if cfg.Handler is missing a required capability.
func NewContext(cfg Config, appData any) (*Context, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Handler.validate(); err != nil {
		return nil, err
	}

	var cookies *cookie.Service
	if cfg.Role == RoleServer {
		var err error
		cookies, err = cookie.NewService(cfg.CookieRotationPeriod)
		if err != nil {
			return nil, err
		}
	}

	return &Context{
		cfg:          cfg,
		cookies:      cookies,
		peers:        make(map[Session]*peer),
		scratchRead:  make([]byte, cfg.MaxDatagramSize),
		scratchWrite: make([]byte, 0, cfg.MaxDatagramSize),
		AppData:      appData,
		log:          cfg.LoggerFactory.NewLogger("dtls"),
	}, nil
}

// Free tears down every peer, zeroising key material, and marks the
// Context closed. Further calls return ErrContextClosed.
func (ctx *Context) Free() {
	if ctx == nil || ctx.closed {
		return
	}
	for session, p := range ctx.peers {
		p.zeroiseKeys()
		delete(ctx.peers, session)
	}
	ctx.closed = true
}

// Connect starts (or reports the existence of) a client-role handshake
// toward session. Only valid for a RoleClient Context.
func (ctx *Context) Connect(session Session, now time.Time) (ConnectResult, error) {
	if ctx == nil {
		return 0, ErrNilContext
	}
	if ctx.closed {
		return 0, ErrContextClosed
	}
	if ctx.cfg.Role != RoleClient {
		return 0, ErrProtocolViolation
	}
	if _, ok := ctx.peers[session]; ok {
		return ConnectExists, nil
	}
	if len(ctx.peers) >= ctx.cfg.MaxPeers {
		return 0, ErrResourceExhausted
	}

	p := newPeer(session, true, now)
	ctx.peers[session] = p
	if err := ctx.clientStartHandshake(p, now); err != nil {
		delete(ctx.peers, session)
		return 0, err
	}
	return ConnectStarted, nil
}

// Write seals and transmits an application-data record to a Connected
// peer, returning the number of plaintext bytes accepted.
func (ctx *Context) Write(session Session, p []byte, now time.Time) (int, error) {
	if ctx == nil {
		return 0, ErrNilContext
	}
	if ctx.closed {
		return 0, ErrContextClosed
	}
	pr, ok := ctx.peers[session]
	if !ok {
		return 0, ErrNoSuchPeer
	}
	if pr.state != stateConnected {
		return 0, ErrNotConnected
	}

	raw, err := ctx.sealApplicationData(pr, p)
	if err != nil {
		return 0, err
	}
	n, err := ctx.cfg.Handler.Write(session, raw)
	if err != nil {
		return 0, err
	}
	pr.lastActivity = now
	if n < len(raw) {
		return 0, ErrBadRecord
	}
	return len(p), nil
}

// Close sends close_notify to session's peer (if connected) and discards
// the peer and its pending retransmits.
func (ctx *Context) Close(session Session, now time.Time) error {
	if ctx == nil {
		return ErrNilContext
	}
	if ctx.closed {
		return ErrContextClosed
	}
	pr, ok := ctx.peers[session]
	if !ok {
		return ErrNoSuchPeer
	}
	if pr.state == stateConnected {
		ctx.sendAlert(pr, alert.Warning, alert.CloseNotify, now) //nolint:errcheck // best-effort notify on teardown
	}
	ctx.destroyPeer(pr, EventClosed)
	return nil
}

// HandleMessage processes one datagram received for session, dispatching
// by content type to the record layer, handshake FSM, alert handler, or
// the application Read callback.
func (ctx *Context) HandleMessage(session Session, data []byte, now time.Time) error {
	if ctx == nil {
		return ErrNilContext
	}
	if ctx.closed {
		return ErrContextClosed
	}
	if len(data) > ctx.cfg.MaxDatagramSize {
		return ErrBadRecord
	}

	rest := data
	for len(rest) > 0 {
		var rec record.Record
		next, err := rec.Unmarshal(rest)
		if err != nil {
			// Malformed coalesced record: drop the remainder of the
			// datagram silently.
			return nil
		}
		rest = next

		if err := ctx.handleRecord(session, &rec, now); err != nil {
			return err
		}
	}
	return nil
}

func (ctx *Context) handleRecord(session Session, rec *record.Record, now time.Time) error {
	pr, ok := ctx.peers[session]
	if !ok {
		if rec.Header.ContentType != protocol.ContentTypeHandshake || rec.Header.Epoch != 0 {
			// Records for unknown peers that are not a ClientHello are
			// silently dropped, RFC 6347 Section 4.2.
			return nil
		}
		if ctx.cfg.Role != RoleServer {
			return nil
		}
		// No peer is created here: a server must not commit any state to
		// an address until that address has proven it can receive traffic
		// by echoing back a valid cookie (RFC 6347 Section 4.2.1). Cookie
		// verification and any resulting peer allocation happen entirely
		// inside serverHandleFirstContact.
		return ctx.serverHandleFirstContact(session, rec, now)
	}
	pr.lastActivity = now
	return ctx.dispatchRecord(pr, rec, now)
}

// destroyPeer discards a peer's registry entry and zeroises its keys,
// firing the Closed event.
func (ctx *Context) destroyPeer(pr *peer, evt Event) {
	ctx.log.Tracef("%s: %s -> closed (%s)", srvCliStr(pr.isClient), pr.session, evt)
	pr.zeroiseKeys()
	pr.state = stateClosed
	delete(ctx.peers, pr.session)
	ctx.cfg.Handler.event(pr.session, 0, int(evt))
}

// srvCliStr names which side of the handshake a trace line describes.
func srvCliStr(isClient bool) string {
	if isClient {
		return "client"
	}
	return "server"
}

// CheckRetransmit drives the ack-less retransmission timer: the
// application must call this periodically with the current time. Peers
// whose flight timer has elapsed have their
// last flight resent; peers past RetransmitMaxAttempts are closed with
// EventHandshakeTimeout. Idle Connected peers past PeerIdleTimeout are
// evicted.
func (ctx *Context) CheckRetransmit(now time.Time) error {
	if ctx == nil {
		return ErrNilContext
	}
	if ctx.closed {
		return ErrContextClosed
	}
	for _, pr := range ctx.peers {
		switch pr.state {
		case stateConnected:
			if ctx.cfg.PeerIdleTimeout > 0 && now.Sub(pr.lastActivity) > ctx.cfg.PeerIdleTimeout {
				ctx.destroyPeer(pr, EventClosed)
			}
		case stateClosed, stateClosing, stateInit:
			// no timer
		default:
			ctx.checkFlightTimer(pr, now)
		}
	}
	return nil
}
