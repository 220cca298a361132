// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"time"

	"github.com/lightdtls/lightdtls/internal/zeroize"
	"github.com/lightdtls/lightdtls/pkg/crypto/ciphersuite"
	"github.com/lightdtls/lightdtls/pkg/protocol/handshake"
	"github.com/lightdtls/lightdtls/pkg/replay"
	"github.com/lightdtls/lightdtls/pkg/transcript"
)

// peerState is the FSM state of one peer. The client and server paths
// share the terminal states but diverge in the middle ones. A server-role
// peer is never observed before its ClientHello's cookie has verified (see
// serverHandleFirstContact), so the state machine begins directly at
// stateInit with clientRandom and the transcript already populated.
type peerState int

const (
	stateInit peerState = iota
	// Server path.
	stateServerHelloSent    // ServerHello/ServerHelloDone issued, awaiting ClientKeyExchange/CCS/Finished
	stateServerWaitFinished // ClientKeyExchange processed, epoch 1 keys installed, awaiting client CCS and Finished
	// Client path.
	stateClientHelloSent           // ClientHello (no cookie) sent, awaiting HelloVerifyRequest or ServerHello
	stateClientWaitServerHelloDone // ServerHello received, awaiting ServerHelloDone
	stateClientWaitServerFinished  // CCS+Finished sent, epoch 1 keys installed, awaiting server Finished

	stateConnected
	stateClosing
	stateClosed
)

func (s peerState) String() string {
	switch s {
	case stateInit:
		return "init"
	case stateServerHelloSent:
		return "server-hello-sent"
	case stateServerWaitFinished:
		return "server-wait-finished"
	case stateClientHelloSent:
		return "client-hello-sent"
	case stateClientWaitServerHelloDone:
		return "client-wait-server-hello-done"
	case stateClientWaitServerFinished:
		return "client-wait-server-finished"
	case stateConnected:
		return "connected"
	case stateClosing:
		return "closing"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// pendingFlight holds the most recently built (but not yet re-sealed)
// flight, kept around so CheckRetransmit and the duplicate-message path in
// handleHandshakeRecord can re-seal and resend it under the ack-less
// retransmission timer. Each resend assigns fresh record sequence numbers
// while keeping every item's message_seq and epoch unchanged, per RFC 6347
// Section 4.2.4.
type pendingFlight struct {
	items      []flightItem
	attempt    int
	nextDelay  time.Duration
	lastSentAt time.Time
}

// bufferedMessage is one out-of-order handshake message held until the FSM
// catches up to its message_seq (bound to maxBufferedMessages entries).
type bufferedMessage struct {
	seq     uint16
	raw     []byte
	message *handshake.Handshake
}

const maxBufferedMessages = 2

// pendingEpoch holds a single record received at epoch+1 while the peer is
// still completing the handshake at the current epoch, a one-deep queue
// for the common reordering of ChangeCipherSpec and the next epoch's
// Finished arriving out of sequence.
type pendingEpoch struct {
	has bool
	raw []byte
}

// peer is one Session's handshake and record-layer state. It is owned
// exclusively by the Context that created it; nothing outside the Context
// methods in this package ever stores a pointer into a peer's fields.
type peer struct {
	session  Session
	isClient bool

	state peerState

	clientRandom [32]byte
	serverRandom [32]byte

	localIdentity  []byte
	remoteIdentity []byte
	pskKey         []byte

	masterSecret []byte

	// security_params slot 0 is epoch 0 (plaintext, never used to
	// encrypt), slot 1 is the negotiated epoch 1 cipher.
	cipherSuite *ciphersuite.PSKWithAES128CCM8

	localEpoch  uint16
	remoteEpoch uint16
	localSeq    uint64

	replayWindow *replay.Window
	transcript   *transcript.Transcript

	messageSeq       uint16
	nextExpectedSeq  uint16
	bufferedMessages []bufferedMessage
	pendingNextEpoch pendingEpoch

	flight       pendingFlight
	lastActivity time.Time

	log *HandshakeLog
}

func newPeer(session Session, isClient bool, now time.Time) *peer {
	return &peer{
		session:      session,
		isClient:     isClient,
		state:        stateInit,
		replayWindow: replay.NewWindow(replay.DefaultWindowSize),
		transcript:   transcript.New(),
		lastActivity: now,
	}
}

// zeroiseKeys scrubs every buffer that held key material. Called on
// close, eviction, and fatal paths; safe to call more than once.
func (p *peer) zeroiseKeys() {
	zeroize.All(p.pskKey, p.masterSecret)
	p.pskKey = nil
	p.masterSecret = nil
	p.cipherSuite = nil
}
