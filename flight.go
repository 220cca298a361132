// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"time"

	"github.com/lightdtls/lightdtls/pkg/protocol"
)

// flightItem is one handshake message or ChangeCipherSpec awaiting
// transmission as part of a flight. It is deliberately unsealed: epoch and
// content type are fixed at construction time (and, for a handshake
// message, so is its message_seq and transcript position), but the record
// sequence number is assigned fresh by sealRecordAtEpoch on every send,
// including retransmits.
type flightItem struct {
	epoch       uint16
	contentType protocol.ContentType
	body        []byte
}

// armFlight records items as the peer's current outstanding flight and
// arms the retransmission timer at the configured initial backoff. Replaces
// any previously armed flight: a peer only ever has one flight in flight.
func (ctx *Context) armFlight(pr *peer, items []flightItem, now time.Time) {
	pr.flight = pendingFlight{
		items:      items,
		attempt:    0,
		nextDelay:  ctx.cfg.RetransmitInitialBackoff,
		lastSentAt: now,
	}
}

// disarmFlight clears the retransmission timer, e.g. once the flight's
// response has been fully processed and the FSM has moved on.
func (pr *peer) disarmFlight() {
	pr.flight = pendingFlight{}
}

// sendFlight seals and transmits every item of a flight via the Write
// callback, in order. Sealing happens here, not at armFlight time, so a
// retransmit calls sealRecordAtEpoch again and gets a fresh record
// sequence number while message_seq and epoch stay exactly as built.
func (ctx *Context) sendFlight(pr *peer, items []flightItem) error {
	for _, item := range items {
		raw, err := ctx.sealRecordAtEpoch(pr, item.epoch, item.contentType, item.body)
		if err != nil {
			return err
		}
		if _, err := ctx.cfg.Handler.Write(pr.session, raw); err != nil {
			return err
		}
	}
	return nil
}

// checkFlightTimer resends the peer's armed flight if its backoff has
// elapsed, doubling the delay up to RetransmitMaxBackoff, or times the
// handshake out past RetransmitMaxAttempts.
func (ctx *Context) checkFlightTimer(pr *peer, now time.Time) {
	if pr.flight.items == nil {
		return
	}
	if now.Sub(pr.flight.lastSentAt) < pr.flight.nextDelay {
		return
	}
	if pr.flight.attempt >= ctx.cfg.RetransmitMaxAttempts {
		ctx.destroyPeer(pr, EventHandshakeTimeout)
		return
	}

	_ = ctx.sendFlight(pr, pr.flight.items) //nolint:errcheck // best-effort retransmit; next tick retries

	pr.flight.attempt++
	pr.flight.lastSentAt = now
	pr.flight.nextDelay *= 2
	if pr.flight.nextDelay > ctx.cfg.RetransmitMaxBackoff {
		pr.flight.nextDelay = ctx.cfg.RetransmitMaxBackoff
	}
}
