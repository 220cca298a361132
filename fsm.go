// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"time"

	"github.com/lightdtls/lightdtls/pkg/protocol"
	"github.com/lightdtls/lightdtls/pkg/protocol/alert"
	"github.com/lightdtls/lightdtls/pkg/protocol/handshake"
	"github.com/lightdtls/lightdtls/pkg/protocol/record"
	"github.com/lightdtls/lightdtls/pkg/replay"
)

// dispatchRecord is the single entry point every record on an existing
// peer passes through: epoch gating, replay detection, decryption, and
// dispatch by content type.
func (ctx *Context) dispatchRecord(pr *peer, rec *record.Record, now time.Time) error {
	if !rec.Header.Version.Equal(ctx.cfg.ProtocolVersion) {
		return ctx.fatal(pr, alert.ProtocolVersion, now)
	}

	switch {
	case rec.Header.Epoch == pr.remoteEpoch:
		// fall through to processing below
	case rec.Header.Epoch == pr.remoteEpoch+1 && ctx.isWaitFinished(pr):
		// Held pending the ChangeCipherSpec that promotes keys. A second
		// arrival overwrites the held one rather than growing the queue.
		raw, err := rec.Marshal()
		if err != nil {
			return nil
		}
		pr.pendingNextEpoch = pendingEpoch{has: true, raw: raw}
		return nil
	default:
		// Any other epoch mismatch is silently dropped.
		return nil
	}

	commit, err := pr.replayWindow.Check(rec.Header.Epoch, rec.Header.SequenceNumber)
	if err != nil {
		if err == replay.ErrReplay || err == replay.ErrStale {
			return nil
		}
		return nil
	}

	plaintext := rec.Content
	if rec.Header.Epoch >= 1 {
		if pr.cipherSuite == nil {
			return nil
		}
		raw, err := rec.Marshal()
		if err != nil {
			return nil
		}
		decoded, err := pr.cipherSuite.Decrypt(rec.Header, raw)
		if err != nil {
			// BadRecordMAC on an established peer is fatal; during the
			// handshake it is more often a stray/misordered datagram, so
			// only escalate once Connected.
			if pr.state == stateConnected {
				return ctx.fatal(pr, alert.BadRecordMAC, now)
			}
			return nil
		}
		plaintext = decoded[record.FixedHeaderSize:]
	}
	commit()

	switch rec.Header.ContentType {
	case protocol.ContentTypeHandshake:
		return ctx.handleHandshakeRecord(pr, plaintext, now)
	case protocol.ContentTypeChangeCipherSpec:
		return ctx.handleChangeCipherSpec(pr, plaintext, now)
	case protocol.ContentTypeAlert:
		return ctx.handleAlertRecord(pr, plaintext, now)
	case protocol.ContentTypeApplicationData:
		if pr.state != stateConnected {
			return nil
		}
		// Application data only decrypts under epoch >= 1 keys the peer
		// derived from this side's final flight, so its arrival proves
		// that flight got through; nothing will retransmit it again.
		pr.disarmFlight()
		ctx.cfg.Handler.read(pr.session, plaintext)
		return nil
	default:
		return nil
	}
}

func (ctx *Context) isWaitFinished(pr *peer) bool {
	return pr.state == stateServerWaitFinished || pr.state == stateClientWaitServerFinished
}

func (ctx *Context) handleAlertRecord(pr *peer, plaintext []byte, now time.Time) error {
	var a alert.Alert
	if err := a.Unmarshal(plaintext); err != nil {
		return nil
	}
	ctx.cfg.Handler.event(pr.session, a.Level, int(a.Description))
	if a.Level == alert.Fatal {
		ctx.destroyPeer(pr, EventClosed)
		return nil
	}
	if a.Description == alert.CloseNotify {
		_ = ctx.sendAlert(pr, alert.Warning, alert.CloseNotify, now) //nolint:errcheck // peer is being torn down regardless
		ctx.destroyPeer(pr, EventClosed)
	}
	return nil
}

func (ctx *Context) handleChangeCipherSpec(pr *peer, plaintext []byte, now time.Time) error {
	var ccs protocol.ChangeCipherSpec
	if err := ccs.Unmarshal(plaintext); err != nil {
		return ctx.fatal(pr, alert.DecodeError, now)
	}
	if err := ctx.promoteReadEpoch(pr, now); err != nil {
		return err
	}
	if pr.pendingNextEpoch.has {
		raw := pr.pendingNextEpoch.raw
		pr.pendingNextEpoch = pendingEpoch{}
		var rec record.Record
		if _, err := rec.Unmarshal(raw); err == nil {
			return ctx.dispatchRecord(pr, &rec, now)
		}
	}
	return nil
}

// promoteReadEpoch advances the peer's read epoch and resets its replay
// window for the new epoch, the server/client-symmetric half of what
// happens when ChangeCipherSpec is received.
func (ctx *Context) promoteReadEpoch(pr *peer, now time.Time) error {
	pr.remoteEpoch++
	pr.replayWindow.Reset(pr.remoteEpoch)
	return nil
}

// handleHandshakeRecord reassembles-by-rejecting fragments, enforces
// message_seq ordering with a small out-of-order buffer, and dispatches
// each in-order message to the role-specific handler.
func (ctx *Context) handleHandshakeRecord(pr *peer, plaintext []byte, now time.Time) error {
	var hs handshake.Handshake
	if err := hs.Unmarshal(plaintext); err != nil {
		// Fragment, or otherwise malformed: this endpoint never reassembles
		// fragmented handshake messages, so it simply drops them.
		return nil
	}
	// Exactly this message's bytes, in case plaintext carries trailing
	// coalesced content this endpoint does not itself ever produce.
	end := handshake.HeaderLength + int(hs.Header.Length)
	if end > len(plaintext) {
		return nil
	}
	raw := plaintext[:end]

	seq := hs.Header.MessageSequence
	switch {
	case seq < pr.nextExpectedSeq:
		// Duplicate of an already-processed message: the peer's last flight
		// never reached the other side (or they would not have resent
		// theirs), so resend whatever this side currently has armed. This
		// is what makes a lost final server flight {ChangeCipherSpec,
		// Finished} recoverable even though stateConnected peers are no
		// longer polled by the retransmission timer: the client's own
		// timer-driven resend of its last flight's Finished arrives here
		// as a duplicate and triggers the server's resend in turn.
		if pr.flight.items != nil {
			_ = ctx.sendFlight(pr, pr.flight.items) //nolint:errcheck // best-effort resend; a further retry will follow if this is lost too
		}
		return nil
	case seq > pr.nextExpectedSeq:
		ctx.bufferOutOfOrder(pr, seq, raw, &hs)
		return nil
	}

	if err := ctx.deliverHandshakeMessage(pr, &hs, raw, now); err != nil {
		return err
	}
	pr.nextExpectedSeq++

	for {
		idx := indexOfBuffered(pr.bufferedMessages, pr.nextExpectedSeq)
		if idx < 0 {
			return nil
		}
		buffered := pr.bufferedMessages[idx]
		pr.bufferedMessages = append(pr.bufferedMessages[:idx], pr.bufferedMessages[idx+1:]...)
		if err := ctx.deliverHandshakeMessage(pr, buffered.message, buffered.raw, now); err != nil {
			return err
		}
		pr.nextExpectedSeq++
	}
}

func indexOfBuffered(buf []bufferedMessage, seq uint16) int {
	for i, b := range buf {
		if b.seq == seq {
			return i
		}
	}
	return -1
}

func (ctx *Context) bufferOutOfOrder(pr *peer, seq uint16, raw []byte, hs *handshake.Handshake) {
	if indexOfBuffered(pr.bufferedMessages, seq) >= 0 {
		return
	}
	if len(pr.bufferedMessages) >= maxBufferedMessages {
		return // bound reached; excess out-of-order messages are simply dropped
	}
	pr.bufferedMessages = append(pr.bufferedMessages, bufferedMessage{seq: seq, raw: append([]byte{}, raw...), message: hs})
}

// deliverHandshakeMessage writes received messages into the transcript
// (except HelloVerifyRequest and a pre-cookie ClientHello, which never
// count toward it) and dispatches to the role-specific handler.
func (ctx *Context) deliverHandshakeMessage(pr *peer, hs *handshake.Handshake, raw []byte, now time.Time) error {
	inTranscript := true
	if hs.Message.Type() == handshake.TypeHelloVerifyRequest {
		inTranscript = false
	}
	if ch, ok := hs.Message.(*handshake.MessageClientHello); ok && len(ch.Cookie) == 0 {
		inTranscript = false
	}
	if hs.Message.Type() == handshake.TypeFinished {
		// Finished's own verify_data covers every preceding message but not
		// itself; the role handler captures the digest, verifies, then
		// writes this message into the transcript itself.
		inTranscript = false
	}
	if inTranscript {
		if err := pr.transcript.WriteRaw(raw); err != nil {
			return err
		}
	}

	if pr.isClient {
		return ctx.clientHandleMessage(pr, hs, raw, now)
	}
	return ctx.serverHandleMessage(pr, hs, raw, now)
}
