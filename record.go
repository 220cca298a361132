// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"time"

	"github.com/lightdtls/lightdtls/pkg/protocol"
	"github.com/lightdtls/lightdtls/pkg/protocol/alert"
	"github.com/lightdtls/lightdtls/pkg/protocol/handshake"
	"github.com/lightdtls/lightdtls/pkg/protocol/record"
)

// sealRecordAtEpoch marshals a single record of contentType carrying body,
// under the given epoch rather than the peer's live localEpoch: a flight
// built across an epoch boundary (ClientKeyExchange/CCS/Finished) needs
// each item sealed under the epoch it was built at, not the peer's current
// one, and a retransmit needs a fresh record sequence number every time it
// is sealed regardless of epoch.
func (ctx *Context) sealRecordAtEpoch(pr *peer, epoch uint16, contentType protocol.ContentType, body []byte) ([]byte, error) {
	hdr := record.Header{
		ContentType:    contentType,
		Version:        ctx.cfg.ProtocolVersion,
		Epoch:          epoch,
		SequenceNumber: pr.nextLocalSeq(),
	}
	rec := record.Record{Header: hdr, Content: body}
	raw, err := rec.Marshal()
	if err != nil {
		return nil, err
	}
	if epoch == 0 || pr.cipherSuite == nil {
		return raw, nil
	}
	return pr.cipherSuite.Encrypt(&hdr, raw)
}

// sealRecord marshals and seals a single record under the peer's current
// write epoch. Used for records sent immediately and once, never as part
// of a retransmittable flight (alerts, bare application data).
func (ctx *Context) sealRecord(pr *peer, contentType protocol.ContentType, body []byte) ([]byte, error) {
	return ctx.sealRecordAtEpoch(pr, pr.localEpoch, contentType, body)
}

func (p *peer) nextLocalSeq() uint64 {
	seq := p.localSeq
	p.localSeq++
	return seq
}

// sealApplicationData wraps plaintext in an ApplicationData record under
// the peer's current epoch.
func (ctx *Context) sealApplicationData(pr *peer, plaintext []byte) ([]byte, error) {
	return ctx.sealRecord(pr, protocol.ContentTypeApplicationData, plaintext)
}

// sendAlert seals and transmits one alert record, best-effort: write
// errors are not propagated to protocol-level callers since an alert is
// already part of a teardown path.
func (ctx *Context) sendAlert(pr *peer, level alert.Level, desc alert.Description, now time.Time) error {
	a := alert.Alert{Level: level, Description: desc}
	body, err := a.Marshal()
	if err != nil {
		return err
	}
	raw, err := ctx.sealRecord(pr, protocol.ContentTypeAlert, body)
	if err != nil {
		return err
	}
	_, err = ctx.cfg.Handler.Write(pr.session, raw)
	ctx.cfg.Handler.event(pr.session, level, int(desc))
	pr.lastActivity = now
	return err
}

// fatal sends a fatal alert and destroys the peer. Used by every handshake
// error path that RFC 5246 Section 7.2.2 resolves with an unrecoverable
// alert: the connection is torn down on either side that sends or
// receives one.
func (ctx *Context) fatal(pr *peer, desc alert.Description, now time.Time) error {
	_ = ctx.sendAlert(pr, alert.Fatal, desc, now) //nolint:errcheck // best effort; peer is being torn down regardless
	ctx.destroyPeer(pr, EventClosed)
	return nil
}

// handshakeItem builds one handshake message into a flightItem, assigning
// the next message_seq and feeding it into the transcript.
func (ctx *Context) handshakeItem(pr *peer, msg handshake.Message) (flightItem, error) {
	return ctx.handshakeItemOpt(pr, msg, true)
}

// handshakeItemOpt is handshakeItem with transcript participation made
// explicit: HelloVerifyRequest, and the pre-cookie ClientHello it answers,
// never enter the transcript, since RFC 6347 Section 4.2.1 treats the
// cookie round trip as happening before the handshake proper begins. The
// item is left unsealed; sendFlight assigns the record sequence number
// and, if epoch >= 1, encrypts, at actual send time.
func (ctx *Context) handshakeItemOpt(pr *peer, msg handshake.Message, inTranscript bool) (flightItem, error) {
	hs := &handshake.Handshake{
		Header: handshake.Header{
			MessageSequence: pr.messageSeq,
		},
		Message: msg,
	}
	pr.messageSeq++

	raw, err := hs.Marshal()
	if err != nil {
		return flightItem{}, err
	}
	if inTranscript {
		if err := pr.transcript.WriteRaw(raw); err != nil {
			return flightItem{}, err
		}
	}
	return flightItem{epoch: pr.localEpoch, contentType: protocol.ContentTypeHandshake, body: raw}, nil
}
