// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"crypto/sha256"
	"crypto/subtle"
	"time"

	"github.com/lightdtls/lightdtls/pkg/protocol"
	"github.com/lightdtls/lightdtls/pkg/protocol/alert"
	"github.com/lightdtls/lightdtls/pkg/protocol/handshake"

	"github.com/lightdtls/lightdtls/pkg/crypto/prf"
)

// clientStartHandshake sends flight one: an empty-cookie ClientHello. This
// message is never added to the transcript; a real transcript begins once
// the cookie-carrying resend is accepted.
func (ctx *Context) clientStartHandshake(pr *peer, now time.Time) error {
	var random handshake.Random
	if err := random.Populate(); err != nil {
		return err
	}
	pr.clientRandom = random.MarshalFixed()

	ch := &handshake.MessageClientHello{
		Version:            ctx.cfg.ProtocolVersion,
		Random:             random,
		CipherSuiteIDs:     []protocol.CipherSuiteID{protocol.TLSPSKWithAES128CCM8},
		CompressionMethods: []protocol.CompressionMethodID{protocol.CompressionMethodNull},
	}
	item, err := ctx.handshakeItemOpt(pr, ch, false)
	if err != nil {
		return err
	}

	pr.state = stateClientHelloSent
	ctx.armFlight(pr, []flightItem{item}, now)
	return ctx.sendFlight(pr, []flightItem{item})
}

// clientHandleMessage dispatches one in-order handshake message on a
// client-role peer.
func (ctx *Context) clientHandleMessage(pr *peer, hs *handshake.Handshake, raw []byte, now time.Time) error {
	switch pr.state {
	case stateClientHelloSent:
		return ctx.clientHandleHelloVerifyOrServerHello(pr, hs, now)
	case stateClientWaitServerHelloDone:
		return ctx.clientHandleServerHelloDone(pr, hs, now)
	case stateClientWaitServerFinished:
		return ctx.clientHandleFinished(pr, hs, raw, now)
	default:
		return ctx.fatal(pr, alert.UnexpectedMessage, now)
	}
}

func (ctx *Context) clientHandleHelloVerifyOrServerHello(pr *peer, hs *handshake.Handshake, now time.Time) error {
	switch m := hs.Message.(type) {
	case *handshake.MessageHelloVerifyRequest:
		// The pre-cookie ClientHello was never in the transcript, so there
		// is nothing to unwind there; just rebuild and resend with the
		// cookie attached.
		pr.transcript.Reset()
		ch := &handshake.MessageClientHello{
			Version:            ctx.cfg.ProtocolVersion,
			Random:             randomFromFixed(pr.clientRandom),
			Cookie:             append([]byte{}, m.Cookie...),
			CipherSuiteIDs:     []protocol.CipherSuiteID{protocol.TLSPSKWithAES128CCM8},
			CompressionMethods: []protocol.CompressionMethodID{protocol.CompressionMethodNull},
		}
		item, err := ctx.handshakeItem(pr, ch)
		if err != nil {
			return err
		}
		pr.disarmFlight()
		ctx.armFlight(pr, []flightItem{item}, now)
		return ctx.sendFlight(pr, []flightItem{item})

	case *handshake.MessageServerHello:
		if m.CipherSuiteID == nil || *m.CipherSuiteID != protocol.TLSPSKWithAES128CCM8 {
			return ctx.fatal(pr, alert.HandshakeFailure, now)
		}
		pr.serverRandom = m.Random.MarshalFixed()
		pr.log = &HandshakeLog{ServerHello: m.MakeLog()}
		pr.disarmFlight()
		pr.state = stateClientWaitServerHelloDone
		return nil

	default:
		return ctx.fatal(pr, alert.UnexpectedMessage, now)
	}
}

func (ctx *Context) clientHandleServerHelloDone(pr *peer, hs *handshake.Handshake, now time.Time) error {
	if _, ok := hs.Message.(*handshake.MessageServerHelloDone); !ok {
		return ctx.fatal(pr, alert.UnexpectedMessage, now)
	}

	identity, err := ctx.cfg.Handler.GetKey(pr.session, nil)
	if err != nil || len(identity.Key) == 0 {
		return ctx.fatal(pr, alert.UnknownPSKIdentity, now)
	}
	pr.localIdentity = append([]byte{}, identity.Identity...)
	pr.pskKey = append([]byte{}, identity.Key...)

	if err := ctx.deriveKeys(pr, true); err != nil {
		return ctx.fatal(pr, alert.InternalError, now)
	}

	cke := &handshake.MessageClientKeyExchange{IdentityHint: pr.localIdentity}
	ckeItem, err := ctx.handshakeItem(pr, cke)
	if err != nil {
		return err
	}

	ccsItem := flightItem{epoch: pr.localEpoch, contentType: protocol.ContentTypeChangeCipherSpec, body: mustMarshalCCS()}
	pr.localEpoch++

	digest := pr.transcript.Sum()
	verifyData, err := prf.VerifyDataClientFromDigest(pr.masterSecret, digest, sha256.New)
	if err != nil {
		return err
	}
	clientFin := &handshake.MessageFinished{VerifyData: verifyData}
	if pr.log != nil {
		pr.log.ClientFinished = clientFin.MakeLog()
	}
	finItem, err := ctx.handshakeItem(pr, clientFin)
	if err != nil {
		return err
	}

	pr.state = stateClientWaitServerFinished
	items := []flightItem{ckeItem, ccsItem, finItem}
	ctx.armFlight(pr, items, now)
	return ctx.sendFlight(pr, items)
}

func (ctx *Context) clientHandleFinished(pr *peer, hs *handshake.Handshake, raw []byte, now time.Time) error {
	f, ok := hs.Message.(*handshake.MessageFinished)
	if !ok {
		return ctx.fatal(pr, alert.UnexpectedMessage, now)
	}

	digest := pr.transcript.Sum()
	expected, err := prf.VerifyDataServerFromDigest(pr.masterSecret, digest, sha256.New)
	if err != nil {
		return ctx.fatal(pr, alert.InternalError, now)
	}
	if subtle.ConstantTimeCompare(expected, f.VerifyData) != 1 {
		return ctx.fatal(pr, alert.HandshakeFailure, now)
	}
	if pr.log != nil {
		pr.log.ServerFinished = f.MakeLog()
	}
	if err := pr.transcript.WriteRaw(raw); err != nil {
		return err
	}

	pr.disarmFlight()
	pr.state = stateConnected
	pr.lastActivity = now
	ctx.log.Debugf("client: %s connected", pr.session)
	ctx.cfg.Handler.event(pr.session, 0, int(EventConnected))
	return nil
}

func randomFromFixed(fixed [32]byte) handshake.Random {
	var r handshake.Random
	r.UnmarshalFixed(fixed)
	return r
}
