// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"crypto/sha256"
	"crypto/subtle"
	"time"

	"github.com/lightdtls/lightdtls/internal/zeroize"
	"github.com/lightdtls/lightdtls/pkg/crypto/ciphersuite"
	"github.com/lightdtls/lightdtls/pkg/crypto/prf"
	"github.com/lightdtls/lightdtls/pkg/protocol"
	"github.com/lightdtls/lightdtls/pkg/protocol/alert"
	"github.com/lightdtls/lightdtls/pkg/protocol/handshake"
	"github.com/lightdtls/lightdtls/pkg/protocol/record"
)

// serverHandleMessage dispatches one in-order handshake message on a
// server-role peer. By the time a peer exists at all, the cookie exchange
// of RFC 6347 Section 4.2.1 has already completed in serverHandleFirstContact,
// so only the flights from ServerHello/ServerHelloDone onward appear here.
func (ctx *Context) serverHandleMessage(pr *peer, hs *handshake.Handshake, raw []byte, now time.Time) error {
	switch pr.state {
	case stateServerHelloSent:
		return ctx.serverHandleClientKeyExchange(pr, hs, now)
	case stateServerWaitFinished:
		return ctx.serverHandleFinished(pr, hs, raw, now)
	default:
		return ctx.fatal(pr, alert.UnexpectedMessage, now)
	}
}

// serverHandleFirstContact processes a Handshake record arriving at epoch 0
// for a Session with no existing peer. No peer is allocated, and ctx.peers
// is never touched, unless the record carries a ClientHello with a cookie
// that verifies: this is what makes the cookie exchange stateless, per RFC
// 6347 Section 4.2.1 ("the server... should not allocate state... until it
// receives a ClientHello with a valid cookie").
func (ctx *Context) serverHandleFirstContact(session Session, rec *record.Record, now time.Time) error {
	var hs handshake.Handshake
	if err := hs.Unmarshal(rec.Content); err != nil {
		return nil
	}
	end := handshake.HeaderLength + int(hs.Header.Length)
	if end > len(rec.Content) {
		return nil
	}
	raw := rec.Content[:end]

	ch, ok := hs.Message.(*handshake.MessageClientHello)
	if !ok {
		return nil
	}

	addr := []byte(session.RemoteAddr)
	random := ch.Random.MarshalFixed()
	versionBytes := []byte{ch.Version.Major, ch.Version.Minor}
	suitesBytes := encodeCipherSuiteIDs(ch.CipherSuiteIDs)
	compBytes := encodeCompressionMethods(ch.CompressionMethods)

	if len(ch.Cookie) == 0 || !ctx.cookies.Verify(now, ch.Cookie, addr, random[:], versionBytes, suitesBytes, compBytes) {
		return ctx.sendStatelessHelloVerifyRequest(session, now, addr, random[:], versionBytes, suitesBytes, compBytes)
	}

	if !hasCipherSuite(ch.CipherSuiteIDs, protocol.TLSPSKWithAES128CCM8) {
		return ctx.sendStatelessAlert(session, alert.Fatal, alert.HandshakeFailure)
	}
	if len(ctx.peers) >= ctx.cfg.MaxPeers {
		return nil
	}

	pr := newPeer(session, false, now)
	pr.clientRandom = random
	// The server's first flight continues the numbering of the
	// cookie-carrying ClientHello: its message_seq for handshake messages,
	// and its record sequence number for records, so neither collides with
	// what the stateless HelloVerifyRequest already used.
	pr.messageSeq = hs.Header.MessageSequence
	pr.nextExpectedSeq = hs.Header.MessageSequence + 1
	pr.localSeq = rec.Header.SequenceNumber
	if err := pr.transcript.WriteRaw(raw); err != nil {
		return err
	}
	ctx.peers[session] = pr
	ctx.log.Tracef("server: new peer %s", session)
	return ctx.serverSendHello(pr, now)
}

// sendStatelessHelloVerifyRequest answers an unverified ClientHello with a
// HelloVerifyRequest carrying a freshly minted cookie. It writes directly
// to the wire rather than through a peer's record/transcript state, since
// no peer exists yet and none is created by this path.
func (ctx *Context) sendStatelessHelloVerifyRequest(session Session, now time.Time, addr, clientRandom, version, suites, comp []byte) error {
	newCookie := ctx.cookies.Generate(now, addr, clientRandom, version, suites, comp)
	hvr := &handshake.MessageHelloVerifyRequest{Version: ctx.cfg.ProtocolVersion, Cookie: newCookie}
	hs := &handshake.Handshake{Message: hvr}
	body, err := hs.Marshal()
	if err != nil {
		return err
	}
	hdr := record.Header{
		ContentType: protocol.ContentTypeHandshake,
		Version:     ctx.cfg.ProtocolVersion,
	}
	rec := record.Record{Header: hdr, Content: body}
	sealed, err := rec.Marshal()
	if err != nil {
		return err
	}
	_, err = ctx.cfg.Handler.Write(session, sealed)
	return err
}

// sendStatelessAlert sends a plaintext epoch-0 alert to a Session with no
// peer, used to reject a first-contact ClientHello that passed the cookie
// check but named no usable cipher suite.
func (ctx *Context) sendStatelessAlert(session Session, level alert.Level, desc alert.Description) error {
	a := alert.Alert{Level: level, Description: desc}
	body, err := a.Marshal()
	if err != nil {
		return err
	}
	hdr := record.Header{
		ContentType: protocol.ContentTypeAlert,
		Version:     ctx.cfg.ProtocolVersion,
	}
	rec := record.Record{Header: hdr, Content: body}
	sealed, err := rec.Marshal()
	if err != nil {
		return err
	}
	_, err = ctx.cfg.Handler.Write(session, sealed)
	ctx.cfg.Handler.event(session, level, int(desc))
	return err
}

func (ctx *Context) serverSendHello(pr *peer, now time.Time) error {
	var serverRandom handshake.Random
	if err := serverRandom.Populate(); err != nil {
		return err
	}
	pr.serverRandom = serverRandom.MarshalFixed()

	suite := protocol.TLSPSKWithAES128CCM8
	comp := protocol.CompressionMethodNull
	sh := &handshake.MessageServerHello{
		Version:           ctx.cfg.ProtocolVersion,
		Random:            serverRandom,
		CipherSuiteID:     &suite,
		CompressionMethod: &comp,
	}
	pr.log = &HandshakeLog{ServerHello: sh.MakeLog()}
	shItem, err := ctx.handshakeItem(pr, sh)
	if err != nil {
		return err
	}

	done := &handshake.MessageServerHelloDone{}
	doneItem, err := ctx.handshakeItem(pr, done)
	if err != nil {
		return err
	}

	pr.state = stateServerHelloSent
	items := []flightItem{shItem, doneItem}
	ctx.armFlight(pr, items, now)
	return ctx.sendFlight(pr, items)
}

func (ctx *Context) serverHandleClientKeyExchange(pr *peer, hs *handshake.Handshake, now time.Time) error {
	ck, ok := hs.Message.(*handshake.MessageClientKeyExchange)
	if !ok {
		return ctx.fatal(pr, alert.UnexpectedMessage, now)
	}

	identity, err := ctx.cfg.Handler.GetKey(pr.session, ck.IdentityHint)
	if err != nil || len(identity.Key) == 0 {
		return ctx.fatal(pr, alert.UnknownPSKIdentity, now)
	}
	pr.remoteIdentity = append([]byte{}, ck.IdentityHint...)
	pr.pskKey = append([]byte{}, identity.Key...)

	if err := ctx.deriveKeys(pr, false); err != nil {
		return ctx.fatal(pr, alert.InternalError, now)
	}

	pr.disarmFlight()
	pr.state = stateServerWaitFinished
	return nil
}

func (ctx *Context) serverHandleFinished(pr *peer, hs *handshake.Handshake, raw []byte, now time.Time) error {
	f, ok := hs.Message.(*handshake.MessageFinished)
	if !ok {
		return ctx.fatal(pr, alert.UnexpectedMessage, now)
	}

	digest := pr.transcript.Sum()
	expected, err := prf.VerifyDataClientFromDigest(pr.masterSecret, digest, sha256.New)
	if err != nil {
		return ctx.fatal(pr, alert.InternalError, now)
	}
	if subtle.ConstantTimeCompare(expected, f.VerifyData) != 1 {
		return ctx.fatal(pr, alert.HandshakeFailure, now)
	}

	if pr.log != nil {
		pr.log.ClientFinished = f.MakeLog()
	}
	if err := pr.transcript.WriteRaw(raw); err != nil {
		return err
	}

	ccsItem := flightItem{epoch: pr.localEpoch, contentType: protocol.ContentTypeChangeCipherSpec, body: mustMarshalCCS()}
	pr.localEpoch++

	serverDigest := pr.transcript.Sum()
	verifyData, err := prf.VerifyDataServerFromDigest(pr.masterSecret, serverDigest, sha256.New)
	if err != nil {
		return err
	}
	serverFin := &handshake.MessageFinished{VerifyData: verifyData}
	if pr.log != nil {
		pr.log.ServerFinished = serverFin.MakeLog()
	}
	finItem, err := ctx.handshakeItem(pr, serverFin)
	if err != nil {
		return err
	}

	// This is the last flight the server ever sends; nothing short of the
	// client's own retransmitted Finished tells the server it was lost, so
	// it stays armed past the handshake rather than being disarmed here.
	// The duplicate-Finished path in handleHandshakeRecord resends it.
	items := []flightItem{ccsItem, finItem}
	ctx.armFlight(pr, items, now)
	pr.state = stateConnected
	pr.lastActivity = now
	ctx.log.Debugf("server: %s connected", pr.session)
	ctx.cfg.Handler.event(pr.session, 0, int(EventConnected))
	return ctx.sendFlight(pr, items)
}

// deriveKeys runs the PSK key schedule and installs the record-layer
// cipher for pr, once both randoms and the PSK are known. isClient selects
// which derived write/read pair is "local".
func (ctx *Context) deriveKeys(pr *peer, isClient bool) error {
	premaster := prf.PSKPreMasterSecret(pr.pskKey)
	masterSecret, err := prf.MasterSecret(premaster, pr.clientRandom[:], pr.serverRandom[:], sha256.New)
	zeroize.Bytes(premaster)
	if err != nil {
		return err
	}
	pr.masterSecret = masterSecret

	keys, err := prf.GenerateEncryptionKeys(masterSecret, pr.clientRandom[:], pr.serverRandom[:], 0, ciphersuite.KeyLength, ciphersuite.SaltLength, sha256.New)
	if err != nil {
		return err
	}

	var suite *ciphersuite.PSKWithAES128CCM8
	if isClient {
		suite, err = ciphersuite.New(keys.ClientWriteKey, keys.ClientWriteIV, keys.ServerWriteKey, keys.ServerWriteIV)
	} else {
		suite, err = ciphersuite.New(keys.ServerWriteKey, keys.ServerWriteIV, keys.ClientWriteKey, keys.ClientWriteIV)
	}
	if err != nil {
		return err
	}
	pr.cipherSuite = suite
	return nil
}

func mustMarshalCCS() []byte {
	var ccs protocol.ChangeCipherSpec
	b, _ := ccs.Marshal() //nolint:errcheck // ChangeCipherSpec.Marshal never fails
	return b
}

func encodeCipherSuiteIDs(ids []protocol.CipherSuiteID) []byte {
	out := make([]byte, 0, 2*len(ids))
	for _, id := range ids {
		out = append(out, byte(id>>8), byte(id))
	}
	return out
}

func encodeCompressionMethods(methods []protocol.CompressionMethodID) []byte {
	out := make([]byte, len(methods))
	for i, m := range methods {
		out[i] = byte(m)
	}
	return out
}

func hasCipherSuite(ids []protocol.CipherSuiteID, want protocol.CipherSuiteID) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}
