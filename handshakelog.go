// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import "github.com/zmap/zcrypto/tls"

// HandshakeLog summarises one peer's handshake using zcrypto's
// fingerprinting-oriented message summaries, built from the MakeLog()
// methods on pkg/protocol/handshake's MessageServerHello and
// MessageFinished. It never holds key material, only the negotiated
// parameters and verify_data, so it is safe to retain past Finished for
// passive observability or audit logging.
type HandshakeLog struct {
	ServerHello    *tls.ServerHello
	ClientFinished *tls.Finished
	ServerFinished *tls.Finished
}

// HandshakeLog returns the HandshakeLog accumulated so far for session, or
// ErrNoSuchPeer if no peer exists. The returned log is nil until a
// ServerHello has been sent or received, and its Finished fields are nil
// until the corresponding message has actually been sent or received.
func (ctx *Context) HandshakeLog(session Session) (*HandshakeLog, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	pr, ok := ctx.peers[session]
	if !ok {
		return nil, ErrNoSuchPeer
	}
	return pr.log, nil
}
