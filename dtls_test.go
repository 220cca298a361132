// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls_test

import (
	"net"
	"testing"
	"time"

	dtls "github.com/lightdtls/lightdtls"
)

func mustUDPAddr(s string) *net.UDPAddr {
	addr, err := net.ResolveUDPAddr("udp", s)
	if err != nil {
		panic(err)
	}
	return addr
}

// pipe links two Contexts without a real socket: each side's Write
// callback appends to the other side's inbox, and the test drains both
// inboxes until neither produces anything new, mirroring a UDP round trip
// on a lossless loopback link.
type pipe struct {
	serverSession dtls.Session
	clientSession dtls.Session
	toServer      [][]byte
	toClient      [][]byte
}

func newHandlers(p *pipe, read func(dtls.Session, []byte)) (server, client dtls.Handler) {
	identity := []byte("device-1")
	key := []byte("super-secret-psk-0123456789abcd")

	getKey := func(session dtls.Session, id []byte) (dtls.Identity, error) {
		if id == nil {
			return dtls.Identity{Identity: identity, Key: key}, nil
		}
		if string(id) == string(identity) {
			return dtls.Identity{Identity: identity, Key: key}, nil
		}
		return dtls.Identity{}, dtls.ErrUnknownIdentity
	}

	server = dtls.Handler{
		Write: func(session dtls.Session, buf []byte) (int, error) {
			p.toClient = append(p.toClient, append([]byte{}, buf...))
			return len(buf), nil
		},
		Read:   read,
		GetKey: getKey,
	}
	client = dtls.Handler{
		Write: func(session dtls.Session, buf []byte) (int, error) {
			p.toServer = append(p.toServer, append([]byte{}, buf...))
			return len(buf), nil
		},
		Read:   read,
		GetKey: getKey,
	}
	return server, client
}

func pump(t *testing.T, p *pipe, serverCtx, clientCtx *dtls.Context, now time.Time) {
	t.Helper()
	for i := 0; i < 20 && (len(p.toServer) > 0 || len(p.toClient) > 0); i++ {
		toServer := p.toServer
		p.toServer = nil
		for _, dg := range toServer {
			if err := serverCtx.HandleMessage(p.serverSession, dg, now); err != nil {
				t.Fatalf("server HandleMessage: %v", err)
			}
		}

		toClient := p.toClient
		p.toClient = nil
		for _, dg := range toClient {
			if err := clientCtx.HandleMessage(p.clientSession, dg, now); err != nil {
				t.Fatalf("client HandleMessage: %v", err)
			}
		}
	}
}

func TestHandshakeAndApplicationEcho(t *testing.T) {
	now := time.Now()
	p := &pipe{
		serverSession: dtls.NewSession(mustUDPAddr("198.51.100.10:5684")),
		clientSession: dtls.NewSession(mustUDPAddr("198.51.100.1:54321")),
	}

	var serverGotPing, clientGotEcho bool
	var clientCtx *dtls.Context

	serverHandler, clientHandler := newHandlers(p, nil)
	serverHandler.Read = func(session dtls.Session, buf []byte) {
		serverGotPing = true
		if string(buf) != "ping" {
			t.Fatalf("server Read: got %q, want %q", buf, "ping")
		}
		if _, err := serverCtxRef.Write(session, []byte("ping"), now); err != nil {
			t.Fatalf("server Write: %v", err)
		}
	}
	clientHandler.Read = func(session dtls.Session, buf []byte) {
		clientGotEcho = true
		if string(buf) != "ping" {
			t.Fatalf("client Read: got %q, want %q", buf, "ping")
		}
	}

	serverCtx, err := dtls.NewContext(dtls.Config{Role: dtls.RoleServer, Handler: serverHandler}, nil)
	if err != nil {
		t.Fatalf("NewContext server: %v", err)
	}
	serverCtxRef = serverCtx
	defer serverCtx.Free()

	clientCtx, err = dtls.NewContext(dtls.Config{Role: dtls.RoleClient, Handler: clientHandler}, nil)
	if err != nil {
		t.Fatalf("NewContext client: %v", err)
	}
	defer clientCtx.Free()

	result, err := clientCtx.Connect(p.clientSession, now)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if result != dtls.ConnectStarted {
		t.Fatalf("Connect: got %v, want ConnectStarted", result)
	}

	pump(t, p, serverCtx, clientCtx, now)

	if _, err := clientCtx.Write(p.clientSession, []byte("ping"), now); err != nil {
		t.Fatalf("client Write: %v", err)
	}
	pump(t, p, serverCtx, clientCtx, now)

	if !serverGotPing {
		t.Fatal("server never received application data")
	}

	// A second echo, sent from outside any Handler callback.
	if _, err := serverCtx.Write(p.serverSession, []byte("ping"), now); err != nil {
		t.Fatalf("server Write: %v", err)
	}
	pump(t, p, serverCtx, clientCtx, now)

	if !clientGotEcho {
		t.Fatal("client never received the echoed application data")
	}

	log, err := serverCtx.HandshakeLog(p.serverSession)
	if err != nil {
		t.Fatalf("HandshakeLog: %v", err)
	}
	if log == nil || log.ClientFinished == nil || log.ServerFinished == nil {
		t.Fatal("expected a complete HandshakeLog after Connected")
	}
}

// serverCtxRef lets the server's Read callback, built before the Context
// that owns it exists, call back into that Context once it is available.
var serverCtxRef *dtls.Context
