// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package interop cross-checks this module's wire constants against
// github.com/pion/dtls/v2, so a drift in a content type, alert
// description, or cipher suite ID value is caught even though this
// module's own record layer never talks to pion's.
package interop

import (
	"testing"

	upstreamAlert "github.com/pion/dtls/v2/pkg/protocol/alert"
	"github.com/pion/dtls/v2/pkg/crypto/ciphersuite"
	upstreamProtocol "github.com/pion/dtls/v2/pkg/protocol"

	"github.com/lightdtls/lightdtls/pkg/protocol"
	"github.com/lightdtls/lightdtls/pkg/protocol/alert"
)

func TestContentTypesMatchUpstream(t *testing.T) {
	cases := []struct {
		name string
		got  protocol.ContentType
		want upstreamProtocol.ContentType
	}{
		{"ChangeCipherSpec", protocol.ContentTypeChangeCipherSpec, upstreamProtocol.ContentTypeChangeCipherSpec},
		{"Alert", protocol.ContentTypeAlert, upstreamProtocol.ContentTypeAlert},
		{"Handshake", protocol.ContentTypeHandshake, upstreamProtocol.ContentTypeHandshake},
		{"ApplicationData", protocol.ContentTypeApplicationData, upstreamProtocol.ContentTypeApplicationData},
	}
	for _, c := range cases {
		if uint8(c.got) != uint8(c.want) {
			t.Errorf("%s: got %#x, upstream %#x", c.name, uint8(c.got), uint8(c.want))
		}
	}
}

func TestAlertDescriptionsMatchUpstream(t *testing.T) {
	cases := []struct {
		name string
		got  alert.Description
		want upstreamAlert.Description
	}{
		{"CloseNotify", alert.CloseNotify, upstreamAlert.CloseNotify},
		{"UnexpectedMessage", alert.UnexpectedMessage, upstreamAlert.UnexpectedMessage},
		{"BadRecordMAC", alert.BadRecordMAC, upstreamAlert.BadRecordMAC},
		{"HandshakeFailure", alert.HandshakeFailure, upstreamAlert.HandshakeFailure},
		{"IllegalParameter", alert.IllegalParameter, upstreamAlert.IllegalParameter},
		{"DecodeError", alert.DecodeError, upstreamAlert.DecodeError},
		{"DecryptError", alert.DecryptError, upstreamAlert.DecryptError},
		{"ProtocolVersion", alert.ProtocolVersion, upstreamAlert.ProtocolVersion},
		{"InternalError", alert.InternalError, upstreamAlert.InternalError},
		{"UnknownPSKIdentity", alert.UnknownPSKIdentity, upstreamAlert.UnknownPSKIdentity},
	}
	for _, c := range cases {
		if uint8(c.got) != uint8(c.want) {
			t.Errorf("%s: got %#x, upstream %#x", c.name, uint8(c.got), uint8(c.want))
		}
	}
}

func TestCipherSuiteIDMatchesUpstream(t *testing.T) {
	if uint16(protocol.TLSPSKWithAES128CCM8) != uint16(ciphersuite.TLS_PSK_WITH_AES_128_CCM_8) { //nolint:staticcheck // upstream identifier name
		t.Fatalf("TLS_PSK_WITH_AES_128_CCM_8: got %#04x, upstream %#04x",
			uint16(protocol.TLSPSKWithAES128CCM8), uint16(ciphersuite.TLS_PSK_WITH_AES_128_CCM_8))
	}
}
