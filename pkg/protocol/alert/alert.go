// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package alert implements the two-byte TLS/DTLS alert protocol body:
// level(1) || description(1), RFC 5246 Section 7.2.
package alert

import "github.com/lightdtls/lightdtls/pkg/codec"

// Level is the severity of an Alert.
type Level uint8

// Alert levels, RFC 5246 Section 7.2.
const (
	Warning Level = 1
	Fatal   Level = 2
)

func (l Level) String() string {
	switch l {
	case Warning:
		return "Warning"
	case Fatal:
		return "Fatal"
	default:
		return "Invalid"
	}
}

// Description names the condition the Alert reports.
type Description uint8

// Alert descriptions used by this endpoint. The full IANA registry is
// wider; only the subset the PSK/CCM-8 handshake can emit or must
// recognise is implemented.
const (
	CloseNotify            Description = 0
	UnexpectedMessage      Description = 10
	BadRecordMAC           Description = 20
	DecodeError            Description = 50
	DecryptError           Description = 51
	ProtocolVersion        Description = 70
	InternalError          Description = 80
	HandshakeFailure       Description = 40
	IllegalParameter       Description = 47
	UnknownPSKIdentity     Description = 115
)

func (d Description) String() string {
	switch d {
	case CloseNotify:
		return "CloseNotify"
	case UnexpectedMessage:
		return "UnexpectedMessage"
	case BadRecordMAC:
		return "BadRecordMAC"
	case DecodeError:
		return "DecodeError"
	case DecryptError:
		return "DecryptError"
	case ProtocolVersion:
		return "ProtocolVersion"
	case InternalError:
		return "InternalError"
	case HandshakeFailure:
		return "HandshakeFailure"
	case IllegalParameter:
		return "IllegalParameter"
	case UnknownPSKIdentity:
		return "UnknownPSKIdentity"
	default:
		return "Unknown"
	}
}

// Alert is the content of a record of type protocol.ContentTypeAlert.
type Alert struct {
	Level       Level
	Description Description
}

func (a Alert) String() string {
	return a.Level.String() + ": " + a.Description.String()
}

// Marshal encodes the alert body.
func (a *Alert) Marshal() ([]byte, error) {
	w := codec.NewWriter()
	w.PutUint8(uint8(a.Level))
	w.PutUint8(uint8(a.Description))
	return w.Bytes()
}

// Unmarshal decodes the alert body.
func (a *Alert) Unmarshal(data []byte) error {
	r := codec.NewReader(data)
	lvl, err := r.Uint8()
	if err != nil {
		return err
	}
	desc, err := r.Uint8()
	if err != nil {
		return err
	}
	a.Level = Level(lvl)
	a.Description = Description(desc)
	return nil
}

// Error satisfies the error interface so an Alert can be returned/wrapped
// directly when a peer reports one.
type Error struct{ Alert Alert }

func (e *Error) Error() string { return "alert: " + e.Alert.String() }

// IsFatalOrCloseNotify reports whether the wrapped alert should terminate
// the peer: any fatal alert, or a warning-level close_notify.
func (e *Error) IsFatalOrCloseNotify() bool {
	return e.Alert.Level == Fatal || e.Alert.Description == CloseNotify
}
