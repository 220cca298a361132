// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package handshake

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// RandomLength is the on-wire size of a Random: 4 bytes gmt_unix_time plus
// 28 random bytes, RFC 5246 Section 7.4.1.2.
const RandomLength = 32

// Random is the client_random/server_random value mixed into the PRF seed
// for master secret and key block derivation.
type Random struct {
	GMTUnixTime time.Time
	RandomBytes [28]byte
}

// Populate fills r with the current time and fresh random bytes.
func (r *Random) Populate() error {
	r.GMTUnixTime = time.Now()
	_, err := rand.Read(r.RandomBytes[:])
	return err
}

// MarshalFixed encodes r into the 32-byte wire representation.
func (r Random) MarshalFixed() [RandomLength]byte {
	var out [RandomLength]byte
	binary.BigEndian.PutUint32(out[0:4], uint32(r.GMTUnixTime.Unix()))
	copy(out[4:], r.RandomBytes[:])
	return out
}

// UnmarshalFixed decodes r from its 32-byte wire representation.
func (r *Random) UnmarshalFixed(data [RandomLength]byte) {
	r.GMTUnixTime = time.Unix(int64(binary.BigEndian.Uint32(data[0:4])), 0)
	copy(r.RandomBytes[:], data[4:])
}
