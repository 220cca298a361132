// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package prf implements the TLS 1.2 PRF (RFC 5246 Section 5) specialised
// to HMAC-SHA-256, and the PSK key schedule built on top of it: premaster
// secret construction, master secret/key block derivation, and Finished
// verify_data.
package prf

import (
	"crypto/hmac"
	"encoding/binary"
	"hash"
)

// hashFunc constructs the hash.Hash used throughout; this endpoint only
// ever passes sha256.New, but threading a constructor through every call
// keeps the PRF testable in isolation from the rest of the key schedule.
type hashFunc = func() hash.Hash

// pHash is the iterated HMAC construction underlying the PRF:
//
//	A(1) = HMAC(secret, seed)
//	A(i) = HMAC(secret, A(i-1))
//	output = HMAC(secret, A(1)||seed) || HMAC(secret, A(2)||seed) || ...
//
// truncated to the requested length.
func pHash(secret, seed []byte, requestedLength int, h hashFunc) ([]byte, error) {
	hmacHash := hmac.New(h, secret)

	var err error
	var lastRound []byte
	out := []byte{}

	iterations := (requestedLength + hmacHash.Size() - 1) / hmacHash.Size()
	for i := 0; i < iterations; i++ {
		hmacHash.Reset()
		if lastRound == nil {
			lastRound = seed
		}
		if _, err = hmacHash.Write(lastRound); err != nil {
			return nil, err
		}

		lastRound = hmacHash.Sum(nil)
		hmacHash.Reset()
		if _, err = hmacHash.Write(lastRound); err != nil {
			return nil, err
		}
		if _, err = hmacHash.Write(seed); err != nil {
			return nil, err
		}

		out = append(out, hmacHash.Sum(nil)...)
	}

	return out[:requestedLength], nil
}

// PRF computes PRF(secret, label, seed) = P_SHA256(secret, label || seed),
// truncated to requestedLength bytes.
func PRF(secret []byte, label string, seed []byte, requestedLength int, h hashFunc) ([]byte, error) {
	labelAndSeed := make([]byte, len(label)+len(seed))
	copy(labelAndSeed, label)
	copy(labelAndSeed[len(label):], seed)

	return pHash(secret, labelAndSeed, requestedLength, h)
}

// PSKPreMasterSecret builds the RFC 4279 Section 2 premaster secret for a
// plain PSK cipher suite: uint16(N) || 0^N || uint16(N) || psk, where N is
// the PSK length. There is no "other" key material (ECDHE, RSA) to prepend:
// this endpoint only negotiates the plain-PSK key exchange.
func PSKPreMasterSecret(psk []byte) []byte {
	n := len(psk)

	out := make([]byte, (2+n)*2)
	binary.BigEndian.PutUint16(out, uint16(n))
	binary.BigEndian.PutUint16(out[2+n:], uint16(n))
	copy(out[2+n+2:], psk)
	return out
}

const masterSecretLength = 48

// MasterSecret computes master_secret = PRF(premaster, "master secret",
// client_random || server_random)[0:48].
func MasterSecret(preMasterSecret, clientRandom, serverRandom []byte, h hashFunc) ([]byte, error) {
	seed := append(append([]byte{}, clientRandom...), serverRandom...)
	return PRF(preMasterSecret, "master secret", seed, masterSecretLength, h)
}

// EncryptionKeys is the parsed key_block: key_expansion PRF output split
// into client/server MAC keys (zero-length for an AEAD suite), write keys,
// and write IVs.
type EncryptionKeys struct {
	MasterSecret   []byte
	ClientMACKey   []byte
	ServerMACKey   []byte
	ClientWriteKey []byte
	ServerWriteKey []byte
	ClientWriteIV  []byte
	ServerWriteIV  []byte
}

// GenerateEncryptionKeys computes key_block = PRF(master, "key expansion",
// server_random || client_random) and slices it into the six fields above,
// in that order. macLen is 0 for PSK/AES-128-CCM-8, an AEAD suite with no
// separate MAC key.
func GenerateEncryptionKeys(masterSecret, clientRandom, serverRandom []byte, macLen, keyLen, ivLen int, h hashFunc) (*EncryptionKeys, error) {
	seed := append(append([]byte{}, serverRandom...), clientRandom...)
	totalLength := (2 * macLen) + (2 * keyLen) + (2 * ivLen)

	keyBlock, err := PRF(masterSecret, "key expansion", seed, totalLength, h)
	if err != nil {
		return nil, err
	}

	offset := 0
	next := func(n int) []byte {
		out := keyBlock[offset : offset+n]
		offset += n
		return out
	}

	clientMACKey := next(macLen)
	serverMACKey := next(macLen)
	clientWriteKey := next(keyLen)
	serverWriteKey := next(keyLen)
	clientWriteIV := next(ivLen)
	serverWriteIV := next(ivLen)

	return &EncryptionKeys{
		MasterSecret:   masterSecret,
		ClientMACKey:   clientMACKey,
		ServerMACKey:   serverMACKey,
		ClientWriteKey: clientWriteKey,
		ServerWriteKey: serverWriteKey,
		ClientWriteIV:  clientWriteIV,
		ServerWriteIV:  serverWriteIV,
	}, nil
}

const verifyDataLength = 12

// VerifyDataClient computes the client's Finished verify_data =
// PRF(master, "client finished", SHA-256(handshakeMessages))[0:12], where
// handshakeMessages is the raw concatenation of every handshake message
// issued/received so far, in protocol order.
func VerifyDataClient(masterSecret, handshakeMessages []byte, h hashFunc) ([]byte, error) {
	return verifyData(masterSecret, "client finished", handshakeMessages, h)
}

// VerifyDataServer computes the server's Finished verify_data analogously,
// using the "server finished" label.
func VerifyDataServer(masterSecret, handshakeMessages []byte, h hashFunc) ([]byte, error) {
	return verifyData(masterSecret, "server finished", handshakeMessages, h)
}

func verifyData(masterSecret []byte, label string, handshakeMessages []byte, h hashFunc) ([]byte, error) {
	hh := h()
	if _, err := hh.Write(handshakeMessages); err != nil {
		return nil, err
	}
	digest := hh.Sum(nil)
	return PRF(masterSecret, label, digest, verifyDataLength, h)
}

// VerifyDataClientFromDigest and VerifyDataServerFromDigest compute the
// same verify_data as VerifyDataClient/VerifyDataServer, but take an
// already-computed transcript digest (e.g. pkg/transcript.Transcript.Sum)
// instead of raw handshake bytes, avoiding a second hash pass over the
// whole transcript on every Finished check.
func VerifyDataClientFromDigest(masterSecret, digest []byte, h hashFunc) ([]byte, error) {
	return PRF(masterSecret, "client finished", digest, verifyDataLength, h)
}

func VerifyDataServerFromDigest(masterSecret, digest []byte, h hashFunc) ([]byte, error) {
	return PRF(masterSecret, "server finished", digest, verifyDataLength, h)
}
