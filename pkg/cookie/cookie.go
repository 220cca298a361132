// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package cookie implements the server's stateless HMAC cookie, the
// defence against blind amplification and off-path forgery described in
// RFC 6347 Section 4.2.1.
package cookie

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"sync"
	"time"
)

// SecretLength is the size of the rotating server secret.
const SecretLength = 12

// Length is the cookie size on the wire.
const Length = 16

// DefaultRotationPeriod is a conservative ceiling: long enough that a
// handshake in flight across a rotation still verifies against the
// previous secret, short enough to bound how long a captured cookie stays
// replayable.
const DefaultRotationPeriod = time.Hour

// Service generates and verifies cookies against a secret that rotates on
// a timer. The previous secret remains valid for one rotation period after
// a new one is generated (the "grace window"), so a client mid-handshake
// across a rotation is not rejected.
type Service struct {
	mu             sync.Mutex
	rotationPeriod time.Duration
	secret         [SecretLength]byte
	previousSecret [SecretLength]byte
	hasPrevious    bool
	generatedAt    time.Time
}

// NewService creates a Service with a fresh secret. rotationPeriod of zero
// selects DefaultRotationPeriod.
func NewService(rotationPeriod time.Duration) (*Service, error) {
	if rotationPeriod <= 0 {
		rotationPeriod = DefaultRotationPeriod
	}
	s := &Service{rotationPeriod: rotationPeriod}
	if err := s.rotateLocked(time.Now()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) rotateLocked(now time.Time) error {
	s.previousSecret = s.secret
	s.hasPrevious = !s.generatedAt.IsZero()
	if _, err := rand.Read(s.secret[:]); err != nil {
		return err
	}
	s.generatedAt = now
	return nil
}

// maybeRotateLocked rotates the secret if it has aged past rotationPeriod. Called
// with the lock held.
func (s *Service) maybeRotateLocked(now time.Time) {
	if now.Sub(s.generatedAt) > s.rotationPeriod {
		_ = s.rotateLocked(now) //nolint:errcheck // crypto/rand.Read does not fail in practice
	}
}

// Generate computes the current cookie for the given ClientHello fields:
// HMAC-SHA-256(secret, addr||random||version||cipherSuites||compression),
// truncated to Length bytes, binding the cookie to the fields RFC 6347
// Section 4.2.1 requires a resent ClientHello to echo unchanged.
func (s *Service) Generate(now time.Time, addr, clientRandom, version, cipherSuites, compression []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maybeRotateLocked(now)
	return mac(s.secret[:], addr, clientRandom, version, cipherSuites, compression)
}

// Verify reports whether cookie matches either the current secret or (if
// within one rotation period of the last rotation) the previous one.
func (s *Service) Verify(now time.Time, cookie, addr, clientRandom, version, cipherSuites, compression []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maybeRotateLocked(now)

	current := mac(s.secret[:], addr, clientRandom, version, cipherSuites, compression)
	if subtle.ConstantTimeCompare(current, cookie) == 1 {
		return true
	}
	if s.hasPrevious && now.Sub(s.generatedAt) <= s.rotationPeriod {
		previous := mac(s.previousSecret[:], addr, clientRandom, version, cipherSuites, compression)
		if subtle.ConstantTimeCompare(previous, cookie) == 1 {
			return true
		}
	}
	return false
}

func mac(secret []byte, fields ...[]byte) []byte {
	h := hmac.New(sha256.New, secret)
	for _, f := range fields {
		h.Write(f) //nolint:errcheck // hash.Hash.Write never returns an error
	}
	return h.Sum(nil)[:Length]
}
