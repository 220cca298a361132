// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package cookie

import (
	"testing"
	"time"
)

func TestGenerateIsDeterministic(t *testing.T) {
	s, err := NewService(time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	addr := []byte("198.51.100.1:5684")
	random := []byte("client-random-32-bytes-00000000")

	a := s.Generate(now, addr, random, []byte{0xfe, 0xfd}, nil, nil)
	b := s.Generate(now, addr, random, []byte{0xfe, 0xfd}, nil, nil)
	if len(a) != Length {
		t.Fatalf("expected %d-byte cookie, got %d", Length, len(a))
	}
	if string(a) != string(b) {
		t.Fatal("expected identical cookies for identical inputs and unchanged secret")
	}
	if !s.Verify(now, a, addr, random, []byte{0xfe, 0xfd}, nil, nil) {
		t.Fatal("expected freshly generated cookie to verify")
	}
}

func TestDiffersAcrossAddresses(t *testing.T) {
	s, err := NewService(time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	random := []byte("client-random-32-bytes-00000000")

	a := s.Generate(now, []byte("10.0.0.1:5684"), random, nil, nil, nil)
	b := s.Generate(now, []byte("10.0.0.2:5684"), random, nil, nil, nil)
	if string(a) == string(b) {
		t.Fatal("expected different cookies for different addresses")
	}
}

func TestGraceWindowAcceptsPreviousSecret(t *testing.T) {
	s, err := NewService(10 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	t0 := time.Now()
	addr := []byte("10.0.0.1:5684")
	random := []byte("client-random-32-bytes-00000000")

	stale := s.Generate(t0, addr, random, nil, nil, nil)

	// Force rotation by checking well past the rotation period.
	t1 := t0.Add(time.Hour)
	if !s.Verify(t1, stale, addr, random, nil, nil, nil) {
		t.Fatal("expected cookie from just before rotation to verify within the grace window")
	}
}
