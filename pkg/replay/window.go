// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

// Package replay implements the per-epoch sliding replay window of RFC
// 6347 Section 4.1.2.6 on top of github.com/pion/transport/v3/replaydetector,
// a bitmap-based detector that avoids reimplementing the sliding-window
// bookkeeping by hand.
package replay

import (
	"errors"

	"github.com/pion/transport/v3/replaydetector"
	"github.com/lightdtls/lightdtls/pkg/protocol/record"
)

// DefaultWindowSize is the bitmap width RFC 6347 Section 4.1.2.6
// recommends.
const DefaultWindowSize = 64

// ErrStale is returned for a sequence number above the 48-bit maximum. A
// sequence number that has fallen behind the window is not told apart from
// a duplicate: Check reports it as ErrReplay.
var ErrStale = errors.New("replay: stale sequence number")

// ErrReplay is returned for a sequence number already marked accepted
// within the window.
var ErrReplay = errors.New("replay: duplicate sequence number")

// Window tracks acceptance per read epoch. A new Window is created, or an
// existing one reset, whenever the peer's read epoch advances: epoch and
// sequence number together form the record's true replay identity, so a
// window from a retired epoch carries no information about the new one.
type Window struct {
	size       uint
	byEpoch    map[uint16]replaydetector.ReplayDetector
}

// NewWindow creates a Window with the given bitmap width (DefaultWindowSize
// if size is non-positive).
func NewWindow(size uint) *Window {
	if size == 0 {
		size = DefaultWindowSize
	}
	return &Window{size: size, byEpoch: make(map[uint16]replaydetector.ReplayDetector)}
}

// Check validates sequence number seq for epoch. On acceptance it returns a
// commit function the caller must invoke once the record has also passed
// authentication (AEAD open): the window only durably marks a sequence
// number used once the record is proven genuine, so an attacker replaying
// a captured ciphertext cannot use window state alone to probe which
// sequence numbers are live. A nil error with a nil commit cannot happen;
// callers that decide not to commit (e.g. the record fails to decrypt)
// simply discard the returned function.
func (w *Window) Check(epoch uint16, seq uint64) (commit func() bool, err error) {
	if seq > record.MaxSequenceNumber {
		return nil, ErrStale
	}
	det, ok := w.byEpoch[epoch]
	if !ok {
		det = replaydetector.New(w.size, record.MaxSequenceNumber)
		w.byEpoch[epoch] = det
	}

	markValid, ok := det.Check(seq)
	if !ok {
		// replaydetector.Check does not distinguish stale-vs-replay in its
		// return value; both are silently dropped by the caller, so either
		// sentinel is an accurate, if imprecise, report.
		return nil, ErrReplay
	}
	return markValid, nil
}

// Reset discards all replay state for epoch, called when the peer's read
// epoch advances away from it.
func (w *Window) Reset(epoch uint16) {
	delete(w.byEpoch, epoch)
}
