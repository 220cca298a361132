// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package replay

import "testing"

func TestWindowAcceptsIncreasingSequence(t *testing.T) {
	w := NewWindow(DefaultWindowSize)
	for _, seq := range []uint64{0, 1, 2, 5, 4} {
		commit, err := w.Check(1, seq)
		if err != nil {
			t.Fatalf("seq %d: unexpected error %v", seq, err)
		}
		commit()
	}
}

func TestWindowRejectsReplay(t *testing.T) {
	w := NewWindow(DefaultWindowSize)
	commit, err := w.Check(1, 10)
	if err != nil {
		t.Fatal(err)
	}
	commit()
	if _, err := w.Check(1, 10); err != ErrReplay {
		t.Fatalf("expected ErrReplay, got %v", err)
	}
}

func TestWindowRejectsStaleBeyondWidth(t *testing.T) {
	w := NewWindow(8)
	commit, err := w.Check(1, 100)
	if err != nil {
		t.Fatal(err)
	}
	commit()
	if _, err := w.Check(1, 10); err != ErrReplay {
		t.Fatalf("expected stale/replay rejection, got %v", err)
	}
}

func TestWindowResetOnEpochAdvance(t *testing.T) {
	w := NewWindow(DefaultWindowSize)
	commit, err := w.Check(1, 5)
	if err != nil {
		t.Fatal(err)
	}
	commit()
	w.Reset(1)
	if _, err := w.Check(1, 5); err != nil {
		t.Fatalf("expected reset epoch to re-accept seq 5, got %v", err)
	}
}

func TestWindowSeparatesEpochs(t *testing.T) {
	w := NewWindow(DefaultWindowSize)
	commit, err := w.Check(1, 5)
	if err != nil {
		t.Fatal(err)
	}
	commit()
	if _, err := w.Check(2, 5); err != nil {
		t.Fatalf("epoch 2 should not be affected by epoch 1 state: %v", err)
	}
}
