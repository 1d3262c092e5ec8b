package sync

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerFiresOnce(t *testing.T) {
	d := newDebouncer(10 * time.Millisecond)
	var fired atomic.Int32

	d.Arm(1, func() { fired.Add(1) })

	time.Sleep(50 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Fatalf("expected 1 fire, got %d", got)
	}
}

func TestDebouncerRestartsOnRearm(t *testing.T) {
	d := newDebouncer(30 * time.Millisecond)
	var fired atomic.Int32

	// Each re-arm replaces the pending timer; only the last one fires.
	for i := 0; i < 5; i++ {
		d.Arm(1, func() { fired.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(80 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Fatalf("expected exactly 1 fire after re-arms, got %d", got)
	}
}

func TestDebouncerCancel(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	var fired atomic.Int32

	d.Arm(1, func() { fired.Add(1) })
	d.Cancel(1)

	time.Sleep(60 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("expected no fire after cancel, got %d", got)
	}
}

func TestDebouncerPerBoardTimers(t *testing.T) {
	d := newDebouncer(10 * time.Millisecond)
	var board1, board2 atomic.Int32

	d.Arm(1, func() { board1.Add(1) })
	d.Arm(2, func() { board2.Add(1) })
	d.Cancel(1)

	time.Sleep(50 * time.Millisecond)
	if board1.Load() != 0 {
		t.Fatal("board 1 timer should have been cancelled")
	}
	if board2.Load() != 1 {
		t.Fatal("board 2 timer should have fired")
	}
}

func TestDebouncerCancelAll(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	var fired atomic.Int32

	d.Arm(1, func() { fired.Add(1) })
	d.Arm(2, func() { fired.Add(1) })
	d.CancelAll()

	time.Sleep(60 * time.Millisecond)
	if got := fired.Load(); got != 0 {
		t.Fatalf("expected no fires after CancelAll, got %d", got)
	}
}
