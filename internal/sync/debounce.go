package sync

import (
	"sync"
	"time"
)

// debouncer owns one cancellable timer per board. Arming an already armed
// board cancels the pending timer and starts over; closing a board session
// cancels unconditionally.
type debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	timers map[int64]*time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:  delay,
		timers: make(map[int64]*time.Timer),
	}
}

// Arm schedules fn to run after the debounce delay, replacing any pending
// timer for the board.
func (d *debouncer) Arm(boardID int64, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[boardID]; ok {
		timer.Stop()
	}
	d.timers[boardID] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.timers, boardID)
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending timer for one board, if any.
func (d *debouncer) Cancel(boardID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[boardID]; ok {
		timer.Stop()
		delete(d.timers, boardID)
	}
}

// CancelAll drops every pending timer.
func (d *debouncer) CancelAll() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, timer := range d.timers {
		timer.Stop()
		delete(d.timers, id)
	}
}
