package scheduler

import (
	"sync"
	"time"
)

// DefaultMaxDelay is the longest delay a single browser timer accepts (2^31-1 ms).
const DefaultMaxDelay = 2147483647 * time.Millisecond

// DelayedAction runs a callback once at a deadline. Delays longer than
// maxDelay are split into chunks; each expiry re-arms until the deadline is
// reached, so a deadline is never cut short by the cap.
type DelayedAction struct {
	clock    Clock
	deadline time.Time
	maxDelay time.Duration

	mu      sync.Mutex
	fn      func()
	timer   Timer
	chunks  int
	stopped bool
	fired   bool
}

func NewDelayedAction(clock Clock, deadline time.Time, maxDelay time.Duration) *DelayedAction {
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}
	return &DelayedAction{clock: clock, deadline: deadline, maxDelay: maxDelay}
}

// Start arms the action. fn always runs on a timer callback, never inline.
func (a *DelayedAction) Start(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fn = fn
	a.armLocked()
}

func (a *DelayedAction) armLocked() {
	remaining := a.deadline.Sub(a.clock.Now())
	if remaining < 0 {
		remaining = 0
	}
	if remaining > a.maxDelay {
		remaining = a.maxDelay
	}
	a.chunks++
	a.timer = a.clock.AfterFunc(remaining, a.expire)
}

func (a *DelayedAction) expire() {
	a.mu.Lock()
	if a.stopped || a.fired {
		a.mu.Unlock()
		return
	}
	if a.clock.Now().Before(a.deadline) {
		a.armLocked()
		a.mu.Unlock()
		return
	}
	a.fired = true
	fn := a.fn
	a.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Stop cancels the action. It reports false if the action already fired or was stopped.
func (a *DelayedAction) Stop() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped || a.fired {
		return false
	}
	a.stopped = true
	if a.timer != nil {
		a.timer.Stop()
	}
	return true
}

func (a *DelayedAction) Deadline() time.Time { return a.deadline }

// Chunks reports how many underlying timers have been armed so far.
func (a *DelayedAction) Chunks() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.chunks
}
