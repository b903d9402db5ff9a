// Package deferred provides a restartable one-shot timer guarded by a
// generation token. Every Schedule or Cancel bumps the generation, so a
// callback from a superseded timer that fires late is a no-op.
//
// It backs the journal autosave debounce, the todo undo window and toast
// expiry.
package deferred

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/afterlog/internal/clockx"
)

// Guard runs fn inside the owner's critical section. Timer callbacks go
// through it so they serialize with the owner's handlers.
type Guard func(fn func())

// Token identifies one scheduling of a Timer.
type Token uint64

type Timer struct {
	clock clockx.Clock
	guard Guard

	mu     sync.Mutex
	gen    uint64
	armed  bool
	handle clockx.Timer
	fn     func()
}

// New returns an idle Timer. A nil guard runs callbacks directly.
func New(clock clockx.Clock, guard Guard) *Timer {
	if guard == nil {
		guard = func(fn func()) { fn() }
	}
	return &Timer{clock: clock, guard: guard}
}

// Schedule arms the timer to run fn after d, replacing whatever was armed.
func (t *Timer) Schedule(d time.Duration, fn func()) Token {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
	gen := t.gen
	t.armed = true
	t.fn = fn
	t.handle = t.clock.AfterFunc(d, func() { t.fire(gen) })
	return Token(gen)
}

// Cancel disarms the timer. It reports whether a callback was pending;
// false means there was nothing armed or the callback already started.
func (t *Timer) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.armed {
		return false
	}
	t.stopLocked()
	t.gen++
	return true
}

// Fire runs the pending callback now, on the caller's goroutine, and
// reports whether there was one. The caller must already be inside the
// guard.
func (t *Timer) Fire() bool {
	t.mu.Lock()
	if !t.armed {
		t.mu.Unlock()
		return false
	}
	fn := t.fn
	t.stopLocked()
	t.gen++
	t.mu.Unlock()

	fn()
	return true
}

// Pending reports whether a callback is armed.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}

// Current returns the token of the armed callback, or 0.
func (t *Timer) Current() Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.armed {
		return 0
	}
	return Token(t.gen)
}

func (t *Timer) fire(gen uint64) {
	t.guard(func() {
		t.mu.Lock()
		if !t.armed || t.gen != gen {
			t.mu.Unlock()
			return
		}
		fn := t.fn
		t.armed = false
		t.handle = nil
		t.fn = nil
		t.mu.Unlock()

		fn()
	})
}

func (t *Timer) stopLocked() {
	if t.handle != nil {
		t.handle.Stop()
	}
	t.handle = nil
	t.armed = false
	t.fn = nil
}
