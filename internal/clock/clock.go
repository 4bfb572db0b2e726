// Package clock provides the single-threaded scheduler that drives a game
// session: fixed-interval timers, one-shot timers and per-frame callbacks,
// all advanced explicitly by the owner of the event loop.
//
// The terminal client advances a Scheduler by the measured frame time;
// tests advance it by hand. Either way every callback runs on the goroutine
// that calls Advance, so the state they touch needs no locking. Other
// goroutines hand work back to that goroutine with Post.
package clock

import (
	"sync"
	"time"
)

// FrameFunc is called once per delivered frame with the scheduler time.
type FrameFunc func(now time.Duration)

type timerKind int

const (
	kindOnce timerKind = iota
	kindEvery
	kindFrame
)

// Timer is a handle to a scheduled callback.
type Timer struct {
	kind     timerKind
	seq      uint64
	deadline time.Duration
	period   time.Duration
	fn       func()
	frameFn  FrameFunc
	active   bool
}

// Stop cancels the timer. It reports whether the timer was still armed.
// Stopping from inside any callback guarantees the timer never fires again,
// including later in the same Advance. A nil Timer is a no-op.
func (t *Timer) Stop() bool {
	if t == nil || !t.active {
		return false
	}
	t.active = false
	return true
}

// Active reports whether the timer is still armed.
func (t *Timer) Active() bool {
	return t != nil && t.active
}

// Scheduler is a manual clock. The zero value is not usable; call New.
type Scheduler struct {
	now    time.Duration
	seq    uint64
	timers []*Timer
	frames []*Timer

	mu     sync.Mutex
	posted []func()
}

// New creates a scheduler at time zero.
func New() *Scheduler {
	return &Scheduler{}
}

// Now returns the current scheduler time.
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// Every arms fn to run every period, first at Now()+period.
func (s *Scheduler) Every(period time.Duration, fn func()) *Timer {
	if period <= 0 {
		period = time.Millisecond
	}
	t := s.arm(kindEvery, s.now+period, fn)
	t.period = period
	return t
}

// After arms fn to run once at Now()+d.
func (s *Scheduler) After(d time.Duration, fn func()) *Timer {
	if d < 0 {
		d = 0
	}
	return s.arm(kindOnce, s.now+d, fn)
}

// RequestFrame arms fn for the next delivered frame. Like a browser's
// animation frame it fires once; a continuous animation requests again.
func (s *Scheduler) RequestFrame(fn FrameFunc) *Timer {
	s.seq++
	t := &Timer{kind: kindFrame, seq: s.seq, frameFn: fn, active: true}
	s.frames = append(s.frames, t)
	return t
}

// Post queues fn to run on the scheduler goroutine at the start of the next
// Advance or Sleep. Safe for concurrent use.
func (s *Scheduler) Post(fn func()) {
	s.mu.Lock()
	s.posted = append(s.posted, fn)
	s.mu.Unlock()
}

// Pending returns the number of armed timers and frame callbacks.
func (s *Scheduler) Pending() int {
	n := 0
	for _, t := range s.timers {
		if t.active {
			n++
		}
	}
	for _, t := range s.frames {
		if t.active {
			n++
		}
	}
	return n
}

// Advance moves time forward by d, firing every timer that falls due in
// deadline order, then delivers one frame at the new time.
func (s *Scheduler) Advance(d time.Duration) {
	s.advance(d, true)
}

// Sleep moves time forward by d firing timers but delivers no frame, as
// when a renderer stalls.
func (s *Scheduler) Sleep(d time.Duration) {
	s.advance(d, false)
}

func (s *Scheduler) advance(d time.Duration, frame bool) {
	if d < 0 {
		d = 0
	}
	s.runPosted()
	target := s.now + d
	for {
		t := s.nextDue(target)
		if t == nil {
			break
		}
		s.now = t.deadline
		if t.kind == kindEvery {
			t.deadline += t.period
		} else {
			t.active = false
		}
		t.fn()
	}
	s.now = target
	s.compact()
	if frame {
		s.runFrame()
	}
	s.runPosted()
}

func (s *Scheduler) arm(kind timerKind, deadline time.Duration, fn func()) *Timer {
	s.seq++
	t := &Timer{kind: kind, seq: s.seq, deadline: deadline, fn: fn, active: true}
	s.timers = append(s.timers, t)
	return t
}

// nextDue returns the earliest armed timer due at or before target.
func (s *Scheduler) nextDue(target time.Duration) *Timer {
	var best *Timer
	for _, t := range s.timers {
		if !t.active || t.deadline > target {
			continue
		}
		if best == nil || t.deadline < best.deadline || (t.deadline == best.deadline && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (s *Scheduler) runFrame() {
	batch := s.frames
	s.frames = nil
	for _, t := range batch {
		if !t.active {
			continue
		}
		t.active = false
		t.frameFn(s.now)
	}
	s.compactFrames()
}

func (s *Scheduler) runPosted() {
	s.mu.Lock()
	posted := s.posted
	s.posted = nil
	s.mu.Unlock()
	for _, fn := range posted {
		fn()
	}
}

// compact drops stopped timers so long sessions do not grow the slice.
func (s *Scheduler) compact() {
	kept := s.timers[:0]
	for _, t := range s.timers {
		if t.active {
			kept = append(kept, t)
		}
	}
	clear(s.timers[len(kept):])
	s.timers = kept
}

func (s *Scheduler) compactFrames() {
	kept := s.frames[:0]
	for _, t := range s.frames {
		if t.active {
			kept = append(kept, t)
		}
	}
	clear(s.frames[len(kept):])
	s.frames = kept
}
