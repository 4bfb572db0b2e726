package clock

import (
	"sync"
	"testing"
	"time"
)

func TestEveryFiresOncePerPeriod(t *testing.T) {
	s := New()
	fired := 0
	s.Every(time.Second, func() { fired++ })

	s.Advance(999 * time.Millisecond)
	if fired != 0 {
		t.Fatalf("fired = %d before first period, want 0", fired)
	}
	s.Advance(time.Millisecond)
	if fired != 1 {
		t.Fatalf("fired = %d at first period, want 1", fired)
	}
	s.Advance(3500 * time.Millisecond)
	if fired != 4 {
		t.Fatalf("fired = %d after 4.5s, want 4", fired)
	}
}

func TestTimersFireInDeadlineOrderWithDeadlineAsNow(t *testing.T) {
	s := New()
	var got []time.Duration
	s.After(300*time.Millisecond, func() { got = append(got, s.Now()) })
	s.Every(200*time.Millisecond, func() { got = append(got, s.Now()) })

	s.Advance(time.Second)

	want := []time.Duration{200, 300, 400, 600, 800, 1000}
	if len(got) != len(want) {
		t.Fatalf("fired %d times (%v), want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i]*time.Millisecond {
			t.Fatalf("firing %d at %v, want %v", i, got[i], want[i]*time.Millisecond)
		}
	}
	if s.Now() != time.Second {
		t.Fatalf("now = %v, want 1s", s.Now())
	}
}

func TestStopInsideCallbackPreventsLaterFiringsInSameAdvance(t *testing.T) {
	s := New()
	fired := 0
	var timer *Timer
	timer = s.Every(100*time.Millisecond, func() {
		fired++
		if fired == 2 {
			timer.Stop()
		}
	})
	other := 0
	var victim *Timer
	s.After(50*time.Millisecond, func() { victim.Stop() })
	victim = s.After(70*time.Millisecond, func() { other++ })

	s.Advance(time.Second)

	if fired != 2 {
		t.Fatalf("fired = %d, want 2", fired)
	}
	if other != 0 {
		t.Fatalf("stopped one-shot fired %d times", other)
	}
	if s.Pending() != 0 {
		t.Fatalf("pending = %d, want 0", s.Pending())
	}
}

func TestFramesRequestedDuringFrameWaitForNextFrame(t *testing.T) {
	s := New()
	frames := 0
	var step FrameFunc
	step = func(time.Duration) {
		frames++
		s.RequestFrame(step)
	}
	s.RequestFrame(step)

	s.Advance(16 * time.Millisecond)
	s.Advance(16 * time.Millisecond)
	s.Advance(16 * time.Millisecond)

	if frames != 3 {
		t.Fatalf("frames = %d, want 3", frames)
	}
	if s.Pending() != 1 {
		t.Fatalf("pending = %d, want 1", s.Pending())
	}
}

func TestFrameReceivesAdvanceTarget(t *testing.T) {
	s := New()
	var at time.Duration
	s.RequestFrame(func(now time.Duration) { at = now })
	s.Advance(40 * time.Millisecond)
	if at != 40*time.Millisecond {
		t.Fatalf("frame time = %v, want 40ms", at)
	}
}

func TestStoppedFrameInSameBatchDoesNotRun(t *testing.T) {
	s := New()
	ran := false
	var second *Timer
	s.RequestFrame(func(time.Duration) { second.Stop() })
	second = s.RequestFrame(func(time.Duration) { ran = true })

	s.Advance(16 * time.Millisecond)
	if ran {
		t.Fatal("frame stopped earlier in the batch still ran")
	}
}

func TestSleepDeliversNoFrame(t *testing.T) {
	s := New()
	frames, timers := 0, 0
	s.RequestFrame(func(time.Duration) { frames++ })
	s.After(time.Second, func() { timers++ })

	s.Sleep(2 * time.Second)

	if frames != 0 {
		t.Fatalf("frames = %d during sleep, want 0", frames)
	}
	if timers != 1 {
		t.Fatalf("timers = %d during sleep, want 1", timers)
	}
}

func TestPostRunsOnNextAdvance(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	results := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Post(func() { results++ })
		}()
	}
	wg.Wait()
	if results != 0 {
		t.Fatalf("posted work ran before Advance")
	}
	s.Advance(0)
	if results != 8 {
		t.Fatalf("results = %d, want 8", results)
	}
}

func TestNilTimerStopIsSafe(t *testing.T) {
	var timer *Timer
	if timer.Stop() {
		t.Fatal("nil timer reported active")
	}
	if timer.Active() {
		t.Fatal("nil timer reported active")
	}
}
