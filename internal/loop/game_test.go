package loop

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/tomz197/respace/internal/clock"
)

type recorder struct {
	scores []int
}

func (r *recorder) Report(score int) {
	r.scores = append(r.scores, score)
}

type harness struct {
	g      *Game
	s      *clock.Scheduler
	rep    *recorder
	events []Event
}

func newHarness(t *testing.T, tune func(*Tuning)) *harness {
	t.Helper()
	tuning := DefaultTuning()
	if tune != nil {
		tune(&tuning)
	}
	h := &harness{s: clock.New(), rep: &recorder{}}
	h.g = New(h.s, Options{
		Tuning:   tuning,
		Rand:     rand.New(rand.NewPCG(1, 2)),
		Reporter: h.rep,
		OnEvent:  func(e Event) { h.events = append(h.events, e) },
	})
	return h
}

// play starts a run and delivers one frame past the intro.
func (h *harness) play(t *testing.T) {
	t.Helper()
	if !h.g.Start() {
		t.Fatalf("Start() = false in state %v", h.g.State())
	}
	h.s.Advance(1300 * time.Millisecond)
	if h.g.State() != StatePlaying {
		t.Fatalf("state = %v after intro, want playing", h.g.State())
	}
}

func (h *harness) run(total, step time.Duration) {
	for elapsed := time.Duration(0); elapsed < total; elapsed += step {
		h.s.Advance(step)
	}
}

func (h *harness) count(typ EventType) int {
	n := 0
	for _, e := range h.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

// intoGap moves the diver inside the gap column of row i.
func (h *harness) intoGap(i int) {
	gap := h.g.session.rows[i].row.GapRect()
	h.g.session.Player.X = gap.X + (gap.W-h.g.session.Player.W)/2
}

func slow(t *Tuning) {
	t.RowSpeed = 0
	t.SpawnPeriod = time.Hour
}

func TestIntroThenPlaying(t *testing.T) {
	h := newHarness(t, nil)
	if !h.g.Start() {
		t.Fatal("Start() = false from idle")
	}
	if h.g.State() != StateIntro {
		t.Fatalf("state = %v, want intro", h.g.State())
	}
	if h.g.Start() {
		t.Fatal("second Start() during intro = true")
	}
	if h.g.TogglePause() {
		t.Fatal("TogglePause() during intro = true")
	}

	hidden := h.g.Player().Y
	h.s.Advance(600 * time.Millisecond)
	y := h.g.Player().Y
	if h.g.State() != StateIntro {
		t.Fatalf("state = %v halfway, want intro", h.g.State())
	}
	if p := h.g.IntroProgress(); p < 0.49 || p > 0.51 {
		t.Fatalf("progress = %v halfway, want 0.5", p)
	}
	if !(y < hidden && y > DefaultTuning().PlayerStartY) {
		t.Fatalf("halfway y = %v, want between %v and %v", y, DefaultTuning().PlayerStartY, hidden)
	}

	h.s.Advance(700 * time.Millisecond)
	if h.g.State() != StatePlaying {
		t.Fatalf("state = %v, want playing", h.g.State())
	}
	if h.g.Score() != 0 || h.g.Oxygen() != 100 {
		t.Fatalf("score, oxygen = %d, %d, want 0, 100", h.g.Score(), h.g.Oxygen())
	}
	if h.g.Player().Y != DefaultTuning().PlayerStartY {
		t.Fatalf("y = %v, want start position", h.g.Player().Y)
	}
	if len(h.g.Rows()) != 1 {
		t.Fatalf("rows = %d, want the first row spawned immediately", len(h.g.Rows()))
	}
	// Spawn cadence, drain cadence and the row frame. No key is held, so no
	// movement frame.
	if got := h.s.Pending(); got != 3 {
		t.Fatalf("pending = %d, want 3", got)
	}
}

func TestIntroSafetyCompletesWithoutFrames(t *testing.T) {
	h := newHarness(t, nil)
	h.g.Start()
	h.s.Sleep(1799 * time.Millisecond)
	if h.g.State() != StateIntro {
		t.Fatalf("state = %v before the safety timeout, want intro", h.g.State())
	}
	h.s.Sleep(time.Millisecond)
	if h.g.State() != StatePlaying {
		t.Fatalf("state = %v after the safety timeout, want playing", h.g.State())
	}
	if h.count(EventStateChanged) != 2 {
		t.Fatalf("state changes = %d, want idle->intro->playing", h.count(EventStateChanged))
	}
}

func TestStartRefusedByGuard(t *testing.T) {
	s := clock.New()
	var events []Event
	g := New(s, Options{
		Guard:   func() bool { return true },
		OnEvent: func(e Event) { events = append(events, e) },
	})
	if g.Start() {
		t.Fatal("Start() = true with the guard tripped")
	}
	if g.State() != StateIdle {
		t.Fatalf("state = %v, want idle", g.State())
	}
	if len(events) != 1 || events[0].Type != EventDeterred || events[0].Message != DeterrentMessage {
		t.Fatalf("events = %+v, want one deterrent", events)
	}
	if s.Pending() != 0 {
		t.Fatalf("pending = %d, want 0", s.Pending())
	}
}

func TestOxygenDrainsByStepAndEndsOnce(t *testing.T) {
	h := newHarness(t, slow)
	h.play(t)

	h.run(time.Second, 100*time.Millisecond)
	if h.g.Oxygen() != 90 {
		t.Fatalf("oxygen = %d after one tick, want 90", h.g.Oxygen())
	}

	// Every remaining tick falls due inside this one Advance.
	h.s.Advance(20 * time.Second)

	if n := h.count(EventEnded); n != 1 {
		t.Fatalf("ended events = %d, want 1", n)
	}
	if !slices.Equal(h.rep.scores, []int{0}) {
		t.Fatalf("reported = %v, want [0]", h.rep.scores)
	}
	run := h.g.LastRun()
	if run.Reason != ReasonOxygen || !slices.Contains(Messages(ReasonOxygen), run.Message) {
		t.Fatalf("last run = %+v", run)
	}
	if h.g.State() != StateIdle || h.g.Oxygen() != 100 {
		t.Fatalf("state, oxygen = %v, %d, want idle, 100", h.g.State(), h.g.Oxygen())
	}
	if h.s.Pending() != 0 {
		t.Fatalf("pending = %d after end, want 0", h.s.Pending())
	}
	for _, e := range h.events {
		if e.Type == EventOxygen && e.Oxygen < 0 {
			t.Fatalf("oxygen went negative: %d", e.Oxygen)
		}
	}
}

func TestPauseFreezesTheSession(t *testing.T) {
	h := newHarness(t, func(t *Tuning) { t.SpawnPeriod = time.Hour })
	h.play(t)
	y := h.g.Rows()[0].Y

	if !h.g.TogglePause() || h.g.State() != StatePaused {
		t.Fatalf("state = %v, want paused", h.g.State())
	}
	h.run(5*time.Second, 16*time.Millisecond)
	if h.g.Oxygen() != 100 {
		t.Fatalf("oxygen = %d while paused, want 100", h.g.Oxygen())
	}
	if got := h.g.Rows()[0].Y; got != y {
		t.Fatalf("row moved while paused: %v -> %v", y, got)
	}

	h.g.TogglePause()
	h.s.Advance(16 * time.Millisecond)
	want := y + DefaultTuning().RowSpeed*0.016
	if got := h.g.Rows()[0].Y; math.Abs(got-want) > 1e-9 {
		t.Fatalf("row y = %v after resume, want %v (paused time must not accumulate)", got, want)
	}
}

func TestCollisionEndsOnceAcrossRows(t *testing.T) {
	h := newHarness(t, slow)
	h.play(t)
	h.g.spawnRow()
	h.g.spawnRow()

	p := &h.g.session.Player
	p.X, p.W = 0, 40 // Spans five slots, at least two of them solid.
	for _, r := range h.g.session.rows {
		r.row.Y = p.Y
	}
	h.s.Advance(16 * time.Millisecond)

	if n := h.count(EventEnded); n != 1 {
		t.Fatalf("ended events = %d, want 1", n)
	}
	if len(h.rep.scores) != 1 {
		t.Fatalf("reports = %v, want one", h.rep.scores)
	}
	if h.g.LastRun().Reason != ReasonCollision {
		t.Fatalf("reason = %v, want collision", h.g.LastRun().Reason)
	}
	if len(h.g.Rows()) != 0 || h.s.Pending() != 0 {
		t.Fatalf("rows = %d, pending = %d after end, want 0, 0", len(h.g.Rows()), h.s.Pending())
	}
}

func TestEndStopsEverything(t *testing.T) {
	h := newHarness(t, slow)
	h.play(t)
	h.g.End(ReasonCollision)
	h.g.End(ReasonOxygen)

	if n := h.count(EventEnded); n != 1 {
		t.Fatalf("ended events = %d, want 1", n)
	}
	before := len(h.events)
	h.run(10*time.Second, 100*time.Millisecond)
	if len(h.events) != before {
		t.Fatalf("events after end: %+v", h.events[before:])
	}
	if h.s.Pending() != 0 {
		t.Fatalf("pending = %d, want 0", h.s.Pending())
	}
	if !h.g.Start() {
		t.Fatal("cannot start again after end")
	}
}

func TestEndedIsObservableDuringReport(t *testing.T) {
	h := newHarness(t, slow)
	h.play(t)
	var during State
	h.g.onEvent = func(e Event) {
		if e.Type == EventEnded {
			during = h.g.State()
		}
	}
	h.g.End(ReasonOxygen)
	if during != StateEnded {
		t.Fatalf("state during ended event = %v, want ended", during)
	}
}

func TestRowLeavesScreenAndScores(t *testing.T) {
	h := newHarness(t, func(t *Tuning) {
		t.RowSpeed = 100
		t.SpawnPeriod = time.Hour
	})
	h.play(t)
	h.intoGap(0)

	h.run(time.Second, 10*time.Millisecond)
	if len(h.g.Rows()) != 0 {
		t.Fatalf("rows = %d, want the row removed past the bottom", len(h.g.Rows()))
	}
	if h.g.Score() != 1 {
		t.Fatalf("score = %d, want 1", h.g.Score())
	}
	if got := h.s.Pending(); got != 2 {
		t.Fatalf("pending = %d, want only the two cadences", got)
	}
}

func TestSpawnCadence(t *testing.T) {
	h := newHarness(t, func(t *Tuning) { t.RowSpeed = 0 })
	h.play(t)
	h.run(5*time.Second, 100*time.Millisecond)
	if got := len(h.g.Rows()); got != 3 {
		t.Fatalf("rows = %d after 5s, want 3", got)
	}
}

func TestOpposingKeysCancel(t *testing.T) {
	h := newHarness(t, slow)
	h.play(t)
	start := h.g.Player()

	h.g.KeyDown("a")
	h.g.KeyDown("ArrowRight")
	h.g.KeyDown("W")
	h.g.KeyDown("s")
	h.run(500*time.Millisecond, 16*time.Millisecond)

	if got := h.g.Player(); got != start {
		t.Fatalf("player moved from %+v to %+v", start, got)
	}
}

func TestMovementScalesWithFrameTime(t *testing.T) {
	h := newHarness(t, slow)
	h.play(t)
	x := h.g.Player().X

	h.g.KeyDown("d")
	h.run(time.Second, 100*time.Millisecond)

	// First frame after the start uses the nominal frame time.
	tune := DefaultTuning()
	want := x + tune.PlayerSpeed*(tune.NominalFrame.Seconds()+0.9)
	if got := h.g.Player().X; math.Abs(got-want) > 1e-9 {
		t.Fatalf("x = %v, want %v", got, want)
	}

	h.run(2*time.Second, 100*time.Millisecond)
	if got, want := h.g.Player().X, tune.FieldWidth-tune.PlayerWidth; got != want {
		t.Fatalf("x = %v, want clamped to %v", got, want)
	}

	h.g.KeyUp("D")
	h.s.Advance(16 * time.Millisecond)
	if got := h.s.Pending(); got != 3 {
		t.Fatalf("pending = %d after release, want the movement frame gone", got)
	}
}

func TestSurfacingRefillsOxygen(t *testing.T) {
	h := newHarness(t, slow)
	h.play(t)
	h.g.clearRows() // Nothing in the way up.

	h.run(2*time.Second, 100*time.Millisecond)
	if h.g.Oxygen() != 80 {
		t.Fatalf("oxygen = %d, want 80", h.g.Oxygen())
	}

	h.g.KeyDown("ArrowUp")
	h.run(500*time.Millisecond, 50*time.Millisecond)
	if got, want := h.g.Player().Y, -DefaultTuning().SurfaceReach; got != want {
		t.Fatalf("y = %v, want clamped to %v", got, want)
	}
	if h.g.Oxygen() != 100 {
		t.Fatalf("oxygen = %d above water, want 100", h.g.Oxygen())
	}
}

func TestPauseStopsMovementFrames(t *testing.T) {
	h := newHarness(t, slow)
	h.play(t)
	h.g.KeyDown("d")
	h.s.Advance(16 * time.Millisecond)
	if got := h.s.Pending(); got != 4 {
		t.Fatalf("pending = %d, want cadences, row and movement", got)
	}

	h.g.TogglePause()
	if got := h.s.Pending(); got != 3 {
		t.Fatalf("pending = %d while paused, want no movement frame", got)
	}
	x := h.g.Player().X
	h.run(time.Second, 16*time.Millisecond)
	if h.g.Player().X != x {
		t.Fatal("diver moved while paused")
	}

	h.g.TogglePause()
	h.s.Advance(16 * time.Millisecond)
	if h.g.Player().X <= x {
		t.Fatal("diver did not resume moving with the key still held")
	}

	h.g.TogglePause()
	h.g.KeyUp("d")
	h.g.TogglePause()
	if got := h.s.Pending(); got != 3 {
		t.Fatalf("pending = %d after resuming with no key held, want 3", got)
	}
}

func TestKeysHeldBeforeStartMoveOncePlaying(t *testing.T) {
	h := newHarness(t, slow)
	h.g.KeyDown("a")
	if h.s.Pending() != 0 {
		t.Fatalf("pending = %d while idle, want 0", h.s.Pending())
	}
	h.play(t)
	x := h.g.Player().X
	h.s.Advance(16 * time.Millisecond)
	if h.g.Player().X >= x {
		t.Fatal("held key did not move the diver once playing")
	}
	if !slices.Equal(h.g.Held(), []string{"a"}) {
		t.Fatalf("held = %v", h.g.Held())
	}
}

func TestStopAbandonsWithoutReport(t *testing.T) {
	h := newHarness(t, nil)
	h.play(t)
	h.g.KeyDown("w")
	h.s.Advance(16 * time.Millisecond)

	h.g.Stop()
	if len(h.rep.scores) != 0 {
		t.Fatalf("reported %v after Stop", h.rep.scores)
	}
	if h.g.State() != StateIdle || h.s.Pending() != 0 {
		t.Fatalf("state = %v, pending = %d, want idle, 0", h.g.State(), h.s.Pending())
	}

	h.g.Start()
	h.g.Stop()
	if h.s.Pending() != 0 {
		t.Fatalf("pending = %d after stopping the intro, want 0", h.s.Pending())
	}
}

func TestPlayScenario(t *testing.T) {
	h := newHarness(t, func(t *Tuning) { t.SpawnPeriod = 10 * time.Second })
	h.play(t)
	h.intoGap(0)

	// Three drain ticks while the first row sinks past the diver.
	h.run(3*time.Second, 10*time.Millisecond)
	if h.g.Oxygen() != 70 {
		t.Fatalf("oxygen = %d, want 70", h.g.Oxygen())
	}
	if h.g.Score() != 1 {
		t.Fatalf("score = %d, want 1", h.g.Score())
	}

	h.g.spawnRow()
	r := h.g.session.rows[len(h.g.session.rows)-1].row
	solid := r.SlotRect(r.Gap + 1)
	h.g.session.Player.X = solid.X + 2
	r.Y = h.g.Player().Y
	h.s.Advance(10 * time.Millisecond)

	var ended *Event
	for i := range h.events {
		if h.events[i].Type == EventEnded {
			ended = &h.events[i]
		}
	}
	if ended == nil || ended.Reason != ReasonCollision || ended.Score != 1 || ended.State != StateEnded {
		t.Fatalf("ended event = %+v", ended)
	}
	if h.g.State() != StateIdle {
		t.Fatalf("state = %v, want idle", h.g.State())
	}
	if h.g.Score() != 0 || h.g.Oxygen() != 100 {
		t.Fatalf("score, oxygen = %d, %d, want 0, 100", h.g.Score(), h.g.Oxygen())
	}
	if !slices.Equal(h.rep.scores, []int{1}) {
		t.Fatalf("reported = %v, want [1]", h.rep.scores)
	}
	if h.s.Pending() != 0 {
		t.Fatalf("pending = %d, want 0", h.s.Pending())
	}
}
