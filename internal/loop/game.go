// Package loop runs a dive: the session state machine, its cadences and the
// per-frame steps of the diver and every container row. A Game never reads
// the wall clock; it is driven entirely by the clock.Scheduler it is given.
package loop

import (
	"io"
	"math"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/respace/internal/clock"
	"github.com/tomz197/respace/internal/input"
	"github.com/tomz197/respace/internal/object"
	"github.com/tomz197/respace/internal/physics"
)

// Reporter receives the score of every finished run. Report must not block.
type Reporter interface {
	Report(score int)
}

// Options configures a Game. Every field is optional.
type Options struct {
	Tuning   Tuning     // Zero value means DefaultTuning()
	Rand     *rand.Rand // Gap placement and end messages
	Reporter Reporter
	// Guard is consulted by Start; returning true refuses the start with
	// the deterrent message.
	Guard   func() bool
	OnEvent func(Event)
	Logger  *log.Logger
}

// Game is one player's session controller.
type Game struct {
	sched   *clock.Scheduler
	tuning  Tuning
	rng     *rand.Rand
	report  Reporter
	guard   func() bool
	onEvent func(Event)
	log     *log.Logger

	session Session
	keys    *input.Tracker

	spawn *clock.Timer
	drain *clock.Timer

	move      *clock.Timer
	moveLast  time.Duration
	moveFresh bool

	introFrame  *clock.Timer
	introSafety *clock.Timer
	introStart  time.Duration
	introFromY  float64
}

// New creates an idle game driven by sched.
func New(sched *clock.Scheduler, opts Options) *Game {
	if opts.Tuning == (Tuning{}) {
		opts.Tuning = DefaultTuning()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	g := &Game{
		sched:   sched,
		tuning:  opts.Tuning,
		rng:     opts.Rand,
		report:  opts.Reporter,
		guard:   opts.Guard,
		onEvent: opts.OnEvent,
		log:     opts.Logger,
		keys:    input.NewTracker(),
	}
	g.session.State = StateIdle
	g.session.Oxygen = g.tuning.MaxOxygen
	g.session.Player = physics.Rect{W: g.tuning.PlayerWidth, H: g.tuning.PlayerHeight}
	g.hidePlayer()
	return g
}

// State returns the current phase.
func (g *Game) State() State { return g.session.State }

// Score returns the score of the current run.
func (g *Game) Score() int { return g.session.Score }

// Oxygen returns the remaining oxygen.
func (g *Game) Oxygen() int { return g.session.Oxygen }

// Player returns the diver's box in playfield units.
func (g *Game) Player() physics.Rect { return g.session.Player }

// LastRun returns the most recent finished run.
func (g *Game) LastRun() Run { return g.session.LastRun }

// Held returns the held movement keys.
func (g *Game) Held() []string { return g.keys.Held() }

// Tuning returns the parameters in use, including the current field size.
func (g *Game) Tuning() Tuning { return g.tuning }

// Rows returns the live rows, oldest first.
func (g *Game) Rows() []*object.Row {
	rows := make([]*object.Row, len(g.session.rows))
	for i, r := range g.session.rows {
		rows[i] = r.row
	}
	return rows
}

// IntroProgress returns how far the intro animation has run, in [0, 1].
func (g *Game) IntroProgress() float64 {
	if g.session.State != StateIntro || g.tuning.IntroDuration <= 0 {
		return 0
	}
	return min(float64(g.sched.Now()-g.introStart)/float64(g.tuning.IntroDuration), 1)
}

// Resize sets the playfield size used by new rows and movement clamps.
func (g *Game) Resize(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	g.tuning.FieldWidth = width
	g.tuning.FieldHeight = height
	p := &g.session.Player
	if g.session.State == StatePlaying || g.session.State == StatePaused {
		p.X = physics.Clamp(p.X, 0, width-p.W)
		p.Y = physics.Clamp(p.Y, -g.tuning.SurfaceReach, height-p.H-g.tuning.BottomMargin)
	}
}

// Start begins a run from Idle. It reports whether the intro started.
func (g *Game) Start() bool {
	if g.session.State != StateIdle {
		return false
	}
	if g.guard != nil && g.guard() {
		g.log.Warn("start refused by guard")
		g.emit(EventDeterred, func(e *Event) { e.Message = DeterrentMessage })
		return false
	}

	g.hidePlayer()
	g.introStart = g.sched.Now()
	g.introFromY = g.session.Player.Y
	g.setState(StateIntro)
	g.introFrame = g.sched.RequestFrame(g.introStep)
	g.introSafety = g.sched.After(g.tuning.IntroSafety, g.completeIntro)
	return true
}

func (g *Game) introStep(now time.Duration) {
	if g.session.State != StateIntro {
		return
	}
	t := 1.0
	if g.tuning.IntroDuration > 0 {
		t = min(float64(now-g.introStart)/float64(g.tuning.IntroDuration), 1)
	}
	to := g.tuning.PlayerStartY
	g.session.Player.Y = g.introFromY + (to-g.introFromY)*easeOutQuint(t)
	if t >= 1 {
		g.completeIntro()
		return
	}
	g.introFrame = g.sched.RequestFrame(g.introStep)
}

// completeIntro is reached from the last intro frame or the safety timer,
// whichever comes first.
func (g *Game) completeIntro() {
	if g.session.State != StateIntro {
		return
	}
	g.introFrame.Stop()
	g.introSafety.Stop()
	g.session.Player.Y = g.tuning.PlayerStartY
	g.enterPlaying()
}

func easeOutQuint(t float64) float64 {
	return 1 - math.Pow(1-t, 5)
}

func (g *Game) enterPlaying() {
	g.session.Score = 0
	g.session.Oxygen = g.tuning.MaxOxygen
	g.setState(StatePlaying)

	g.spawnRow()
	g.spawn = g.sched.Every(g.tuning.SpawnPeriod, g.spawnTick)
	g.drain = g.sched.Every(g.tuning.DrainPeriod, g.drainTick)
	g.ensureMoving()
}

func (g *Game) spawnTick() {
	if g.session.State != StatePlaying {
		return
	}
	g.spawnRow()
}

func (g *Game) drainTick() {
	if g.session.State != StatePlaying {
		return
	}
	g.session.Oxygen = max(g.session.Oxygen-g.tuning.DrainStep, 0)
	g.emit(EventOxygen, nil)
	if g.session.Oxygen <= 0 {
		g.End(ReasonOxygen)
	}
}

// TogglePause switches between Playing and Paused and reports whether the
// state changed. It does nothing during the intro or while idle.
func (g *Game) TogglePause() bool {
	switch g.session.State {
	case StatePlaying:
		g.setState(StatePaused)
		g.stopMoving()
		return true
	case StatePaused:
		g.setState(StatePlaying)
		g.ensureMoving()
		return true
	}
	return false
}

// End finishes the running session. It is a no-op unless a run is playing
// or paused, so a second call in the same frame does nothing.
func (g *Game) End(reason Reason) {
	if g.session.State != StatePlaying && g.session.State != StatePaused {
		return
	}
	final := g.session.Score
	g.setState(StateEnded)
	g.cancelAll()

	g.session.Oxygen = g.tuning.MaxOxygen
	g.session.LastRun = Run{Score: final, Reason: reason, Message: pickMessage(g.rng, reason)}
	g.log.Info("run ended", "score", final, "reason", reason)
	g.emit(EventEnded, func(e *Event) {
		e.Score = final
		e.Reason = reason
		e.Message = g.session.LastRun.Message
	})
	if g.report != nil {
		g.report.Report(final)
	}

	g.session.Score = 0
	g.hidePlayer()
	g.setState(StateIdle)
}

// Stop abandons any session without reporting it and cancels every timer
// the game armed. The game can be started again afterwards.
func (g *Game) Stop() {
	g.cancelAll()
	g.keys.Clear()
	g.session.Score = 0
	g.session.Oxygen = g.tuning.MaxOxygen
	g.hidePlayer()
	if g.session.State != StateIdle {
		g.setState(StateIdle)
	}
}

func (g *Game) cancelAll() {
	g.spawn.Stop()
	g.drain.Stop()
	g.introFrame.Stop()
	g.introSafety.Stop()
	g.stopMoving()
	g.clearRows()
	g.spawn, g.drain, g.introFrame, g.introSafety = nil, nil, nil, nil
}

// hidePlayer parks the diver below the playfield, horizontally centered.
func (g *Game) hidePlayer() {
	p := &g.session.Player
	p.X = (g.tuning.FieldWidth - p.W) / 2
	p.Y = g.tuning.FieldHeight + p.H + g.tuning.OffscreenDrop
}

func (g *Game) setState(s State) {
	if g.session.State == s {
		return
	}
	g.log.Debug("state", "from", g.session.State, "to", s)
	g.session.State = s
	g.emit(EventStateChanged, nil)
}

func (g *Game) emit(t EventType, fill func(*Event)) {
	if g.onEvent == nil {
		return
	}
	e := Event{
		Type:   t,
		State:  g.session.State,
		Score:  g.session.Score,
		Oxygen: g.session.Oxygen,
	}
	if fill != nil {
		fill(&e)
	}
	g.onEvent(e)
}
