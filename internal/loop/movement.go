package loop

import (
	"time"

	"github.com/tomz197/respace/internal/physics"
)

// KeyDown records a pressed key. A movement key pressed while playing
// starts the movement step if it is not already running.
func (g *Game) KeyDown(key string) {
	if !g.keys.Press(key) {
		return
	}
	if g.session.State == StatePlaying {
		g.ensureMoving()
	}
}

// KeyUp records a released key. The movement step stops by itself once
// no key is held.
func (g *Game) KeyUp(key string) {
	g.keys.Release(key)
}

func (g *Game) ensureMoving() {
	if g.move.Active() || g.keys.Empty() || g.session.State != StatePlaying {
		return
	}
	g.moveFresh = true
	g.move = g.sched.RequestFrame(g.moveStep)
}

func (g *Game) stopMoving() {
	g.move.Stop()
	g.move = nil
}

// moveStep moves the diver by speed times the measured frame time.
// Movement is resolved before the refill check it may trigger.
func (g *Game) moveStep(now time.Duration) {
	if g.session.State != StatePlaying || g.keys.Empty() {
		g.move = nil
		return
	}

	dt := g.tuning.NominalFrame
	if !g.moveFresh {
		dt = now - g.moveLast
	}
	g.moveFresh = false
	g.moveLast = now

	dx, dy := g.keys.Axes()
	dist := g.tuning.PlayerSpeed * dt.Seconds()
	p := &g.session.Player
	p.X = physics.Clamp(p.X+float64(dx)*dist, 0, g.tuning.FieldWidth-p.W)
	p.Y = physics.Clamp(p.Y+float64(dy)*dist, -g.tuning.SurfaceReach, g.tuning.FieldHeight-p.H-g.tuning.BottomMargin)

	if dy != 0 && p.Y < 0 && g.session.Oxygen != g.tuning.MaxOxygen {
		g.session.Oxygen = g.tuning.MaxOxygen
		g.emit(EventOxygen, nil)
	}

	g.move = g.sched.RequestFrame(g.moveStep)
}
