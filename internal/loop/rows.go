package loop

import (
	"slices"
	"time"

	"github.com/tomz197/respace/internal/clock"
	"github.com/tomz197/respace/internal/object"
)

// rowRunner drives one row with its own frame callback. Advancing, the
// out-of-screen test and the collision and score queries run together in
// one step, so a row is never removed halfway through a check.
type rowRunner struct {
	game  *Game
	row   *object.Row
	frame *clock.Timer
	last  time.Duration
	dead  bool
}

func (g *Game) spawnRow() {
	t := g.tuning
	r := &rowRunner{
		game: g,
		row:  object.NewRow(t.FieldWidth, t.SlotWidth, t.RowHeight, t.RowSpeed, g.rng),
		last: g.sched.Now(),
	}
	g.session.rows = append(g.session.rows, r)
	r.frame = g.sched.RequestFrame(r.step)
	g.log.Debug("row spawned", "gap", r.row.Gap, "slots", r.row.Slots)
}

func (r *rowRunner) step(now time.Duration) {
	if r.dead {
		return
	}
	elapsed := now - r.last
	r.last = now
	g := r.game

	switch g.session.State {
	case StatePaused:
		// Time spent paused is consumed, not accumulated.
		r.frame = g.sched.RequestFrame(r.step)
		return
	case StatePlaying:
	default:
		return
	}

	r.row.Advance(elapsed)
	if r.row.OutOfScreen(g.tuning.FieldHeight) {
		g.removeRow(r)
		return
	}

	hit, scored := r.row.Check(g.session.Player)
	if hit {
		g.End(ReasonCollision)
		return
	}
	if scored {
		g.session.Score++
		g.emit(EventScored, nil)
	}
	r.frame = g.sched.RequestFrame(r.step)
}

func (r *rowRunner) destroy() {
	r.dead = true
	r.frame.Stop()
	r.frame = nil
}

func (g *Game) removeRow(r *rowRunner) {
	r.destroy()
	g.session.rows = slices.DeleteFunc(g.session.rows, func(o *rowRunner) bool { return o == r })
}

func (g *Game) clearRows() {
	for _, r := range g.session.rows {
		r.destroy()
	}
	clear(g.session.rows)
	g.session.rows = g.session.rows[:0]
}
