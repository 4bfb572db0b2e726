// Package object holds the entities of a dive: container rows, the diver,
// and the decorative boat and bubbles. Geometry lives in playfield units
// (see physics.Rect); Draw methods translate to canvas coordinates.
package object

import (
	"io"
	"time"

	"github.com/tomz197/respace/internal/draw"
)

// Spawner allows objects to spawn new objects during update.
type Spawner interface {
	Spawn(obj Object)
}

// UpdateContext provides all the information an object needs during update.
type UpdateContext struct {
	Delta   time.Duration
	Screen  Screen
	Spawner Spawner
}

// DrawContext provides drawing resources for objects.
type DrawContext struct {
	Canvas *draw.Canvas // High-resolution canvas (2x vertical)
	Writer io.Writer    // Direct terminal output (for text)
	WaterY float64      // Canvas y of the water line
}

// Screen represents logical dimensions.
type Screen struct {
	Width   int
	Height  int
	CenterX int
	CenterY int
}

// Object is a drawable and updatable decorative entity.
type Object interface {
	// Update updates the object state. Returns true if the object should be removed.
	Update(ctx UpdateContext) (remove bool, err error)

	// Draw draws the object. Use ctx.Canvas for high-res shapes, ctx.Writer for text.
	Draw(ctx DrawContext) error
}

// Drawable is implemented by entities whose state is owned elsewhere
// (rows and the diver are advanced by the game loop, not by Update).
type Drawable interface {
	Draw(ctx DrawContext) error
}

// Releasable is implemented by pooled objects that can be returned to a pool.
type Releasable interface {
	// Release returns the object to its pool for reuse.
	Release()
}

// ReleaseObject releases an object back to its pool if it implements Releasable.
func ReleaseObject(obj Object) {
	if r, ok := obj.(Releasable); ok {
		r.Release()
	}
}

// ShouldRenderBlink returns true if an object with remaining blink
// time should be rendered this frame.
// Returns true always if remainingTime <= 0.
func ShouldRenderBlink(remainingTime float64, frequency float64) bool {
	if remainingTime <= 0 {
		return true
	}
	phase := int(remainingTime * frequency)
	return phase%2 != 0
}

var (
	_ Drawable = (*Row)(nil)
	_ Drawable = Diver{}
	_ Object   = (*Boat)(nil)
	_ Object   = (*Bubble)(nil)
)
