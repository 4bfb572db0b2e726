package object

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/tomz197/respace/internal/physics"
)

// MinSlots is the smallest row that still leaves a gap away from both edges.
const MinSlots = 5

// Row is one band of containers sinking through the water with a single
// passable gap. A Row only answers geometry queries; it never touches the
// session that owns it.
type Row struct {
	Y         float64 // Top edge in playfield units
	SlotWidth float64
	Height    float64
	Speed     float64 // Units per second
	Slots     int
	Gap       int  // Index of the empty slot
	Scored    bool // Set once the row has sunk below the diver without a hit
}

// NewRow lays out a row for a playfield of the given width. The gap is drawn
// uniformly from [2, slots-2] so it is never one of the first two slots or
// the last one. The row starts just above the water line.
func NewRow(width, slotWidth, height, speed float64, rng *rand.Rand) *Row {
	slots := MinSlots
	if slotWidth > 0 {
		slots = max(int(math.Ceil(width/slotWidth)), MinSlots)
	}
	return &Row{
		Y:         -height,
		SlotWidth: slotWidth,
		Height:    height,
		Speed:     speed,
		Slots:     slots,
		Gap:       2 + rng.IntN(slots-3),
	}
}

// Advance sinks the row by speed * elapsed.
func (r *Row) Advance(elapsed time.Duration) {
	if elapsed <= 0 {
		return
	}
	r.Y += r.Speed * elapsed.Seconds()
}

// OutOfScreen reports whether the row's top edge is past the bottom of a
// field of the given height.
func (r *Row) OutOfScreen(fieldHeight float64) bool {
	return r.Y > fieldHeight
}

// SlotRect returns the bounds of slot i.
func (r *Row) SlotRect(i int) physics.Rect {
	return physics.Rect{X: float64(i) * r.SlotWidth, Y: r.Y, W: r.SlotWidth, H: r.Height}
}

// GapRect returns the bounds of the empty slot.
func (r *Row) GapRect() physics.Rect {
	return r.SlotRect(r.Gap)
}

// Solids returns the bounds of every container in the row.
func (r *Row) Solids() []physics.Rect {
	out := make([]physics.Rect, 0, r.Slots-1)
	for i := 0; i < r.Slots; i++ {
		if i != r.Gap {
			out = append(out, r.SlotRect(i))
		}
	}
	return out
}

// Check runs the per-step queries against the diver's box. hit reports an
// overlap with any container. scored is true exactly once per row: the
// first check without a hit in which the diver's bottom edge is above the
// gap's top edge, meaning the row has sunk past the diver.
func (r *Row) Check(player physics.Rect) (hit, scored bool) {
	first, last := physics.SlotSpan(player.X, player.Right(), r.SlotWidth, r.Slots)
	for i := first; i <= last; i++ {
		if i == r.Gap {
			continue
		}
		if player.Overlaps(r.SlotRect(i)) {
			return true, false
		}
	}
	if !r.Scored && player.Bottom() < r.Y {
		r.Scored = true
		return false, true
	}
	return false, false
}

// Draw renders the containers as filled blocks with a seam between them.
func (r *Row) Draw(ctx DrawContext) error {
	y := ctx.WaterY + r.Y
	for i := 0; i < r.Slots; i++ {
		if i == r.Gap {
			continue
		}
		x := float64(i) * r.SlotWidth
		ctx.Canvas.FillRect(x, y, r.SlotWidth-1, r.Height)
	}
	return nil
}
