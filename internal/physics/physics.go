// Package physics provides the pure geometry used for collision detection:
// axis-aligned rectangles in playfield units, with no rendering attached.
package physics

import "math"

// Rect is an axis-aligned bounding box. Y grows downwards.
type Rect struct {
	X, Y float64 // Top-left corner
	W, H float64 // Width and height
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 {
	return r.X + r.W
}

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 {
	return r.Y + r.H
}

// Overlaps reports whether r and o share interior area.
// Touching edges do not count as an overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.Right() &&
		r.Right() > o.X &&
		r.Y < o.Bottom() &&
		r.Bottom() > o.Y
}

// Clamp restricts v to [lo, hi]. If hi < lo, lo wins.
func Clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// SlotSpan returns the inclusive range of fixed-width slot indices that the
// horizontal span [left, right) touches, limited to [0, count-1].
// It is the broad phase for rows laid out as equal slots.
func SlotSpan(left, right, slotWidth float64, count int) (first, last int) {
	if count <= 0 || slotWidth <= 0 || right <= left {
		return 0, -1
	}
	first = int(math.Floor(left / slotWidth))
	last = int(math.Ceil(right/slotWidth)) - 1
	if first < 0 {
		first = 0
	}
	if last > count-1 {
		last = count - 1
	}
	return first, last
}
