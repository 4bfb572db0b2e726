package object

import "github.com/tomz197/respace/internal/draw"

// Boat sails across the sky above the water line, wrapping around once it
// has fully left the screen. Purely decorative.
type Boat struct {
	X     float64
	Width float64
	Speed float64 // Units per second
}

// NewBoat creates a boat just off the left edge.
func NewBoat(width, speed float64) *Boat {
	return &Boat{X: -width, Width: width, Speed: speed}
}

// Update moves the boat and wraps it after it crosses the screen.
func (b *Boat) Update(ctx UpdateContext) (bool, error) {
	b.X += b.Speed * ctx.Delta.Seconds()
	if b.X > float64(ctx.Screen.Width)+b.Width {
		b.X = -b.Width
	}
	return false, nil
}

// Draw renders a hull sitting on the water line with a small cabin.
func (b *Boat) Draw(ctx DrawContext) error {
	y := ctx.WaterY
	hull := ctx.Canvas.BorrowPoints(4)
	hull[0] = draw.Point{X: b.X, Y: y - 3}
	hull[1] = draw.Point{X: b.X + b.Width, Y: y - 3}
	hull[2] = draw.Point{X: b.X + b.Width*0.85, Y: y}
	hull[3] = draw.Point{X: b.X + b.Width*0.15, Y: y}
	ctx.Canvas.DrawPolygon(hull, true)
	ctx.Canvas.FillRect(b.X+b.Width*0.35, y-6, b.Width*0.3, 3)
	return nil
}
