package object

import (
	"github.com/tomz197/respace/internal/draw"
	"github.com/tomz197/respace/internal/physics"
)

// Diver draws the player's sprite at the box the game loop reports.
type Diver struct {
	Box       physics.Rect
	BlinkTime float64 // Seconds of low-oxygen warning; 0 draws steadily
}

// diverBlinkFrequency is how fast the diver flashes when oxygen runs low.
const diverBlinkFrequency = 4.0

// Draw renders the diver as a small body with a fin trailing on the left.
func (d Diver) Draw(ctx DrawContext) error {
	if !ShouldRenderBlink(d.BlinkTime, diverBlinkFrequency) {
		return nil
	}
	x := d.Box.X
	y := ctx.WaterY + d.Box.Y
	w, h := d.Box.W, d.Box.H

	body := ctx.Canvas.BorrowPoints(4)
	body[0] = draw.Point{X: x + w*0.25, Y: y}
	body[1] = draw.Point{X: x + w, Y: y + h*0.5}
	body[2] = draw.Point{X: x + w*0.25, Y: y + h}
	body[3] = draw.Point{X: x, Y: y + h*0.5}
	ctx.Canvas.DrawPolygon(body, true)
	return nil
}
