package object

import (
	"math/rand/v2"
	"sync"
)

// bubblePool is a sync.Pool for reusing Bubble objects to reduce allocations.
var bubblePool = sync.Pool{
	New: func() any {
		return &Bubble{}
	},
}

// Bubble is a short-lived air bubble rising from the diver.
// Coordinates are playfield units; bubbles pop at the water line.
type Bubble struct {
	X, Y        float64
	VX, VY      float64
	Lifetime    float64 // Seconds remaining
	MaxLifetime float64
}

// NewBubble creates a single bubble from the pool.
func NewBubble(x, y, vx, vy, lifetime float64) *Bubble {
	b := bubblePool.Get().(*Bubble)
	b.X = x
	b.Y = y
	b.VX = vx
	b.VY = vy
	b.Lifetime = lifetime
	b.MaxLifetime = lifetime
	return b
}

// Release returns the bubble to the pool for reuse.
func (b *Bubble) Release() {
	bubblePool.Put(b)
}

// SpawnBubbles releases 0-2 bubbles from the top of the diver's head.
func SpawnBubbles(x, y float64, rng *rand.Rand, spawner Spawner) {
	if spawner == nil || rng == nil {
		return
	}
	count := rng.IntN(3)
	for i := 0; i < count; i++ {
		vx := (rng.Float64() - 0.5) * 2.0
		vy := -(6.0 + rng.Float64()*4.0)
		life := 0.8 + rng.Float64()*0.8
		spawner.Spawn(NewBubble(x, y, vx, vy, life))
	}
}

// Update moves the bubble upwards and expires it at the surface.
func (b *Bubble) Update(ctx UpdateContext) (bool, error) {
	dt := ctx.Delta.Seconds()
	b.Lifetime -= dt
	if b.Lifetime <= 0 {
		return true, nil
	}
	b.X += b.VX * dt
	b.Y += b.VY * dt
	if b.Y < 0 {
		return true, nil
	}
	return false, nil
}

// Draw renders the bubble as one sub-pixel.
func (b *Bubble) Draw(ctx DrawContext) error {
	ctx.Canvas.SetFloat(b.X, ctx.WaterY+b.Y)
	return nil
}
