package loop

import (
	"time"

	"github.com/tomz197/respace/internal/loop/config"
)

// Tuning holds the gameplay parameters of a Game. Distances are playfield
// units, speeds units per second.
type Tuning struct {
	FieldWidth  float64
	FieldHeight float64

	SlotWidth   float64
	RowHeight   float64
	RowSpeed    float64
	SpawnPeriod time.Duration

	MaxOxygen   int
	DrainStep   int
	DrainPeriod time.Duration

	PlayerWidth   float64
	PlayerHeight  float64
	PlayerSpeed   float64
	PlayerStartY  float64
	SurfaceReach  float64
	BottomMargin  float64
	OffscreenDrop float64
	NominalFrame  time.Duration

	IntroDuration time.Duration
	IntroSafety   time.Duration
}

// DefaultTuning returns the parameters the terminal client plays with.
func DefaultTuning() Tuning {
	return Tuning{
		FieldWidth:  config.FieldWidth,
		FieldHeight: config.FieldHeight,

		SlotWidth:   config.SlotWidth,
		RowHeight:   config.RowHeight,
		RowSpeed:    config.RowSpeed,
		SpawnPeriod: config.SpawnPeriod,

		MaxOxygen:   config.MaxOxygen,
		DrainStep:   config.DrainStep,
		DrainPeriod: config.DrainPeriod,

		PlayerWidth:   config.PlayerWidth,
		PlayerHeight:  config.PlayerHeight,
		PlayerSpeed:   config.PlayerSpeed,
		PlayerStartY:  config.PlayerStartY,
		SurfaceReach:  config.SurfaceReach,
		BottomMargin:  config.BottomMargin,
		OffscreenDrop: config.OffscreenDrop,
		NominalFrame:  config.NominalFrame,

		IntroDuration: config.IntroDuration,
		IntroSafety:   config.IntroSafety,
	}
}
