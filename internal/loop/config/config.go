// Package config centralizes all tunable game parameters.
package config

import "time"

// View resolution - the visible viewport in logical units.
// Actual rendering scales to fit terminal size.
const (
	ViewWidth  = 120 // Logical viewport width
	ViewHeight = 80  // Logical viewport height (in sub-pixels, so 40 terminal rows)
	SkyHeight  = 12  // Band above the water line where the boat sails
)

// Playfield - the water below the sky. Game geometry is relative to the
// water line, so y < 0 is above the water.
const (
	FieldWidth  = ViewWidth
	FieldHeight = ViewHeight - SkyHeight
)

// Containers
const (
	SlotWidth   = 8.0  // Width of one container (or the gap)
	RowHeight   = 4.0  // Height of a container row
	RowSpeed    = 14.0 // Units per second
	SpawnPeriod = 2500 * time.Millisecond
)

// Oxygen
const (
	MaxOxygen   = 100
	DrainStep   = 10
	DrainPeriod = time.Second
)

// Diver
const (
	PlayerWidth   = 4.0
	PlayerHeight  = 4.0
	PlayerSpeed   = 24.0 // Units per second
	PlayerStartY  = 6.0
	SurfaceReach  = 5.0 // How far above the water line the diver may swim
	BottomMargin  = 2.0
	OffscreenDrop = 6.0 // Extra distance below the field where the diver hides
	NominalFrame  = time.Second / 60
)

// Intro
const (
	IntroDuration = 1200 * time.Millisecond
	IntroSafety   = 1800 * time.Millisecond // Completion fallback if frames stop
)

// Boat
const (
	BoatSpeed = 6.0 // Units per second
	BoatWidth = 14.0
)

// Shutdown
const (
	ShutdownDisplaySeconds = 10.0 // Seconds to show shutdown message before auto-disconnect
)

// Inactivity
const (
	InactivityWarnUser       = 90  // Seconds
	InactivityDisconnectUser = 120 // Seconds
)

// Client rendering
const (
	ClientTargetFPS       = 60
	ClientTargetFrameTime = time.Second / ClientTargetFPS
	MaxFrameDelta         = 250 * time.Millisecond
	MaxTermWidth          = 240
	MaxTermHeight         = 60
	MaxUsernameLength     = 16
)

// Lobby
const (
	LeaderboardRefresh = 30 * time.Second
	LeaderboardSize    = 5
)
