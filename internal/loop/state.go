package loop

import "github.com/tomz197/respace/internal/physics"

// State represents the current phase of a session.
type State int

const (
	StateIdle    State = iota // Waiting for a start trigger, diver hidden
	StateIntro                // Diver swimming up to its start position
	StatePlaying              // Rows sink, oxygen drains, input moves the diver
	StatePaused               // Menu open; cadences fire but change nothing
	StateEnded                // Run finished; transient until reported
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateIntro:
		return "intro"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	}
	return "unknown"
}

// Reason says why a run ended.
type Reason string

const (
	ReasonOxygen    Reason = "oxygen"
	ReasonCollision Reason = "collision"
)

// Run describes a finished run.
type Run struct {
	Score   int
	Reason  Reason
	Message string
}

// EventType identifies what an Event reports.
type EventType int

const (
	EventStateChanged EventType = iota
	EventScored
	EventOxygen
	EventEnded
	EventDeterred
)

// Event is delivered to Options.OnEvent on the scheduler goroutine.
type Event struct {
	Type    EventType
	State   State
	Score   int
	Oxygen  int
	Reason  Reason // EventEnded only
	Message string // EventEnded and EventDeterred
}

// Session is the state of one play session. It is owned by a Game and only
// mutated from the scheduler goroutine.
type Session struct {
	State   State
	Score   int
	Oxygen  int
	Player  physics.Rect
	LastRun Run

	rows []*rowRunner
}
