package client

import "github.com/tomz197/respace/internal/loop"

// Screen is what the client is showing.
type Screen int

const (
	ScreenStart    Screen = iota // Title screen
	ScreenPlaying                // Intro or active dive
	ScreenPaused                 // Pause menu with leaderboard
	ScreenGameOver               // Last run's message, waiting for a restart
	ScreenInactive               // Inactivity warning
	ScreenShutdown               // Server is shutting down
)

// ClientState holds per-connection presentation state. Game state lives in
// the loop.Game; this is only what the terminal needs on top of it.
type ClientState struct {
	Running       bool
	shutdownTimer float64 // Countdown before auto-disconnect on shutdown
	shuttingDown  bool
	isInactive    bool
	notice        string  // Deterrent message shown on the start screen
	finishedRuns  int     // Runs ended in this connection
	blinkClock    float64 // Seconds, drives the low-oxygen blink
	bubbleTimer   float64 // Seconds until the next bubble burst
	prevScreen    Screen
}

// NewClientState creates a new initialized client state.
func NewClientState() *ClientState {
	return &ClientState{Running: true, prevScreen: -1}
}

// screenFor picks the screen from the game phase and client flags.
func screenFor(st *ClientState, phase loop.State) Screen {
	switch {
	case st.shuttingDown:
		return ScreenShutdown
	case st.isInactive:
		return ScreenInactive
	}
	switch phase {
	case loop.StateIntro, loop.StatePlaying:
		return ScreenPlaying
	case loop.StatePaused:
		return ScreenPaused
	}
	if st.finishedRuns > 0 {
		return ScreenGameOver
	}
	return ScreenStart
}
