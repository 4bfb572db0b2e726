// Package client runs one terminal connection: it reads keys, drives the
// connection's own dive through a clock.Scheduler at the frame rate and
// renders the result.
package client

import (
	"context"
	"io"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/respace/internal/clock"
	"github.com/tomz197/respace/internal/draw"
	"github.com/tomz197/respace/internal/input"
	"github.com/tomz197/respace/internal/lobby"
	"github.com/tomz197/respace/internal/loop"
	"github.com/tomz197/respace/internal/loop/config"
	"github.com/tomz197/respace/internal/object"
	"github.com/tomz197/respace/internal/score"
)

// bubbleInterval is the time between bubble bursts while diving.
const bubbleInterval = 0.35

// Client handles rendering and input for a single connection.
type Client struct {
	sched    *clock.Scheduler
	game     *loop.Game
	reporter *score.Reporter
	lobby    *lobby.Lobby
	handle   *lobby.Handle
	name     string

	state        *ClientState
	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter // Accumulates UI text for chunked output
	writer       io.Writer
	inputStream  *input.Stream
	lastInput    time.Time
	termSizeFunc draw.TermSizeFunc
	rng          *rand.Rand
	log          *log.Logger

	boat    *object.Boat
	objects []object.Object
	toSpawn []object.Object
}

// Options configures the client.
type Options struct {
	TermSizeFunc draw.TermSizeFunc
	Name         string
	Lobby        *lobby.Lobby    // Nil gives the client a lobby of its own
	Scores       score.Submitter // Nil keeps scores local
	Best         int             // Best score known at connect time
	Guard        func() bool
	Rand         *rand.Rand
	Logger       *log.Logger
}

// New creates a client reading keys from r and drawing to w.
func New(r io.Reader, w io.Writer, opts Options) *Client {
	if opts.TermSizeFunc == nil {
		opts.TermSizeFunc = draw.DefaultTermSizeFunc
	}
	if opts.Lobby == nil {
		opts.Lobby = lobby.New(lobby.Options{})
	}
	if opts.Scores == nil {
		opts.Scores = score.Offline{}
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	c := &Client{
		sched:        clock.New(),
		lobby:        opts.Lobby,
		handle:       opts.Lobby.Register(opts.Name),
		name:         opts.Name,
		state:        NewClientState(),
		writer:       w,
		inputStream:  input.StartStream(r),
		lastInput:    time.Now(),
		termSizeFunc: opts.TermSizeFunc,
		rng:          opts.Rand,
		log:          opts.Logger.With("name", opts.Name),
		boat:         object.NewBoat(config.BoatWidth, config.BoatSpeed),
	}

	c.reporter = score.NewReporter(opts.Name, opts.Scores, c.sched, score.ReporterOptions{
		Logger: c.log,
		OnBest: func(int) { c.lobby.RequestRefresh() },
	})
	c.reporter.SetBest(opts.Best)

	c.game = loop.New(c.sched, loop.Options{
		Rand:     c.rng,
		Reporter: c.reporter,
		Guard:    opts.Guard,
		OnEvent:  c.onGameEvent,
		Logger:   c.log,
	})

	// Create canvas with clamped dimensions for max render resolution
	termWidth, termHeight := c.termSize()
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)
	c.canvas = draw.NewScaledCanvas(renderWidth, renderHeight, config.ViewWidth, config.ViewHeight)
	c.canvas.SetOffset(offsetCol, offsetRow)
	c.chunkWriter = draw.NewChunkWriter(w, offsetCol, offsetRow)
	return c
}

// Game returns the client's session controller.
func (c *Client) Game() *loop.Game {
	return c.game
}

// Run starts the client loop. Blocks until the player quits, the input
// ends, the lobby shuts the client down or ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	draw.HideCursor(c.writer)
	defer draw.ShowCursor(c.writer)
	draw.ClearScreen(c.writer)

	defer c.close()

	lastTime := time.Now()
	for c.state.Running {
		if ctx.Err() != nil {
			break
		}
		frameStart := time.Now()
		delta := frameStart.Sub(lastTime)
		lastTime = frameStart

		if err := c.frame(frameStart, delta); err != nil {
			return err
		}

		// Frame timing
		elapsed := time.Since(frameStart)
		if elapsed < config.ClientTargetFrameTime {
			time.Sleep(config.ClientTargetFrameTime - elapsed)
		}
	}

	draw.ClearScreen(c.writer)
	return nil
}

// close abandons any running dive and leaves the lobby. Reports already in
// flight are allowed to finish.
func (c *Client) close() {
	c.game.Stop()
	c.lobby.Unregister(c.handle.ID)
	c.reporter.Wait()
}

// frame runs one Input → Advance → Draw cycle.
func (c *Client) frame(now time.Time, delta time.Duration) error {
	delta = min(max(delta, 0), config.MaxFrameDelta)

	c.processInput(now)
	c.processLobbyEvents()
	c.updateScreen()

	c.sched.Advance(delta)
	c.update(delta)

	return c.drawFrame()
}

// processInput turns pending bytes into key events for the game.
func (c *Client) processInput(now time.Time) {
	events := c.inputStream.Poll(now)
	if c.inputStream.Closed() {
		c.state.Running = false
	}

	if len(events) > 0 {
		c.lastInput = now
		c.state.isInactive = false
	} else if now.Sub(c.lastInput).Seconds() > config.InactivityDisconnectUser {
		c.state.Running = false
	} else if now.Sub(c.lastInput).Seconds() > config.InactivityWarnUser {
		c.state.isInactive = true
	}

	for _, ev := range events {
		c.handleKey(ev)
	}
}

func (c *Client) handleKey(ev input.Event) {
	if !ev.Down {
		c.game.KeyUp(ev.Key)
		return
	}
	switch ev.Key {
	case input.KeyQuit:
		c.state.Running = false
	case input.KeySpace:
		if c.state.shuttingDown {
			return
		}
		if c.game.State() == loop.StateIdle {
			c.state.notice = ""
			c.game.Start()
		}
	case input.KeyEscape:
		c.game.TogglePause()
	case input.KeyEnter:
		if c.game.State() == loop.StatePaused {
			c.game.TogglePause()
		}
	default:
		c.game.KeyDown(ev.Key)
	}
}

// processLobbyEvents handles events from the lobby.
func (c *Client) processLobbyEvents() {
	for {
		select {
		case event, ok := <-c.handle.Events:
			if !ok {
				c.state.Running = false
				return
			}
			if event.Type == lobby.EventServerShutdown && !c.state.shuttingDown {
				c.state.shuttingDown = true
				c.state.shutdownTimer = config.ShutdownDisplaySeconds
				if c.game.State() == loop.StatePlaying {
					c.game.TogglePause()
				}
			}
		default:
			return
		}
	}
}

func (c *Client) onGameEvent(e loop.Event) {
	switch e.Type {
	case loop.EventDeterred:
		c.state.notice = e.Message
	case loop.EventEnded:
		c.state.finishedRuns++
		c.log.Debug("dive over", "score", e.Score, "reason", e.Reason)
	}
}

// updateScreen handles terminal resize, clamping to max render resolution.
// On actual size changes, clears the terminal to remove residual pixels
// outside the new canvas area (e.g. old borders or offset content).
func (c *Client) updateScreen() {
	termWidth, termHeight := c.termSize()
	renderWidth, renderHeight, offsetCol, offsetRow := clampTermSize(termWidth, termHeight)

	if renderWidth != c.canvas.TerminalWidth() || renderHeight != c.canvas.TerminalHeight() ||
		offsetCol != c.canvas.OffsetCol() || offsetRow != c.canvas.OffsetRow() {
		draw.ClearScreen(c.writer)
		c.canvas.ForceRedraw()
	}

	c.canvas.Resize(renderWidth, renderHeight)
	c.canvas.SetOffset(offsetCol, offsetRow)
	c.chunkWriter.SetOffset(offsetCol, offsetRow)
}

// termSize returns the terminal size, falling back to 80x24 when it
// cannot be read.
func (c *Client) termSize() (int, int) {
	w, h, err := c.termSizeFunc()
	if err != nil || w <= 0 || h <= 0 {
		return 80, 24
	}
	return w, h
}

// clampTermSize clamps terminal dimensions to the max render resolution and computes
// the centering offset for the render area.
func clampTermSize(termWidth, termHeight int) (renderWidth, renderHeight, offsetCol, offsetRow int) {
	renderWidth = min(max(termWidth, 1), config.MaxTermWidth)
	renderHeight = min(max(termHeight, 1), config.MaxTermHeight)
	offsetCol = max(termWidth-renderWidth, 0) / 2
	offsetRow = max(termHeight-renderHeight, 0) / 2
	return
}

// update advances the decoration that is not part of the game: the boat,
// bubbles, the blink clock and the shutdown countdown.
func (c *Client) update(delta time.Duration) {
	dt := delta.Seconds()
	c.state.blinkClock += dt

	if c.state.shuttingDown {
		c.state.shutdownTimer -= dt
		if c.state.shutdownTimer <= 0 {
			c.state.Running = false
		}
	}

	if c.game.State() == loop.StatePlaying {
		p := c.game.Player()
		c.state.bubbleTimer -= dt
		if c.state.bubbleTimer <= 0 && p.Y > 0 {
			object.SpawnBubbles(p.X+p.W/2, p.Y, c.rng, c)
			c.state.bubbleTimer = bubbleInterval
		}
	}

	ctx := object.UpdateContext{
		Delta:   delta,
		Screen:  object.Screen{Width: config.ViewWidth, Height: config.ViewHeight, CenterX: config.ViewWidth / 2, CenterY: config.ViewHeight / 2},
		Spawner: c,
	}
	c.boat.Update(ctx)

	kept := c.objects[:0]
	for _, obj := range c.objects {
		remove, _ := obj.Update(ctx)
		if remove {
			object.ReleaseObject(obj)
			continue
		}
		kept = append(kept, obj)
	}
	clear(c.objects[len(kept):])
	c.objects = append(kept, c.toSpawn...)
	c.toSpawn = c.toSpawn[:0]
}

// Spawn queues an object to be added after the current update cycle.
// Implements object.Spawner interface.
func (c *Client) Spawn(obj object.Object) {
	c.toSpawn = append(c.toSpawn, obj)
}
