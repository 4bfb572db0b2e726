package client

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/tomz197/respace/internal/draw"
	"github.com/tomz197/respace/internal/loop"
	"github.com/tomz197/respace/internal/loop/config"
	"github.com/tomz197/respace/internal/object"
)

// Oxygen at or below this level makes the diver blink.
const lowOxygen = 30

const oxygenBarWidth = 20

var titleArt = []string{
	` ___ ___ ___ ___   _    ___ ___ `,
	`| _ \ __/ __| _ \ /_\  / __| __|`,
	`|   / _|\__ \  _// _ \| (__| _| `,
	`|_|_\___|___/_| /_/ \_\\___|___|`,
}

var gameOverArt = []string{
	`   ___   _   __  __ ___    _____   _____ ___  `,
	`  / __| /_\ |  \/  | __|  / _ \ \ / / __| _ \ `,
	` | (_ |/ _ \| |\/| | _|  | (_) \ V /| _||   / `,
	`  \___/_/ \_\_|  |_|___|  \___/ \_/ |___|_|_\ `,
}

// drawFrame draws the current frame.
func (c *Client) drawFrame() error {
	screen := screenFor(c.state, c.game.State())

	// On screen transitions, do a full terminal clear so UI elements from
	// the previous screen don't persist.
	if screen != c.state.prevScreen {
		c.chunkWriter.WriteString("\033[H\033[2J")
		c.canvas.ForceRedraw()
		c.state.prevScreen = screen
	}

	c.canvas.Clear()

	ctx := object.DrawContext{
		Canvas: c.canvas,
		Writer: c.chunkWriter,
		WaterY: config.SkyHeight,
	}

	c.drawWaterLine()
	if err := c.boat.Draw(ctx); err != nil {
		return err
	}
	for _, row := range c.game.Rows() {
		if err := row.Draw(ctx); err != nil {
			return err
		}
	}
	if phase := c.game.State(); phase != loop.StateIdle && phase != loop.StateEnded {
		diver := object.Diver{Box: c.game.Player()}
		if phase == loop.StatePlaying && c.game.Oxygen() <= lowOxygen {
			diver.BlinkTime = c.state.blinkClock
		}
		if err := diver.Draw(ctx); err != nil {
			return err
		}
	}
	for _, obj := range c.objects {
		if err := obj.Draw(ctx); err != nil {
			return err
		}
	}

	// Render canvas to terminal
	c.canvas.Render(c.chunkWriter)

	// Draw border when terminal exceeds max render resolution
	c.canvas.RenderBorder(c.chunkWriter)

	c.drawUI(screen)

	return c.chunkWriter.Flush()
}

// drawWaterLine dots the surface every other sub-pixel.
func (c *Client) drawWaterLine() {
	for x := 0.0; x < config.ViewWidth; x += 2 {
		c.canvas.SetFloat(x, config.SkyHeight)
	}
}

// drawUI draws the text overlay for the current screen.
func (c *Client) drawUI(screen Screen) {
	termWidth := c.canvas.TerminalWidth()
	termHeight := c.canvas.TerminalHeight()
	centerX := termWidth / 2
	centerY := termHeight / 2

	switch screen {
	case ScreenShutdown:
		c.drawShutdownScreen(centerX, centerY)
	case ScreenInactive:
		c.drawInactivityScreen(centerX, centerY)
	case ScreenStart:
		c.drawStartScreen(centerX, centerY)
	case ScreenGameOver:
		c.drawGameOverScreen(centerX, centerY)
	case ScreenPaused:
		c.drawHUD(termWidth, termHeight)
		c.drawPauseMenu(centerX, centerY)
	case ScreenPlaying:
		c.drawHUD(termWidth, termHeight)
	}
}

// writeText writes s and marks the cells so the canvas repaints them once
// the text is gone.
func (c *Client) writeText(col, row int, s string) {
	col = max(col, 1)
	c.chunkWriter.WriteAt(col, row, s)
	c.canvas.MarkTextDirty(col, row, utf8.RuneCountInString(s))
}

func (c *Client) writeCentered(centerX, row int, s string) {
	c.writeText(centerX-utf8.RuneCountInString(s)/2, row, s)
}

func (c *Client) writeArt(centerX, row int, art []string) {
	width := 0
	for _, line := range art {
		width = max(width, len(line))
	}
	for i, line := range art {
		c.writeText(centerX-width/2, row+i, line)
	}
}

// drawHUD draws the in-game HUD.
// Text fields use fixed-width formatting so shrinking values don't leave
// residual characters on screen.
func (c *Client) drawHUD(termWidth, termHeight int) {
	c.writeText(2, 1, fmt.Sprintf("Score: %-6d Best: %-6d", c.game.Score(), c.reporter.Best()))

	oxygen := fmt.Sprintf("O2 %s %3d", draw.Bar(float64(c.game.Oxygen())/float64(config.MaxOxygen), oxygenBarWidth), c.game.Oxygen())
	c.writeText(termWidth-utf8.RuneCountInString(oxygen)-1, 1, oxygen)

	players := fmt.Sprintf("Players: %-4d", c.lobby.Players())
	c.writeText(termWidth-len(players)-1, termHeight, players)

	if c.name != "" {
		c.writeText(2, termHeight, fmt.Sprintf("Diver: %-*s", config.MaxUsernameLength, displayName(c.name)))
	}
}

// displayName shortens a name to the HUD's limit.
func displayName(name string) string {
	r := []rune(name)
	if len(r) > config.MaxUsernameLength {
		return string(r[:config.MaxUsernameLength-1]) + "…"
	}
	return name
}

// drawStartScreen draws the title screen.
func (c *Client) drawStartScreen(centerX, centerY int) {
	titleStartY := centerY - 8
	c.writeArt(centerX, titleStartY, titleArt)

	c.writeCentered(centerX, titleStartY+len(titleArt)+1, "~ Dive through the sinking containers ~")

	controlsY := titleStartY + len(titleArt) + 3
	c.writeCentered(centerX, controlsY, "Controls")
	controlLines := []string{
		"WASD / Arrows . . . Swim",
		"Surface  . .  Breathe in",
		"ESC  . . . . . . . Pause",
		"Q  . . . . . . . .  Quit",
	}
	for i, line := range controlLines {
		c.writeCentered(centerX, controlsY+1+i, line)
	}

	promptY := controlsY + len(controlLines) + 2
	if time.Now().UnixMilli()/600%2 == 0 {
		c.writeCentered(centerX, promptY, ">>  Press SPACE to Dive  <<")
	} else {
		c.writeCentered(centerX, promptY, "                           ")
	}

	if c.state.notice != "" {
		c.writeCentered(centerX, promptY+2, c.state.notice)
	}
}

// drawGameOverScreen shows the last run with its message and the restart
// prompt.
func (c *Client) drawGameOverScreen(centerX, centerY int) {
	run := c.game.LastRun()
	titleStartY := centerY - 6
	c.writeArt(centerX, titleStartY, gameOverArt)

	y := titleStartY + len(gameOverArt) + 1
	msg := object.Centered(centerX, y, run.Message)
	msg.Draw(c.chunkWriter)
	for i := 0; i < msg.Lines(); i++ {
		c.canvas.MarkTextDirty(centerX-msg.Width()/2, y+i, msg.Width())
	}
	y += msg.Lines() + 1

	c.writeCentered(centerX, y, fmt.Sprintf("Score: %d   Best: %d", run.Score, c.reporter.Best()))

	if time.Now().UnixMilli()/600%2 == 0 {
		c.writeCentered(centerX, y+2, ">>  Press SPACE to respace  <<")
	} else {
		c.writeCentered(centerX, y+2, "                              ")
	}
	if c.state.notice != "" {
		c.writeCentered(centerX, y+4, c.state.notice)
	}
}

// drawPauseMenu draws the pause menu with the cached leaderboard.
func (c *Client) drawPauseMenu(centerX, centerY int) {
	y := centerY - 6
	c.writeCentered(centerX, y, "PAUSED")
	c.writeCentered(centerX, y+2, "ESC / ENTER  . . Resume")
	c.writeCentered(centerX, y+3, "Q  . . . . . . . .  Quit")

	c.writeCentered(centerX, y+5, "Leaderboard")
	top := c.lobby.Snapshot().TopScores
	if len(top) == 0 {
		c.writeCentered(centerX, y+6, "no scores yet")
		return
	}
	for i, entry := range top {
		c.writeCentered(centerX, y+6+i, fmt.Sprintf("%d. %-16s %6d", i+1, entry.Name, entry.Score))
	}
}

// drawInactivityScreen draws the inactivity warning screen.
func (c *Client) drawInactivityScreen(centerX, centerY int) {
	c.writeCentered(centerX, centerY-2, "INACTIVITY WARNING")

	msg := fmt.Sprintf(
		"You have been inactive for too long. You will be disconnected in %d seconds.",
		int(config.InactivityDisconnectUser-time.Since(c.lastInput).Seconds()),
	)
	c.writeCentered(centerX, centerY, msg)
	c.writeCentered(centerX, centerY+2, "Press any key to continue")
}

// drawShutdownScreen draws the server shutdown notification screen.
func (c *Client) drawShutdownScreen(centerX, centerY int) {
	c.writeCentered(centerX, centerY-3, "SERVER SHUTTING DOWN")
	c.writeCentered(centerX, centerY-1, "The server is restarting for maintenance.")
	c.writeCentered(centerX, centerY, "Please reconnect in a moment.")

	remaining := int(c.state.shutdownTimer) + 1
	c.writeCentered(centerX, centerY+2, fmt.Sprintf("Disconnecting in %d seconds...", remaining))
	c.writeCentered(centerX, centerY+4, "Press Q to disconnect now")
}
