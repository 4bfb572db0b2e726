// Package input turns key events into the held-key set that drives the
// diver, and decodes raw terminal bytes into those key events.
package input

import (
	"slices"
	"strings"
	"unicode/utf8"
)

// Movement keys, named the way a browser reports them.
const (
	KeyArrowUp    = "ArrowUp"
	KeyArrowDown  = "ArrowDown"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
	KeyW          = "w"
	KeyA          = "a"
	KeyS          = "s"
	KeyD          = "d"
)

// Control keys emitted by Stream. They are not movement keys.
const (
	KeySpace  = " "
	KeyEscape = "Escape"
	KeyEnter  = "Enter"
	KeyQuit   = "q"
)

type direction struct{ dx, dy int }

var movement = map[string]direction{
	KeyArrowUp:    {0, -1},
	KeyArrowDown:  {0, 1},
	KeyArrowLeft:  {-1, 0},
	KeyArrowRight: {1, 0},
	KeyW:          {0, -1},
	KeyS:          {0, 1},
	KeyA:          {-1, 0},
	KeyD:          {1, 0},
}

// Normalize lower-cases single-character keys so "W" and "w" are the same
// input. Named keys such as "ArrowUp" are returned unchanged.
func Normalize(key string) string {
	if utf8.RuneCountInString(key) == 1 {
		return strings.ToLower(key)
	}
	return key
}

// IsMovement reports whether key (after normalization) is one of the
// eight movement keys.
func IsMovement(key string) bool {
	_, ok := movement[Normalize(key)]
	return ok
}

// Tracker is the set of currently held movement keys. It is mutated only
// by Press and Release and read by the movement step.
type Tracker struct {
	held map[string]bool
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{held: make(map[string]bool)}
}

// Press marks key as held. It reports whether key is a movement key;
// other keys are ignored.
func (t *Tracker) Press(key string) bool {
	key = Normalize(key)
	if _, ok := movement[key]; !ok {
		return false
	}
	t.held[key] = true
	return true
}

// Release clears key. It reports whether key is a movement key.
func (t *Tracker) Release(key string) bool {
	key = Normalize(key)
	if _, ok := movement[key]; !ok {
		return false
	}
	delete(t.held, key)
	return true
}

// Clear releases every key.
func (t *Tracker) Clear() {
	clear(t.held)
}

// Empty reports whether no movement key is held.
func (t *Tracker) Empty() bool {
	return len(t.held) == 0
}

// Held returns the held keys in sorted order.
func (t *Tracker) Held() []string {
	keys := make([]string, 0, len(t.held))
	for k := range t.held {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Axes resolves the held keys into a direction on each axis, each in
// {-1, 0, 1}. Opposing directions cancel; the two bindings for the same
// direction do not stack.
func (t *Tracker) Axes() (dx, dy int) {
	var left, right, up, down bool
	for k := range t.held {
		d := movement[k]
		switch {
		case d.dx < 0:
			left = true
		case d.dx > 0:
			right = true
		case d.dy < 0:
			up = true
		case d.dy > 0:
			down = true
		}
	}
	if left != right {
		dx = 1
		if left {
			dx = -1
		}
	}
	if up != down {
		dy = 1
		if up {
			dy = -1
		}
	}
	return dx, dy
}
