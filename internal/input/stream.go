package input

import (
	"bufio"
	"io"
	"slices"
	"time"
)

// Terminals report key presses with auto-repeat but never releases, so a
// key counts as held until no repeat arrived for the hold window. The first
// window covers the auto-repeat delay, later ones the repeat interval.
const (
	FirstHold  = 300 * time.Millisecond
	RepeatHold = 100 * time.Millisecond
)

// Event is a key transition.
type Event struct {
	Key  string
	Down bool
}

// Stream delivers input bytes via a channel and turns them into key
// events with synthesized releases.
type Stream struct {
	ch     chan byte
	closed bool
	held   map[string]time.Time // key -> release deadline
}

// StartStream spawns a goroutine that reads from r and sends bytes to the stream.
func StartStream(r io.Reader) *Stream {
	s := newStream()
	br := bufio.NewReader(r)
	go func() {
		for {
			b, err := br.ReadByte()
			if err != nil {
				close(s.ch)
				return
			}
			s.ch <- b
		}
	}()
	return s
}

func newStream() *Stream {
	return &Stream{
		ch:   make(chan byte, 128),
		held: make(map[string]time.Time),
	}
}

// Closed reports whether the underlying reader has ended.
func (s *Stream) Closed() bool {
	return s.closed
}

// Poll drains all available bytes (non-blocking) and returns the key
// events they produce at time now, followed by releases of keys whose hold
// window has expired.
func (s *Stream) Poll(now time.Time) []Event {
	var buf []byte
drain:
	for {
		select {
		case b, ok := <-s.ch:
			if !ok {
				s.closed = true
				break drain
			}
			buf = append(buf, b)
		default:
			break drain
		}
	}
	return s.handle(buf, now)
}

func (s *Stream) handle(buf []byte, now time.Time) []Event {
	var events []Event
	for _, key := range Decode(buf) {
		if _, ok := s.held[key]; ok {
			s.held[key] = now.Add(RepeatHold)
			continue
		}
		s.held[key] = now.Add(FirstHold)
		events = append(events, Event{Key: key, Down: true})
	}

	var released []string
	for key, until := range s.held {
		if !now.Before(until) {
			released = append(released, key)
		}
	}
	slices.Sort(released)
	for _, key := range released {
		delete(s.held, key)
		events = append(events, Event{Key: key})
	}
	return events
}

// ReleaseAll returns release events for every held key and forgets them,
// e.g. when the terminal loses the game screen.
func (s *Stream) ReleaseAll() []Event {
	keys := make([]string, 0, len(s.held))
	for k := range s.held {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	clear(s.held)
	events := make([]Event, len(keys))
	for i, k := range keys {
		events[i] = Event{Key: k}
	}
	return events
}

// Decode maps raw terminal bytes to key names. Arrow keys arrive as CSI
// sequences (ESC [ A..D); a lone ESC is the Escape key. Unknown bytes are
// dropped.
func Decode(buf []byte) []string {
	var keys []string
	for i := 0; i < len(buf); i++ {
		b := buf[i]

		if b == '\x1b' {
			if i+2 < len(buf) && buf[i+1] == '[' {
				if key, ok := arrowKeys[buf[i+2]]; ok {
					keys = append(keys, key)
				}
				i += 2
				continue
			}
			keys = append(keys, KeyEscape)
			continue
		}

		switch b {
		case 'w', 'W':
			keys = append(keys, KeyW)
		case 'a', 'A':
			keys = append(keys, KeyA)
		case 's', 'S':
			keys = append(keys, KeyS)
		case 'd', 'D':
			keys = append(keys, KeyD)
		case ' ':
			keys = append(keys, KeySpace)
		case '\r', '\n':
			keys = append(keys, KeyEnter)
		case 'q', 'Q', '\x03': // Ctrl+C in raw mode
			keys = append(keys, KeyQuit)
		}
	}
	return keys
}

var arrowKeys = map[byte]string{
	'A': KeyArrowUp,
	'B': KeyArrowDown,
	'C': KeyArrowRight,
	'D': KeyArrowLeft,
}
