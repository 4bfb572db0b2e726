package object

import (
	"strings"
	"unicode/utf8"
)

// TextWriter places text at 1-based canvas positions. draw.ChunkWriter
// implements it.
type TextWriter interface {
	WriteAt(col, row int, s string)
}

// Text is a block of text lines, each centered on column X, starting at
// row Y. Coordinates are 1-based terminal positions.
type Text struct {
	X     int
	Y     int
	Value string // May contain newlines
}

// Centered returns a Text centered on column cx at row y.
func Centered(cx, y int, value string) Text {
	return Text{X: cx, Y: y, Value: value}
}

// Lines returns the number of rows the text occupies.
func (t Text) Lines() int {
	if t.Value == "" {
		return 0
	}
	return strings.Count(t.Value, "\n") + 1
}

// Width returns the widest line in runes.
func (t Text) Width() int {
	w := 0
	for _, line := range strings.Split(t.Value, "\n") {
		w = max(w, utf8.RuneCountInString(line))
	}
	return w
}

// Draw writes every line centered on X.
func (t Text) Draw(w TextWriter) {
	if t.Value == "" {
		return
	}
	for i, line := range strings.Split(t.Value, "\n") {
		col := max(t.X-utf8.RuneCountInString(line)/2, 1)
		w.WriteAt(col, max(t.Y+i, 1), line)
	}
}
