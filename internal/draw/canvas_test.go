package draw

import (
	"strings"
	"testing"
)

func TestFillRectSetsHalfBlocks(t *testing.T) {
	c := NewCanvas(4, 2)
	c.FillRect(1, 0, 2, 1)

	var out strings.Builder
	c.Render(&out)
	got := out.String()
	if strings.Count(got, string(BlockUpperHalf)) != 2 {
		t.Fatalf("render = %q, want two upper half blocks", got)
	}
	if strings.ContainsRune(got, BlockFull) {
		t.Fatalf("render = %q, unexpected full block", got)
	}
}

func TestFillRectClipsToCanvas(t *testing.T) {
	c := NewCanvas(4, 2)
	c.FillRect(-10, -10, 100, 100)
	for i, p := range c.pixels {
		if !p {
			t.Fatalf("pixel %d not set", i)
		}
	}
	c.Clear()
	c.FillRect(2, 2, 0, 3)
	for i, p := range c.pixels {
		if p {
			t.Fatalf("zero-width rect set pixel %d", i)
		}
	}
}

func TestRenderOnlyWritesChangedCells(t *testing.T) {
	c := NewCanvas(8, 2)
	c.FillRect(0, 0, 2, 2)
	var first strings.Builder
	c.Render(&first)
	if first.Len() == 0 {
		t.Fatal("first render wrote nothing")
	}

	var second strings.Builder
	c.Render(&second)
	if second.Len() != 0 {
		t.Fatalf("unchanged frame rendered %q", second.String())
	}

	c.Clear()
	var third strings.Builder
	c.Render(&third)
	if got := strings.Count(third.String(), " "); got != 2 {
		t.Fatalf("cleared cells = %d spaces in %q, want 2", got, third.String())
	}
}

func TestForceRedrawRepaints(t *testing.T) {
	c := NewCanvas(4, 1)
	c.FillRect(0, 0, 1, 2)
	var out strings.Builder
	c.Render(&out)
	out.Reset()
	c.ForceRedraw()
	c.Render(&out)
	if !strings.ContainsRune(out.String(), BlockFull) {
		t.Fatalf("forced render = %q, want the block repainted", out.String())
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		fraction float64
		width    int
		want     string
	}{
		{1, 4, "████"},
		{0, 3, "   "},
		{0.5, 4, "██  "},
		{2, 2, "██"},
		{0.5, 0, ""},
	}
	for _, tt := range tests {
		if got := Bar(tt.fraction, tt.width); got != tt.want {
			t.Errorf("Bar(%v, %d) = %q, want %q", tt.fraction, tt.width, got, tt.want)
		}
	}
}

func TestMarkTextDirtyRepaintsCells(t *testing.T) {
	c := NewCanvas(6, 1)
	var out strings.Builder
	c.Render(&out)

	c.MarkTextDirty(2, 1, 3)
	out.Reset()
	c.Render(&out)
	if got := strings.Count(out.String(), " "); got != 3 {
		t.Fatalf("render = %q, want three blanked cells", out.String())
	}

	c.MarkTextDirty(5, 1, 10) // Clipped to the canvas width.
	c.MarkTextDirty(1, 9, 3)  // Off the canvas.
	out.Reset()
	c.Render(&out)
	if got := strings.Count(out.String(), " "); got != 2 {
		t.Fatalf("render = %q, want two blanked cells", out.String())
	}
}
