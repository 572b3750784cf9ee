package tui

import "github.com/lixenwraith/textray/terminal"

// Region represents a rectangular area within a grid
// All coordinates are relative to the region's origin
type Region struct {
	Grid *terminal.Grid
	X, Y int // Absolute position in grid
	W, H int // Region dimensions
}

// NewRegion covers the whole grid
func NewRegion(g *terminal.Grid) Region {
	return Region{Grid: g, W: g.Width(), H: g.Height()}
}

// Sub returns a nested region with coordinates relative to parent, result is clipped to parent bounds
func (r Region) Sub(x, y, w, h int) Region {
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x+w > r.W {
		w = r.W - x
	}
	if y+h > r.H {
		h = r.H - y
	}

	return Region{
		Grid: r.Grid,
		X:    r.X + x,
		Y:    r.Y + y,
		W:    max(w, 0),
		H:    max(h, 0),
	}
}

// Set writes a cell, silently clipped to the region
func (r Region) Set(x, y int, c terminal.Cell) {
	if x < 0 || x >= r.W || y < 0 || y >= r.H {
		return
	}
	r.Grid.Set(r.X+x, r.Y+y, c)
}

// Cell sets a single cell from parts
func (r Region) Cell(x, y int, ch rune, fg, bg terminal.RGB, attr terminal.Attr) {
	r.Set(x, y, terminal.Cell{Rune: ch, Fg: fg, Bg: bg, Attrs: attr})
}

// Fill sets every cell in the region to c
func (r Region) Fill(c terminal.Cell) {
	for y := 0; y < r.H; y++ {
		for x := 0; x < r.W; x++ {
			r.Set(x, y, c)
		}
	}
}

// Clear fills region with blank cells
func (r Region) Clear() {
	r.Fill(terminal.BlankCell)
}
