package terminal

// Grid is a fixed-size row-major cell buffer
// Every cell is always initialized; there are no absent cells
type Grid struct {
	width  int
	height int
	cells  []Cell
}

// NewGrid creates a grid filled with BlankCell
func NewGrid(width, height int) *Grid {
	g := &Grid{}
	g.Resize(width, height)
	return g
}

// Resize reallocates if needed and refills every cell with BlankCell
func (g *Grid) Resize(width, height int) {
	width = max(width, 0)
	height = max(height, 0)
	size := width * height
	if cap(g.cells) < size {
		g.cells = make([]Cell, size)
	} else {
		g.cells = g.cells[:size]
	}
	g.width = width
	g.height = height
	g.Fill(BlankCell)
}

// Width returns grid width in cells
func (g *Grid) Width() int { return g.width }

// Height returns grid height in cells
func (g *Grid) Height() int { return g.height }

// Size returns the grid extent
func (g *Grid) Size() Size { return Size{Width: g.width, Height: g.height} }

// Cells exposes the row-major backing slice: cells[y*width + x]
func (g *Grid) Cells() []Cell { return g.cells }

// Get returns the cell at (x, y), ok=false when out of bounds
func (g *Grid) Get(x, y int) (Cell, bool) {
	if uint(x) >= uint(g.width) || uint(y) >= uint(g.height) {
		return Cell{}, false
	}
	return g.cells[y*g.width+x], true
}

// Set writes the cell at (x, y), returns false when out of bounds
func (g *Grid) Set(x, y int, c Cell) bool {
	if uint(x) >= uint(g.width) || uint(y) >= uint(g.height) {
		return false
	}
	g.cells[y*g.width+x] = c
	return true
}

// Fill sets every cell to c
func (g *Grid) Fill(c Cell) {
	for i := range g.cells {
		g.cells[i] = c
	}
}

// CopyFrom copies src into g, resizing g to match
func (g *Grid) CopyFrom(src *Grid) {
	if g.width != src.width || g.height != src.height {
		g.width, g.height = src.width, src.height
		if cap(g.cells) < len(src.cells) {
			g.cells = make([]Cell, len(src.cells))
		}
		g.cells = g.cells[:len(src.cells)]
	}
	copy(g.cells, src.cells)
}

// Equal reports whether both grids have the same size and cells
func (g *Grid) Equal(o *Grid) bool {
	if g.width != o.width || g.height != o.height {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}
