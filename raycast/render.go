package raycast

import (
	"math"

	"github.com/lixenwraith/textray/terminal"
	"github.com/lixenwraith/textray/terminal/tui"
)

// Materials maps wall tiles 1..9 to base colors, index 0 is unused
var Materials = [10]terminal.RGB{
	{},
	{R: 200, G: 200, B: 200}, // 1 stone
	{R: 200, G: 60, B: 50},   // 2 brick
	{R: 70, G: 170, B: 70},   // 3 moss
	{R: 70, G: 110, B: 210},  // 4 slate
	{R: 210, G: 180, B: 60},  // 5 sandstone
	{R: 170, G: 80, B: 190},  // 6 amethyst
	{R: 60, G: 190, B: 190},  // 7 teal
	{R: 220, G: 130, B: 50},  // 8 copper
	{R: 240, G: 240, B: 240}, // 9 marble
}

// Face tints: north/south faces are darker than east/west so corners read
const (
	tintNS = 0.7
	tintEW = 1.0
)

// Renderer converts cast columns into cells
type Renderer struct {
	MaxRange  float64
	Shades    ShadeTable
	Floor     BandTable
	Ceiling   BandTable
	Materials [10]terminal.RGB
}

// NewRenderer uses the default shade, floor and ceiling tables
func NewRenderer(maxRange float64) *Renderer {
	return &Renderer{
		MaxRange:  maxRange,
		Shades:    DefaultShades(),
		Floor:     DefaultFloor(),
		Ceiling:   DefaultCeiling(),
		Materials: Materials,
	}
}

// WallSpan returns the first row and row count of a column's wall run in a view of height h
func WallSpan(col Column, h int) (top, height int) {
	if !col.Hit || h <= 0 {
		return h / 2, 0
	}
	if col.Distance < 1e-6 {
		return 0, h
	}
	run := float64(h) / col.Distance
	if run >= float64(h) {
		return 0, h
	}
	// Every hit is at least one row tall
	height = max(int(math.Round(run)), 1)
	return (h - height) / 2, height
}

// Draw paints one column of cells per ray into r, every cell of r is written
// Columns beyond len(cols) are drawn as open floor and ceiling
func (rd *Renderer) Draw(r tui.Region, cols []Column) {
	h := r.H
	half := float64(h) / 2
	for x := 0; x < r.W; x++ {
		var col Column
		if x < len(cols) {
			col = cols[x]
		}
		top, height := WallSpan(col, h)
		wall := rd.wallCell(col)

		for y := 0; y < h; y++ {
			switch {
			case y >= top && y < top+height:
				r.Set(x, y, wall)
			case y < top || (height == 0 && float64(y) < half):
				// Distance from the horizon, 1 at the top row
				near := (half - float64(y)) / half
				b := rd.Ceiling.Lookup(near)
				r.Set(x, y, terminal.Cell{Rune: b.Glyph, Fg: b.Fg, Bg: b.Bg})
			default:
				near := (float64(y) + 1 - half) / half
				b := rd.Floor.Lookup(near)
				r.Set(x, y, terminal.Cell{Rune: b.Glyph, Fg: b.Fg, Bg: b.Bg})
			}
		}
	}
}

func (rd *Renderer) wallCell(col Column) terminal.Cell {
	if !col.Hit {
		return terminal.BlankCell
	}
	frac := 1.0
	if rd.MaxRange > 0 {
		frac = col.Distance / rd.MaxRange
	}
	s := rd.Shades.Lookup(frac)

	tint := tintEW
	if col.Face == FaceNorth || col.Face == FaceSouth {
		tint = tintNS
	}
	base := rd.Materials[min(int(col.Tile), len(rd.Materials)-1)]
	return terminal.Cell{
		Rune:  s.Glyph,
		Fg:    base.Scale(s.Level * tint),
		Attrs: s.Attrs,
	}
}
