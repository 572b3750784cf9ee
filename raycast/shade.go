package raycast

import "github.com/lixenwraith/textray/terminal"

// Shade is one distance bucket: distances up to MaxDistance (fraction of max range) use this glyph
type Shade struct {
	MaxDistance float64
	Glyph       rune
	Level       float64 // Brightness multiplier for the material color
	Attrs       terminal.Attr
}

// ShadeTable is ordered by MaxDistance, first match wins
type ShadeTable []Shade

// DefaultShades: close walls are dense and bright, distant ones sparse and dim
func DefaultShades() ShadeTable {
	return ShadeTable{
		{MaxDistance: 1.0 / 4, Glyph: '█', Level: 1.0, Attrs: terminal.AttrBold},
		{MaxDistance: 1.0 / 2.5, Glyph: '▓', Level: 0.85},
		{MaxDistance: 1.0 / 1.6, Glyph: '▒', Level: 0.65},
		{MaxDistance: 1.0, Glyph: '░', Level: 0.45, Attrs: terminal.AttrDim},
	}
}

// Lookup returns the bucket for a distance fraction; past the table it returns the last bucket
func (t ShadeTable) Lookup(frac float64) Shade {
	for _, s := range t {
		if frac <= s.MaxDistance {
			return s
		}
	}
	if len(t) == 0 {
		return Shade{Glyph: '#', Level: 1}
	}
	return t[len(t)-1]
}

// Band is one row bucket of the floor or ceiling: rows whose nearness is below MaxNear use this glyph
// Nearness is 0 at the horizon and 1 at the screen edge
type Band struct {
	MaxNear float64
	Glyph   rune
	Fg      terminal.RGB
	Bg      terminal.RGB
}

// BandTable is ordered by MaxNear, first match wins
type BandTable []Band

// DefaultFloor grows denser toward the viewer
func DefaultFloor() BandTable {
	return BandTable{
		{MaxNear: 0.1, Glyph: ' ', Fg: terminal.RGB{R: 60, G: 60, B: 60}},
		{MaxNear: 0.25, Glyph: '-', Fg: terminal.RGB{R: 90, G: 80, B: 60}},
		{MaxNear: 0.5, Glyph: '.', Fg: terminal.RGB{R: 120, G: 105, B: 75}},
		{MaxNear: 0.75, Glyph: 'x', Fg: terminal.RGB{R: 150, G: 130, B: 90}},
		{MaxNear: 1.0, Glyph: '#', Fg: terminal.RGB{R: 180, G: 155, B: 105}},
	}
}

// DefaultCeiling is blank with a darkening background
func DefaultCeiling() BandTable {
	return BandTable{
		{MaxNear: 0.3, Glyph: ' ', Bg: terminal.RGB{R: 10, G: 10, B: 20}},
		{MaxNear: 0.7, Glyph: ' ', Bg: terminal.RGB{R: 16, G: 16, B: 36}},
		{MaxNear: 1.0, Glyph: ' ', Bg: terminal.RGB{R: 24, G: 24, B: 52}},
	}
}

// Lookup returns the band for a nearness in [0, 1]
func (t BandTable) Lookup(near float64) Band {
	for _, b := range t {
		if near < b.MaxNear {
			return b
		}
	}
	if len(t) == 0 {
		return Band{Glyph: ' '}
	}
	return t[len(t)-1]
}
