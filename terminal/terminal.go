package terminal

// Attr represents text attributes (bitmask)
type Attr uint8

const (
	AttrNone      Attr = 0
	AttrBold      Attr = 1 << 0
	AttrDim       Attr = 1 << 1
	AttrUnderline Attr = 1 << 2
	AttrReverse   Attr = 1 << 3
)

// AttrStyle masks all style bits
const AttrStyle Attr = AttrBold | AttrDim | AttrUnderline | AttrReverse

// Cell represents a single terminal cell
// Cells are plain values: two cells are equal iff every field is equal
type Cell struct {
	Rune  rune
	Fg    RGB
	Bg    RGB
	Attrs Attr
}

// BlankCell is a space on black
var BlankCell = Cell{Rune: ' '}

// invalidCell never equals a drawable cell, used to poison the front buffer
var invalidCell = Cell{Rune: -1}

// Size is a terminal extent in cells
type Size struct {
	Width  int
	Height int
}

// DefaultSize is assumed when the client never reports its window
var DefaultSize = Size{Width: 80, Height: 24}

// Size limits applied to client reports
const (
	MinWidth  = 10
	MinHeight = 4
	MaxWidth  = 512
	MaxHeight = 256
)

// Clamp bounds s to the supported range
func (s Size) Clamp() Size {
	s.Width = min(max(s.Width, MinWidth), MaxWidth)
	s.Height = min(max(s.Height, MinHeight), MaxHeight)
	return s
}
