package tui

import "github.com/lixenwraith/textray/terminal"

// Style bundles foreground, background, and attributes for text rendering
type Style struct {
	Fg   terminal.RGB
	Bg   terminal.RGB
	Attr terminal.Attr
}

// Cell builds a cell in this style
func (s Style) Cell(ch rune) terminal.Cell {
	return terminal.Cell{Rune: ch, Fg: s.Fg, Bg: s.Bg, Attrs: s.Attr}
}
