package tui

import "github.com/mattn/go-runewidth"

// Text renders text at position, truncates at region edge, returns the column after the last glyph
func (r Region) Text(x, y int, s string, style Style) int {
	if y < 0 || y >= r.H {
		return x
	}
	col := x
	for _, ch := range s {
		w := runewidth.RuneWidth(ch)
		if w == 0 {
			continue
		}
		if col+w > r.W {
			break
		}
		if col >= 0 {
			r.Set(col, y, style.Cell(ch))
		}
		col += w
	}
	return col
}

// TextRight renders text right-aligned on row
func (r Region) TextRight(y int, s string, style Style) {
	r.Text(r.W-RuneLen(s), y, s, style)
}

// TextCenter renders text centered on row
func (r Region) TextCenter(y int, s string, style Style) {
	r.Text((r.W-RuneLen(s))/2, y, s, style)
}
