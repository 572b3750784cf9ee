package terminal

import (
	"bytes"

	"github.com/mattn/go-runewidth"
)

// Screen owns a front/back grid pair and diffs them into ANSI output
// Front always mirrors what the client was last sent; back is the frame being composed
type Screen struct {
	front     *Grid
	back      *Grid
	colorMode ColorMode
	buf       bytes.Buffer

	// Believed cursor, never queried from the terminal
	cursorX     int
	cursorY     int
	cursorValid bool

	// Believed active SGR state for coalescing
	lastFg    RGB
	lastBg    RGB
	lastAttr  Attr
	lastValid bool

	// Front is stale: clear the screen before the next diff
	repaint bool
}

// NewScreen creates a screen whose first Render is a full repaint
func NewScreen(width, height int, colorMode ColorMode) *Screen {
	s := &Screen{
		front:     NewGrid(width, height),
		back:      NewGrid(width, height),
		colorMode: colorMode,
	}
	s.Invalidate()
	return s
}

// Back returns the grid to compose the next frame into
func (s *Screen) Back() *Grid { return s.back }

// Front returns the last transmitted frame, read-only for callers
func (s *Screen) Front() *Grid { return s.front }

// Size returns current dimensions
func (s *Screen) Size() Size { return s.back.Size() }

// ColorMode returns the active output color mode
func (s *Screen) ColorMode() ColorMode { return s.colorMode }

// SetColorMode switches color encoding, repainting if it changed
func (s *Screen) SetColorMode(m ColorMode) {
	if m == s.colorMode {
		return
	}
	s.colorMode = m
	s.Invalidate()
}

// Resize changes both grids; the stale front is discarded and a full repaint forced
// Returns false if the size is unchanged
func (s *Screen) Resize(width, height int) bool {
	if width == s.back.Width() && height == s.back.Height() {
		return false
	}
	s.back.Resize(width, height)
	s.front.Resize(width, height)
	s.Invalidate()
	return true
}

// Invalidate forces the next Render to clear and repaint every cell
func (s *Screen) Invalidate() {
	s.front.Fill(invalidCell)
	s.repaint = true
	s.lastValid = false
	s.cursorValid = false
}

// Render diffs back against front and returns the bytes to transmit
// The returned slice is valid until the next Render call
// Afterwards front equals back, so an immediate second Render returns nothing
func (s *Screen) Render() []byte {
	s.buf.Reset()
	w := &s.buf

	if s.back.width != s.front.width || s.back.height != s.front.height {
		s.front.Resize(s.back.width, s.back.height)
		s.Invalidate()
	}

	if s.repaint {
		w.Write(csiSGR0)
		w.Write(csiClear)
		s.repaint = false
		s.lastValid = false
	}

	// Local echo on the client side can move the real cursor between frames
	s.cursorValid = false

	width, height := s.back.width, s.back.height
	cells := s.back.cells
	front := s.front.cells

	for y := 0; y < height; y++ {
		rowStart := y * width
		x := 0

		for x < width {
			idx := rowStart + x
			if cells[idx] == front[idx] {
				x++
				continue
			}

			// Position cursor once for this dirty run
			if !s.cursorValid || x != s.cursorX || y != s.cursorY {
				writeCursorPos(w, x, y)
				s.cursorX = x
				s.cursorY = y
				s.cursorValid = true
			}

			// Write all contiguous dirty cells, emitting style only when changed
			for x < width {
				cidx := rowStart + x
				c := cells[cidx]
				if c == front[cidx] {
					break
				}

				s.writeStyle(w, c.Fg, c.Bg, c.Attrs)
				writeGlyph(w, c.Rune)

				s.cursorX++
				x++
			}
		}
	}

	s.swap()
	return s.buf.Bytes()
}

// swap exchanges front and back, then refreshes back so callers may draw incrementally
func (s *Screen) swap() {
	s.front, s.back = s.back, s.front
	s.back.CopyFrom(s.front)
}

// narrow measures glyphs independent of the server locale; ambiguous-width blocks count as one column
var narrow = &runewidth.Condition{EastAsianWidth: false}

// writeGlyph emits a single-column glyph
// Zero-width, wide and control runes would desync the believed cursor, so they are substituted
func writeGlyph(w byteWriter, r rune) {
	switch {
	case r == 0:
		r = ' '
	case r < 0x20 || r == 0x7f:
		r = '?'
	case r >= 0x80 && narrow.RuneWidth(r) != 1:
		r = '?'
	}
	if r < 0x80 {
		w.WriteByte(byte(r))
	} else {
		w.WriteRune(r)
	}
}

// writeStyle emits a single combined SGR sequence when style changes
func (s *Screen) writeStyle(w byteWriter, fg, bg RGB, attr Attr) {
	fgChanged := !s.lastValid || fg != s.lastFg
	bgChanged := !s.lastValid || bg != s.lastBg
	attrChanged := !s.lastValid || attr&AttrStyle != s.lastAttr&AttrStyle

	if !fgChanged && !bgChanged && !attrChanged {
		return
	}

	w.Write(csi)
	if attrChanged {
		// Attribute removal requires a reset, colors are re-sent after it
		w.WriteByte('0')
		if attr&AttrBold != 0 {
			w.Write([]byte(";1"))
		}
		if attr&AttrDim != 0 {
			w.Write([]byte(";2"))
		}
		if attr&AttrUnderline != 0 {
			w.Write([]byte(";4"))
		}
		if attr&AttrReverse != 0 {
			w.Write([]byte(";7"))
		}
		w.WriteByte(';')
		s.writeFg(w, fg)
		w.WriteByte(';')
		s.writeBg(w, bg)
	} else {
		if fgChanged {
			s.writeFg(w, fg)
		}
		if fgChanged && bgChanged {
			w.WriteByte(';')
		}
		if bgChanged {
			s.writeBg(w, bg)
		}
	}
	w.WriteByte('m')

	s.lastFg = fg
	s.lastBg = bg
	s.lastAttr = attr
	s.lastValid = true
}

// writeFg writes fg color parameters (no CSI prefix, no 'm' suffix)
func (s *Screen) writeFg(w byteWriter, fg RGB) {
	switch s.colorMode {
	case ColorModeTrueColor:
		w.Write(sgrFgRGB)
		writeRGB(w, fg)
	case ColorMode16:
		idx := int(RGBTo16(fg))
		if idx < 8 {
			writeInt(w, 30+idx)
		} else {
			writeInt(w, 90+idx-8)
		}
	default:
		w.Write(sgrFg256)
		writeInt(w, int(RGBTo256(fg)))
	}
}

// writeBg writes bg color parameters (no CSI prefix, no 'm' suffix)
func (s *Screen) writeBg(w byteWriter, bg RGB) {
	switch s.colorMode {
	case ColorModeTrueColor:
		w.Write(sgrBgRGB)
		writeRGB(w, bg)
	case ColorMode16:
		idx := int(RGBTo16(bg))
		if idx < 8 {
			writeInt(w, 40+idx)
		} else {
			writeInt(w, 100+idx-8)
		}
	default:
		w.Write(sgrBg256)
		writeInt(w, int(RGBTo256(bg)))
	}
}

func writeRGB(w byteWriter, c RGB) {
	writeInt(w, int(c.R))
	w.WriteByte(';')
	writeInt(w, int(c.G))
	w.WriteByte(';')
	writeInt(w, int(c.B))
}

// Modes selects which terminal modes a session switches on entry and restores on exit
type Modes struct {
	AltScreen  bool // Draw on the alternate screen buffer
	HideCursor bool // Hide the text cursor while rendering
	NoWrap     bool // Disable auto-wrap so the bottom-right cell never scrolls
}

// DefaultModes enables every mode
func DefaultModes() Modes {
	return Modes{AltScreen: true, HideCursor: true, NoWrap: true}
}

// Enter returns the session start sequence, always ending with a reset and clear
func (m Modes) Enter() []byte {
	var b bytes.Buffer
	if m.AltScreen {
		b.Write(csiAltScreenEnter)
	}
	if m.HideCursor {
		b.Write(csiCursorHide)
	}
	if m.NoWrap {
		b.Write(csiAutoWrapOff)
	}
	b.Write(csiSGR0)
	b.Write(csiClear)
	return b.Bytes()
}

// Exit returns the sequence restoring the client terminal
// Auto-wrap is re-enabled after leaving the alternate screen so the main buffer wraps again
func (m Modes) Exit() []byte {
	var b bytes.Buffer
	if m.HideCursor {
		b.Write(csiCursorShow)
	}
	if m.AltScreen {
		b.Write(csiAltScreenExit)
	}
	if m.NoWrap {
		b.Write(csiAutoWrapOn)
	}
	b.Write(csiSGR0)
	if !m.AltScreen {
		b.Write(csiClear)
	}
	return b.Bytes()
}
