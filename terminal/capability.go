package terminal

import (
	"strings"

	"github.com/gdamore/tcell/v2/terminfo"
	// Registers the extended terminfo database (xterm, screen, tmux, rxvt, linux, vt*, ...)
	_ "github.com/gdamore/tcell/v2/terminfo/extended"
)

// Capabilities describes what a client terminal type supports
type Capabilities struct {
	Name   string // Normalized terminal type
	Known  bool   // Found in the terminfo database
	Colors int    // Palette size, 1<<24 for direct color
}

// LookupCapabilities resolves a TERMINAL-TYPE / $TERM string against terminfo
// Unknown types report Known=false and are treated as 256-color capable
func LookupCapabilities(termType string) Capabilities {
	name := strings.ToLower(strings.TrimSpace(termType))
	caps := Capabilities{Name: name, Colors: 256}
	if name == "" {
		return caps
	}

	ti, err := terminfo.LookupTerminfo(name)
	if err == nil && ti != nil {
		caps.Known = true
		caps.Colors = ti.Colors
	}

	// Direct-color variants are frequently absent or under-reported in terminfo
	if strings.Contains(name, "truecolor") ||
		strings.Contains(name, "24bit") ||
		strings.Contains(name, "direct") {
		caps.Colors = 1 << 24
	}
	return caps
}

// ColorMode maps the palette size to an output mode
func (c Capabilities) ColorMode() ColorMode {
	switch {
	case c.Colors >= 1<<24:
		return ColorModeTrueColor
	case c.Colors >= 256:
		return ColorMode256
	default:
		return ColorMode16
	}
}
