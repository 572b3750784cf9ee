package tui

import "github.com/lixenwraith/textray/terminal"

// BarSection represents one segment of a status bar
type BarSection struct {
	Label      string
	Value      string
	LabelStyle Style
	ValueStyle Style
	Priority   int // Higher = survives truncation
}

func (s BarSection) width() int {
	return RuneLen(s.Label) + RuneLen(s.Value)
}

// BarOpts configures status bar rendering
type BarOpts struct {
	Separator string // Between sections, default " │ "
	SepStyle  Style
	Bg        terminal.RGB
	Padding   int // Left/right padding, default 1
}

// DefaultBarOpts returns sensible defaults
func DefaultBarOpts() BarOpts {
	return BarOpts{
		Separator: " │ ",
		SepStyle:  Style{Fg: terminal.RGB{R: 80, G: 80, B: 100}},
		Bg:        terminal.RGB{R: 24, G: 24, B: 32},
		Padding:   1,
	}
}

// StatusBar renders a full-width bar on row y: left sections packed from the left edge,
// right sections packed against the right edge
// When both groups do not fit, the lowest priority sections are dropped first
func (r Region) StatusBar(y int, left, right []BarSection, opts BarOpts) {
	if y < 0 || y >= r.H {
		return
	}
	if opts.Separator == "" {
		opts.Separator = " │ "
	}
	if opts.Padding == 0 {
		opts.Padding = 1
	}

	bg := terminal.Cell{Rune: ' ', Bg: opts.Bg}
	for x := 0; x < r.W; x++ {
		r.Set(x, y, bg)
	}

	sepLen := RuneLen(opts.Separator)
	// One separator-width gap keeps the groups apart
	availW := r.W - opts.Padding*2 - sepLen
	left, right = truncateSections(left, right, sepLen, availW)

	limit := r.W - opts.Padding
	x := opts.Padding
	x = r.renderBarGroup(x, y, left, opts, limit)

	rightW := groupWidth(right, sepLen)
	rx := max(r.W-opts.Padding-rightW, x+sepLen)
	r.renderBarGroup(rx, y, right, opts, limit)
}

func (r Region) renderBarGroup(x, y int, sections []BarSection, opts BarOpts, limit int) int {
	clip := r.Sub(0, 0, limit, r.H)
	for i, sec := range sections {
		ls, vs := sec.LabelStyle, sec.ValueStyle
		ls.Bg, vs.Bg = opts.Bg, opts.Bg
		x = clip.Text(x, y, sec.Label, ls)
		x = clip.Text(x, y, sec.Value, vs)
		if i < len(sections)-1 {
			sep := opts.SepStyle
			sep.Bg = opts.Bg
			x = clip.Text(x, y, opts.Separator, sep)
		}
	}
	return x
}

func groupWidth(sections []BarSection, sepLen int) int {
	total := 0
	for i, sec := range sections {
		total += sec.width()
		if i < len(sections)-1 {
			total += sepLen
		}
	}
	return total
}

// truncateSections removes lowest priority sections across both groups until they fit
// Ties drop the right group first, then later sections
func truncateSections(left, right []BarSection, sepLen, availW int) ([]BarSection, []BarSection) {
	// Copy to avoid modifying caller slices
	l := append([]BarSection(nil), left...)
	rt := append([]BarSection(nil), right...)

	for groupWidth(l, sepLen)+groupWidth(rt, sepLen) > availW && len(l)+len(rt) > 1 {
		inRight, idx := true, -1
		minPrio := 0
		for i := len(rt) - 1; i >= 0; i-- {
			if idx < 0 || rt[i].Priority < minPrio {
				idx, minPrio = i, rt[i].Priority
			}
		}
		for i := len(l) - 1; i >= 0; i-- {
			if idx < 0 || l[i].Priority < minPrio {
				inRight, idx, minPrio = false, i, l[i].Priority
			}
		}
		if inRight {
			rt = append(rt[:idx], rt[idx+1:]...)
		} else {
			l = append(l[:idx], l[idx+1:]...)
		}
	}
	return l, rt
}
