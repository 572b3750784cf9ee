package session

import (
	"fmt"

	"github.com/lixenwraith/textray/terminal"
	"github.com/lixenwraith/textray/terminal/tui"
)

// hudTallHeight is the terminal height from which the status area uses two rows
const hudTallHeight = 12

var (
	hudLabel = tui.Style{Fg: terminal.RGB{R: 160, G: 160, B: 176}}
	hudValue = tui.Style{Fg: terminal.RGB{R: 255, G: 215, B: 95}, Attr: terminal.AttrBold}
	hudInfo  = tui.Style{Fg: terminal.RGB{R: 135, G: 215, B: 255}}
)

func hudRows(height int) int {
	if height >= hudTallHeight {
		return 2
	}
	return 1
}

// drawHUD fills the status rows below the view
func (s *Session) drawHUD(r tui.Region) {
	opts := tui.DefaultBarOpts()
	pos := fmt.Sprintf("%.1f,%.1f", s.pose.Pos.X, s.pose.Pos.Y)
	fov := fmt.Sprintf("%.0f°", s.fovDeg)

	quit := tui.BarSection{Label: "Quit: ", Value: "Q", LabelStyle: hudLabel, ValueStyle: hudValue, Priority: 9}
	shutdown := tui.BarSection{Label: "Shutdown: ", Value: "P", LabelStyle: hudLabel, ValueStyle: hudValue, Priority: 1}
	posSection := tui.BarSection{Label: "pos ", Value: pos, LabelStyle: hudLabel, ValueStyle: hudInfo, Priority: 3}
	fovSection := tui.BarSection{Label: "fov ", Value: fov, LabelStyle: hudLabel, ValueStyle: hudInfo, Priority: 4}

	if r.H >= 2 {
		r.StatusBar(0, []tui.BarSection{
			{Label: "Movement: ", Value: "asdw", LabelStyle: hudLabel, ValueStyle: hudValue, Priority: 8},
			{Label: "Rotation: ", Value: "qe", LabelStyle: hudLabel, ValueStyle: hudValue, Priority: 7},
		}, []tui.BarSection{posSection, quit}, opts)

		right := []tui.BarSection{fovSection}
		if s.opts.AllowShutdown {
			right = append(right, shutdown)
		}
		r.StatusBar(1, []tui.BarSection{
			{Label: "Zoom: ", Value: "zx", LabelStyle: hudLabel, ValueStyle: hudValue, Priority: 6},
			{Label: "Reset zoom: ", Value: "c", LabelStyle: hudLabel, ValueStyle: hudValue, Priority: 5},
		}, right, opts)
		return
	}

	right := []tui.BarSection{posSection, fovSection, quit}
	if s.opts.AllowShutdown {
		right = append(right, shutdown)
	}
	r.StatusBar(0, []tui.BarSection{
		{Label: "Move ", Value: "asdw", LabelStyle: hudLabel, ValueStyle: hudValue, Priority: 8},
		{Label: "Turn ", Value: "qe", LabelStyle: hudLabel, ValueStyle: hudValue, Priority: 7},
		{Label: "Zoom ", Value: "zx c", LabelStyle: hudLabel, ValueStyle: hudValue, Priority: 2},
	}, right, opts)
}
