package session

import (
	"fmt"
	"math"
	"time"

	"github.com/lixenwraith/textray/input"
	"github.com/lixenwraith/textray/status"
	"github.com/lixenwraith/textray/telnet"
	"github.com/lixenwraith/textray/terminal"
	"github.com/lixenwraith/textray/worldmap"
)

// FOV limits in degrees
const (
	MinFOV = 5.0
	MaxFOV = 175.0
)

// MaxQueuedMoves caps pose intents waiting for a tick, overflow is dropped
const MaxQueuedMoves = 4

const (
	// escapeDelay is how long a lone ESC waits for the rest of a sequence
	escapeDelay = 50 * time.Millisecond
	// restoreTimeout bounds the terminal restore write during teardown
	restoreTimeout = 250 * time.Millisecond
)

// TimeoutAction decides what happens when telnet negotiation does not settle
type TimeoutAction uint8

const (
	TimeoutProceed TimeoutAction = iota // Continue with default size and color mode
	TimeoutClose                        // Drop the connection
)

// ParseTimeoutAction resolves the config spelling
func ParseTimeoutAction(s string) (TimeoutAction, error) {
	switch s {
	case "", "proceed":
		return TimeoutProceed, nil
	case "close":
		return TimeoutClose, nil
	}
	return TimeoutProceed, fmt.Errorf("unknown timeout action %q", s)
}

// Options configures one session
type Options struct {
	ID string // Log correlation only

	// Telnet enables negotiation and IAC escaping; false means the transport delivers raw terminal bytes
	Telnet bool
	Policy telnet.Policy

	// Size and TermType seed the terminal before any report arrives
	Size     terminal.Size
	TermType string

	// ColorMode applies when ForceColor is set, otherwise the terminal type decides
	ColorMode  terminal.ColorMode
	ForceColor bool

	Modes terminal.Modes
	Keys  *input.KeyTable // nil uses input.DefaultKeyTable

	// Resize delivers window changes from transports that report them out of band
	Resize <-chan terminal.Size

	TickInterval       time.Duration
	NegotiationTimeout time.Duration
	TimeoutAction      TimeoutAction
	KeepAlive          time.Duration // 0 disables NOP keepalive
	WriteTimeout       time.Duration // 0 disables write deadlines
	ReadBufferSize     int

	FOV      float64 // Degrees
	MaxRange float64 // Cells
	MoveStep float64 // Cells per move
	TurnStep float64 // Degrees per turn
	ZoomStep float64 // Degrees per zoom
	Heading  float64 // Starting heading, degrees

	// Metrics receives frame and input counters; nil keeps them private to the session
	Metrics *status.Registry

	// AllowShutdown enables the shutdown key; OnShutdown is invoked before Run returns ErrShutdown
	AllowShutdown bool
	OnShutdown    func()
}

// DefaultOptions returns a telnet session with the built-in tuning
func DefaultOptions() Options {
	return Options{
		Telnet:             true,
		Policy:             telnet.DefaultPolicy(),
		Size:               terminal.DefaultSize,
		Modes:              terminal.DefaultModes(),
		TickInterval:       50 * time.Millisecond,
		NegotiationTimeout: 2 * time.Second,
		TimeoutAction:      TimeoutProceed,
		KeepAlive:          30 * time.Second,
		WriteTimeout:       5 * time.Second,
		ReadBufferSize:     4096,
		FOV:                90,
		MaxRange:           16,
		MoveStep:           0.25,
		TurnStep:           15,
		ZoomStep:           5,
		Heading:            worldmap.DefaultHeading,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// normalize fills zero or non-finite values from DefaultOptions
func (o *Options) normalize() {
	def := DefaultOptions()
	if o.Size.Width <= 0 || o.Size.Height <= 0 {
		o.Size = def.Size
	}
	o.Size = o.Size.Clamp()
	if o.Keys == nil {
		o.Keys = input.DefaultKeyTable()
	}
	if o.Metrics == nil {
		o.Metrics = status.NewRegistry()
	}
	if o.TickInterval <= 0 {
		o.TickInterval = def.TickInterval
	}
	if o.NegotiationTimeout <= 0 {
		o.NegotiationTimeout = def.NegotiationTimeout
	}
	if o.ReadBufferSize <= 0 {
		o.ReadBufferSize = def.ReadBufferSize
	}
	if !finite(o.FOV) || o.FOV <= 0 {
		o.FOV = def.FOV
	}
	o.FOV = min(max(o.FOV, MinFOV), MaxFOV)
	if !finite(o.MaxRange) || o.MaxRange <= 0 {
		o.MaxRange = def.MaxRange
	}
	if !finite(o.MoveStep) || o.MoveStep <= 0 {
		o.MoveStep = def.MoveStep
	}
	if !finite(o.TurnStep) || o.TurnStep <= 0 {
		o.TurnStep = def.TurnStep
	}
	if !finite(o.ZoomStep) || o.ZoomStep <= 0 {
		o.ZoomStep = def.ZoomStep
	}
	if !finite(o.Heading) {
		o.Heading = def.Heading
	}
}
