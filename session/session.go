// Package session runs one connected viewer: negotiation, input, raycasting and frame output
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/lixenwraith/textray/input"
	"github.com/lixenwraith/textray/raycast"
	"github.com/lixenwraith/textray/status"
	"github.com/lixenwraith/textray/telnet"
	"github.com/lixenwraith/textray/terminal"
	"github.com/lixenwraith/textray/terminal/tui"
	"github.com/lixenwraith/textray/vmath"
	"github.com/lixenwraith/textray/worldmap"
)

// Conn is the byte stream a session talks over
// Implementations that also provide SetWriteDeadline get bounded writes
type Conn interface {
	io.ReadWriteCloser
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Session owns one connection for its whole life; Run must be called once
type Session struct {
	conn  Conn
	world *worldmap.Map
	opts  Options
	log   *zap.Logger
	life  lifecycle

	engine  *telnet.Engine // nil in raw mode
	decoder *terminal.Decoder
	screen  *terminal.Screen
	render  *raycast.Renderer

	pose   raycast.Pose
	fovDeg float64
	queue  []input.Intent
	cols   []raycast.Column
	dirty  bool

	termType  string
	lastInput time.Time
	frameBuf  []byte

	entered  bool // Enter sequence sent, restore on teardown
	peerGone bool // Reader saw EOF or error, skip the restore write

	done    chan struct{}
	readErr error

	metrics sessionMetrics
}

// sessionMetrics caches registry pointers so the tick path never takes a lock
type sessionMetrics struct {
	frames       *atomic.Int64
	frameBytes   *atomic.Int64
	idleTicks    *atomic.Int64
	resizes      *atomic.Int64
	movesDropped *atomic.Int64
	negTimeouts  *atomic.Int64
	frameSize    *status.AtomicFloat
}

func newSessionMetrics(r *status.Registry) sessionMetrics {
	return sessionMetrics{
		frames:       r.Counter(status.Frames),
		frameBytes:   r.Counter(status.FrameBytes),
		idleTicks:    r.Counter(status.IdleTicks),
		resizes:      r.Counter(status.Resizes),
		movesDropped: r.Counter(status.MovesDropped),
		negTimeouts:  r.Counter(status.NegotiationTimeouts),
		frameSize:    r.Gauge(status.FrameSizeAvg),
	}
}

// frameSizeAlpha weights new samples in the smoothed frame size
const frameSizeAlpha = 0.05

// New prepares a session; nothing is written until Run
func New(conn Conn, world *worldmap.Map, opts Options, log *zap.Logger) *Session {
	opts.normalize()
	if log == nil {
		log = zap.NewNop()
	}
	if opts.ID != "" {
		log = log.With(zap.String("session", opts.ID))
	}

	s := &Session{
		conn:     conn,
		world:    world,
		opts:     opts,
		log:      log,
		decoder:  terminal.NewDecoder(),
		render:   raycast.NewRenderer(opts.MaxRange),
		pose:     raycast.NewPose(world.Start(), opts.Heading),
		fovDeg:   opts.FOV,
		queue:    make([]input.Intent, 0, MaxQueuedMoves),
		dirty:    true,
		termType: opts.TermType,
		done:     make(chan struct{}),
		metrics:  newSessionMetrics(opts.Metrics),
	}
	if opts.Telnet {
		s.engine = telnet.NewEngine(opts.Policy)
	}

	mode := opts.ColorMode
	if !opts.ForceColor {
		mode = terminal.LookupCapabilities(opts.TermType).ColorMode()
	}
	s.screen = terminal.NewScreen(opts.Size.Width, opts.Size.Height, mode)
	return s
}

// State returns the lifecycle phase, only meaningful from the Run goroutine or after Run returns
func (s *Session) State() State { return s.life.state }

// Size returns the current terminal size
func (s *Session) Size() terminal.Size { return s.screen.Size() }

// TermType returns the reported or supplied terminal type
func (s *Session) TermType() string { return s.termType }

// Pose returns the current viewpoint
func (s *Session) Pose() raycast.Pose { return s.pose }

// FOV returns the current field of view in degrees
func (s *Session) FOV() float64 { return s.fovDeg }

// Run drives the session until quit, shutdown, transport failure or ctx cancellation
// The returned error is the cause, joined with any teardown failure; see IsClean
func (s *Session) Run(ctx context.Context) (err error) {
	data := make(chan []byte, 16)
	go s.readLoop(data)

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("session panic", zap.Any("panic", r), zap.Stack("stack"))
			err = fmt.Errorf("session panic: %v", r)
		}
		err = multierr.Append(err, s.teardown())
	}()

	if err := s.negotiate(ctx, data); err != nil {
		return err
	}
	return s.loop(ctx, data)
}

// readLoop forwards conn reads until the conn fails or the session is done
func (s *Session) readLoop(out chan<- []byte) {
	defer close(out)
	buf := make([]byte, s.opts.ReadBufferSize)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			p := append([]byte(nil), buf[:n]...)
			select {
			case out <- p:
			case <-s.done:
				return
			}
		}
		if err != nil {
			// Visible to the consumer after close(out)
			s.readErr = err
			return
		}
	}
}

// transportErr reports why the reader stopped
func (s *Session) transportErr() error {
	s.peerGone = true
	if s.readErr == nil {
		return io.EOF
	}
	return s.readErr
}

// negotiate runs the NEGOTIATING phase in telnet mode; raw sessions skip it
func (s *Session) negotiate(ctx context.Context, data <-chan []byte) error {
	if s.engine == nil {
		return nil
	}
	if err := s.life.to(StateNegotiating); err != nil {
		return err
	}
	s.log.Debug("negotiation started")
	if err := s.write(s.engine.Start()); err != nil {
		return err
	}

	timer := time.NewTimer(s.opts.NegotiationTimeout)
	defer timer.Stop()

	for !s.negotiated() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p, ok := <-data:
			if !ok {
				return s.transportErr()
			}
			if err := s.receive(p); err != nil {
				return err
			}
		case <-timer.C:
			s.metrics.negTimeouts.Add(1)
			if s.opts.TimeoutAction == TimeoutClose {
				return ErrNegotiationTimeout
			}
			s.log.Debug("negotiation timed out, proceeding",
				zap.Int("width", s.screen.Size().Width),
				zap.Int("height", s.screen.Size().Height))
			return nil
		}
	}

	s.log.Debug("negotiation settled",
		zap.Int("width", s.screen.Size().Width),
		zap.Int("height", s.screen.Size().Height),
		zap.String("term", s.termType))
	return nil
}

// negotiated reports whether window size and echo no longer await a reply
func (s *Session) negotiated() bool {
	return s.engine.Settled(
		telnet.Request{Option: telnet.OptNAWS, Side: telnet.SideHim},
		telnet.Request{Option: telnet.OptEcho, Side: telnet.SideUs},
	)
}

// loop is the RUNNING phase
func (s *Session) loop(ctx context.Context, data <-chan []byte) error {
	if err := s.life.to(StateRunning); err != nil {
		return err
	}
	s.log.Debug("session running", zap.String("color", s.screen.ColorMode().String()))

	if err := s.writeFrame(s.opts.Modes.Enter(), s.opts.WriteTimeout); err != nil {
		return err
	}
	s.entered = true
	s.screen.Invalidate()

	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	var keepalive <-chan time.Time
	if s.engine != nil && s.opts.KeepAlive > 0 {
		t := time.NewTicker(s.opts.KeepAlive)
		defer t.Stop()
		keepalive = t.C
	}

	// First frame goes out without waiting a tick
	if err := s.tick(); err != nil {
		return err
	}

	resize := s.opts.Resize
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case p, ok := <-data:
			if !ok {
				return s.transportErr()
			}
			if err := s.receive(p); err != nil {
				return err
			}

		case size, ok := <-resize:
			if !ok {
				resize = nil
				continue
			}
			s.resize(size.Width, size.Height)

		case <-ticker.C:
			if err := s.tick(); err != nil {
				return err
			}

		case <-keepalive:
			if err := s.write(telnet.NOPCommand()); err != nil {
				return err
			}
		}
	}
}

// receive runs inbound bytes through the telnet engine and key decoder
func (s *Session) receive(p []byte) error {
	s.lastInput = time.Now()

	in := p
	if s.engine != nil {
		res := s.engine.Receive(p)
		if len(res.Reply) > 0 {
			if err := s.write(res.Reply); err != nil {
				return err
			}
		}
		for _, ev := range res.Events {
			s.handleTelnet(ev)
		}
		in = res.Input
	}

	for _, ev := range s.decoder.Feed(in) {
		if err := s.handleKey(ev); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) handleTelnet(ev telnet.Event) {
	switch ev.Kind {
	case telnet.EventWindowSize:
		s.resize(ev.Width, ev.Height)
	case telnet.EventTerminalType:
		s.setTermType(ev.TermType)
	case telnet.EventOption:
		s.log.Debug("option settled",
			zap.Stringer("option", ev.Option),
			zap.Stringer("side", ev.Side),
			zap.Bool("enabled", ev.Enabled))
	case telnet.EventViolation:
		s.log.Debug("protocol violation", zap.String("reason", ev.Reason))
	}
}

// handleKey applies view and system intents now and queues pose intents for the tick
func (s *Session) handleKey(ev terminal.Event) error {
	intent := s.opts.Keys.Lookup(ev)
	switch {
	case intent == input.IntentNone:
		return nil
	case intent.IsPose():
		if len(s.queue) >= MaxQueuedMoves {
			s.metrics.movesDropped.Add(1)
			return nil
		}
		s.queue = append(s.queue, intent)
		return nil
	}

	switch intent {
	case input.IntentZoomIn:
		s.setFOV(s.fovDeg - s.opts.ZoomStep)
	case input.IntentZoomOut:
		s.setFOV(s.fovDeg + s.opts.ZoomStep)
	case input.IntentZoomReset:
		s.setFOV(s.opts.FOV)
	case input.IntentRedraw:
		s.screen.Invalidate()
		s.dirty = true
	case input.IntentQuit:
		return ErrQuit
	case input.IntentShutdown:
		if !s.opts.AllowShutdown {
			return nil
		}
		if s.opts.OnShutdown != nil {
			s.opts.OnShutdown()
		}
		return ErrShutdown
	}
	return nil
}

func (s *Session) setFOV(deg float64) {
	deg = min(max(deg, MinFOV), MaxFOV)
	if deg != s.fovDeg {
		s.fovDeg = deg
		s.dirty = true
	}
}

// applyPose performs one queued movement or rotation
func (s *Session) applyPose(intent input.Intent) {
	turn := vmath.Radians(s.opts.TurnStep)
	h := s.pose.Heading
	switch intent {
	case input.IntentForward:
		s.pose.Move(s.world, h, s.opts.MoveStep)
	case input.IntentBack:
		s.pose.Move(s.world, h+math.Pi, s.opts.MoveStep)
	case input.IntentStrafeLeft:
		s.pose.Move(s.world, h-math.Pi/2, s.opts.MoveStep)
	case input.IntentStrafeRight:
		s.pose.Move(s.world, h+math.Pi/2, s.opts.MoveStep)
	case input.IntentTurnLeft:
		s.pose.Turn(-turn)
	case input.IntentTurnRight:
		s.pose.Turn(turn)
	}
	s.dirty = true
}

func (s *Session) resize(width, height int) {
	size := terminal.Size{Width: width, Height: height}.Clamp()
	if s.screen.Resize(size.Width, size.Height) {
		s.dirty = true
		s.metrics.resizes.Add(1)
		s.log.Debug("resized", zap.Int("width", size.Width), zap.Int("height", size.Height))
	}
}

func (s *Session) setTermType(tt string) {
	s.termType = tt
	caps := terminal.LookupCapabilities(tt)
	s.log.Debug("terminal type", zap.String("term", caps.Name), zap.Bool("known", caps.Known), zap.Int("colors", caps.Colors))
	if s.opts.ForceColor {
		return
	}
	s.screen.SetColorMode(caps.ColorMode())
	s.dirty = true
}

// tick advances one frame: flush a stale escape, apply one move, redraw if needed, transmit the diff
func (s *Session) tick() error {
	if s.decoder.Pending() && time.Since(s.lastInput) >= escapeDelay {
		for _, ev := range s.decoder.Flush() {
			if err := s.handleKey(ev); err != nil {
				return err
			}
		}
	}

	if len(s.queue) > 0 {
		intent := s.queue[0]
		copy(s.queue, s.queue[1:])
		s.queue = s.queue[:len(s.queue)-1]
		s.applyPose(intent)
	}

	if s.dirty {
		s.draw()
		s.dirty = false
	}

	out := s.screen.Render()
	if len(out) == 0 {
		s.metrics.idleTicks.Add(1)
		return nil
	}
	s.metrics.frames.Add(1)
	s.metrics.frameBytes.Add(int64(len(out)))
	s.metrics.frameSize.Smooth(float64(len(out)), frameSizeAlpha)
	return s.writeFrame(out, s.opts.WriteTimeout)
}

// draw composes the view and status rows into the back buffer
func (s *Session) draw() {
	root := tui.NewRegion(s.screen.Back())
	rows := hudRows(root.H)
	view := root.Sub(0, 0, root.W, root.H-rows)

	s.cols = raycast.Cast(s.cols, s.world, s.pose, vmath.Radians(s.fovDeg), view.W, s.opts.MaxRange)
	s.render.Draw(view, s.cols)
	s.drawHUD(root.Sub(0, root.H-rows, root.W, rows))
}

// write sends protocol bytes unescaped
func (s *Session) write(p []byte) error {
	return s.writeWithin(p, s.opts.WriteTimeout)
}

// writeFrame sends terminal output, doubling IAC in telnet mode
func (s *Session) writeFrame(p []byte, timeout time.Duration) error {
	if s.engine != nil {
		s.frameBuf = telnet.Escape(s.frameBuf[:0], p)
		p = s.frameBuf
	}
	return s.writeWithin(p, timeout)
}

func (s *Session) writeWithin(p []byte, timeout time.Duration) error {
	if d, ok := s.conn.(writeDeadliner); ok && timeout > 0 {
		if err := d.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}
	if _, err := s.conn.Write(p); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// teardown restores the client terminal when possible and closes the transport
func (s *Session) teardown() error {
	if err := s.life.to(StateClosing); err != nil {
		s.log.Warn("teardown", zap.Error(err))
	}

	var err error
	if s.entered && !s.peerGone {
		err = multierr.Append(err, s.writeFrame(s.opts.Modes.Exit(), restoreTimeout))
	}
	close(s.done)
	if cerr := s.conn.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
		err = multierr.Append(err, fmt.Errorf("close: %w", cerr))
	}

	if terr := s.life.to(StateClosed); terr != nil {
		s.log.Warn("teardown", zap.Error(terr))
	}
	return err
}
