package network

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"github.com/lixenwraith/textray/terminal"
)

// ConnInfo describes a connection handed to a Handler
type ConnInfo struct {
	ID       string
	Kind     Kind
	Remote   string
	User     string        // SSH user name
	TermType string        // Supplied by pty-req or query string, empty for telnet
	Size     terminal.Size // Zero when the transport does not know it
	Resize   <-chan terminal.Size
}

// Handler serves one connection until it ends; ctx is cancelled on Stop
type Handler interface {
	ServeConn(ctx context.Context, conn *Peer, info ConnInfo)
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, conn *Peer, info ConnInfo)

// ServeConn implements Handler
func (f HandlerFunc) ServeConn(ctx context.Context, conn *Peer, info ConnInfo) {
	f(ctx, conn, info)
}

// Transport owns the listeners and every session they produce
type Transport struct {
	config   *Config
	handler  Handler
	log      *zap.Logger
	registry *Registry
	stats    Stats

	ctx    context.Context
	cancel context.CancelFunc

	listener    net.Listener
	sshListener net.Listener
	sshConfig   *ssh.ServerConfig
	wsListener  net.Listener
	httpServer  *http.Server
	upgrader    websocket.Upgrader

	running atomic.Bool

	mu       sync.Mutex
	stopping bool
	raw      map[net.Conn]struct{} // SSH connections, closed on Stop

	loops    sync.WaitGroup // Accept loops and HTTP serve
	conns    sync.WaitGroup // Per-connection SSH goroutines
	sessions sync.WaitGroup // Handler goroutines
}

// NewTransport creates a transport with the given configuration
func NewTransport(cfg *Config, handler Handler, log *zap.Logger) *Transport {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Transport{
		config:   cfg,
		handler:  handler,
		log:      log,
		registry: NewRegistry(cfg.MaxSessions),
		ctx:      ctx,
		cancel:   cancel,
		raw:      make(map[net.Conn]struct{}),
	}
}

// Start binds every enabled listener; on failure nothing is left listening
// A transport cannot be restarted after Stop
func (t *Transport) Start() error {
	if !t.running.CompareAndSwap(false, true) {
		return nil // Already running
	}

	err := t.start()
	if err != nil {
		t.closeListeners()
		t.listener, t.sshListener, t.wsListener, t.httpServer = nil, nil, nil, nil
		t.running.Store(false)
	}
	return err
}

func (t *Transport) start() error {
	if t.config.Address != "" {
		ln, err := net.Listen("tcp", t.config.Address)
		if err != nil {
			return err
		}
		t.listener = ln
		t.log.Info("telnet listening", zap.String("addr", ln.Addr().String()))
	}
	if t.config.SSH.Enabled {
		if err := t.listenSSH(); err != nil {
			return err
		}
	}
	if t.config.WebSocket.Enabled {
		if err := t.listenWebSocket(); err != nil {
			return err
		}
	}

	// Loops start only once every bind succeeded
	if t.listener != nil {
		t.loops.Add(1)
		go t.acceptLoop(t.listener, t.handleTelnet)
	}
	if t.sshListener != nil {
		t.loops.Add(1)
		go t.acceptLoop(t.sshListener, t.handleSSH)
	}
	if t.httpServer != nil {
		t.loops.Add(1)
		go t.serveHTTP()
	}
	return nil
}

// acceptLoop handles incoming connections until the listener closes
func (t *Transport) acceptLoop(ln net.Listener, handle func(net.Conn)) {
	defer t.loops.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || t.isStopping() {
				return
			}
			t.log.Warn("accept failed", zap.Error(err))
			time.Sleep(10 * time.Millisecond)
			continue
		}
		handle(conn)
	}
}

func (t *Transport) handleTelnet(conn net.Conn) {
	t.dispatch(conn, ConnInfo{
		Kind:   KindTelnet,
		Remote: conn.RemoteAddr().String(),
	}, nil)
}

// dispatch registers the connection and runs the handler on its own goroutine
// onDone runs after the handler returns or the connection is refused
func (t *Transport) dispatch(conn io.ReadWriteCloser, info ConnInfo, onDone func()) {
	info.ID = uuid.NewString()
	peer := newPeer(info.ID, info.Kind, info.Remote, conn, &t.stats)
	log := t.log.With(
		zap.String("session", info.ID),
		zap.String("remote", info.Remote),
		zap.Stringer("transport", info.Kind))

	if !t.track(&t.sessions) {
		peer.Close()
		if onDone != nil {
			onDone()
		}
		return
	}

	if err := t.registry.Add(peer); err != nil {
		t.stats.Rejected.Add(1)
		log.Info("connection rejected", zap.Error(err))
		go func() {
			defer t.sessions.Done()
			t.reject(peer)
			if onDone != nil {
				onDone()
			}
		}()
		return
	}

	t.stats.Accepted.Add(1)
	t.stats.Active.Add(1)
	log.Info("session connected",
		zap.String("term", info.TermType),
		zap.Int("width", info.Size.Width),
		zap.Int("height", info.Size.Height))

	go func() {
		defer t.sessions.Done()
		defer func() {
			t.registry.Remove(peer.ID)
			peer.Close()
			t.stats.Active.Add(-1)
			t.stats.Closed.Add(1)
			log.Info("session disconnected",
				zap.Duration("duration", time.Since(peer.Started)),
				zap.Uint64("bytes_in", peer.BytesIn.Load()),
				zap.Uint64("bytes_out", peer.BytesOut.Load()))
			if onDone != nil {
				onDone()
			}
		}()
		defer func() {
			if r := recover(); r != nil {
				log.Error("handler panic", zap.Any("panic", r), zap.Stack("stack"))
			}
		}()
		t.handler.ServeConn(t.ctx, peer, info)
	}()
}

// reject tells the client the server is full and closes
func (t *Transport) reject(p *Peer) {
	if msg := t.config.RejectMessage; msg != "" {
		p.SetWriteDeadline(time.Now().Add(time.Second))
		p.Write([]byte(msg))
	}
	p.Close()
}

// track adds to wg unless Stop has begun
func (t *Transport) track(wg *sync.WaitGroup) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopping {
		return false
	}
	wg.Add(1)
	return true
}

func (t *Transport) isStopping() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopping
}

// Stop closes the listeners, gives sessions StopGrace to restore their terminals, then force-closes the rest
func (t *Transport) Stop() error {
	if !t.running.CompareAndSwap(true, false) {
		return nil
	}

	t.mu.Lock()
	t.stopping = true
	t.mu.Unlock()

	var err error
	if t.httpServer != nil {
		// Shutdown closes the HTTP listener; hijacked WebSocket conns are left to the session drain below
		ctx, cancel := context.WithTimeout(context.Background(), t.config.StopGrace)
		err = t.httpServer.Shutdown(ctx)
		cancel()
	}
	err = multierr.Append(err, t.closeListeners())

	t.cancel()
	if !waitTimeout(&t.sessions, t.config.StopGrace) {
		t.log.Warn("sessions did not stop in time, closing", zap.Int("remaining", t.registry.Count()))
		t.registry.CloseAll()
		t.sessions.Wait()
	}

	t.mu.Lock()
	for c := range t.raw {
		c.Close()
	}
	t.mu.Unlock()
	t.conns.Wait()
	t.loops.Wait()

	t.log.Info("transport stopped", zap.Uint64("sessions", t.stats.Closed.Load()))
	return err
}

func (t *Transport) closeListeners() error {
	var err error
	for _, ln := range []net.Listener{t.listener, t.sshListener, t.wsListener} {
		if ln == nil {
			continue
		}
		if cerr := ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = multierr.Append(err, cerr)
		}
	}
	return err
}

// waitTimeout reports whether wg finished within d
func waitTimeout(wg *sync.WaitGroup, d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(d):
		return false
	}
}

// Addr returns the telnet listener address, nil when disabled or stopped
func (t *Transport) Addr() net.Addr { return listenerAddr(t.listener) }

// SSHAddr returns the SSH listener address
func (t *Transport) SSHAddr() net.Addr { return listenerAddr(t.sshListener) }

// WebSocketAddr returns the HTTP listener address
func (t *Transport) WebSocketAddr() net.Addr { return listenerAddr(t.wsListener) }

func listenerAddr(ln net.Listener) net.Addr {
	if ln == nil {
		return nil
	}
	return ln.Addr()
}

// Registry exposes live sessions
func (t *Transport) Registry() *Registry { return t.registry }

// Stats returns counters, the live session list and any shared metrics
func (t *Transport) Stats() Snapshot {
	s := t.stats.Snapshot()
	s.Sessions = t.registry.List()
	if t.config.Metrics != nil {
		m := t.config.Metrics.Snapshot()
		s.Metrics = &m
	}
	return s
}

// IsRunning returns transport state
func (t *Transport) IsRunning() bool {
	return t.running.Load()
}
