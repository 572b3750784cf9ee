package network

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lixenwraith/textray/terminal"
)

const (
	defaultWebTermType = "xterm-256color"
	wsReadLimit        = 64 << 10
	wsCloseWait        = time.Second
)

func (t *Transport) listenWebSocket() error {
	cfg := t.config.WebSocket
	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return err
	}

	t.upgrader = websocket.Upgrader{
		ReadBufferSize:   t.config.ReadBufferSize,
		WriteBufferSize:  t.config.ReadBufferSize,
		HandshakeTimeout: t.config.HandshakeTime,
		CheckOrigin:      originChecker(cfg.Origins),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Path, t.serveWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "ok\n")
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(t.Stats())
	})

	t.wsListener = ln
	t.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: t.config.HandshakeTime,
	}
	t.log.Info("websocket listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("path", cfg.Path))
	return nil
}

func (t *Transport) serveHTTP() {
	defer t.loops.Done()

	err := t.httpServer.Serve(t.wsListener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
		t.log.Error("http server failed", zap.Error(err))
	}
}

// originChecker allows the listed origins, or everything when the list is empty
// Requests without an Origin header come from non-browser clients and are allowed
func originChecker(origins []string) func(*http.Request) bool {
	if len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// serveWebSocket upgrades and dispatches; cols, rows and term query parameters seed the session
func (t *Transport) serveWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		t.log.Debug("websocket upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	ws.SetReadLimit(wsReadLimit)

	q := r.URL.Query()
	info := ConnInfo{
		Kind:     KindWebSocket,
		Remote:   r.RemoteAddr,
		TermType: q.Get("term"),
	}
	if info.TermType == "" {
		info.TermType = defaultWebTermType
	}
	cols, _ := strconv.Atoi(q.Get("cols"))
	rows, _ := strconv.Atoi(q.Get("rows"))
	if cols > 0 && rows > 0 {
		info.Size = terminal.Size{Width: cols, Height: rows}
	}

	conn := newWSConn(ws)
	info.Resize = conn.resize
	t.dispatch(conn, info, nil)
}

// wsConn presents a WebSocket as a byte stream
// Binary frames carry terminal bytes both ways; text frames are resize
// controls when they parse as one and terminal input otherwise
type wsConn struct {
	ws     *websocket.Conn
	resize chan terminal.Size
	reader io.Reader
	ended  bool

	wmu sync.Mutex
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{
		ws:     ws,
		resize: make(chan terminal.Size, 1),
	}
}

// Read must be called from a single goroutine
func (c *wsConn) Read(p []byte) (int, error) {
	if c.ended {
		return 0, io.EOF
	}
	for {
		if c.reader == nil {
			mt, r, err := c.ws.NextReader()
			if err != nil {
				c.ended = true
				close(c.resize)
				if websocket.IsCloseError(err,
					websocket.CloseNormalClosure,
					websocket.CloseGoingAway,
					websocket.CloseNoStatusReceived) {
					return 0, io.EOF
				}
				return 0, err
			}
			if mt == websocket.TextMessage {
				data, err := io.ReadAll(r)
				if err != nil {
					return 0, err
				}
				if m, ok := ParseControl(data); ok {
					offerLatest(c.resize, terminal.Size{Width: m.Cols, Height: m.Rows})
					continue
				}
				r = bytes.NewReader(data)
			}
			c.reader = r
		}

		n, err := c.reader.Read(p)
		if err == io.EOF {
			c.reader = nil
			if n == 0 {
				continue
			}
			err = nil
		}
		return n, err
	}
}

// Write sends p as one binary frame
func (c *wsConn) Write(p []byte) (int, error) {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// SetWriteDeadline implements the deadline hook used by sessions
func (c *wsConn) SetWriteDeadline(t time.Time) error {
	return c.ws.SetWriteDeadline(t)
}

// Close sends a normal close frame and drops the connection
func (c *wsConn) Close() error {
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(wsCloseWait))
	return c.ws.Close()
}
