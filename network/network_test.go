package network

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/crypto/ssh"

	"github.com/lixenwraith/textray/status"
	"github.com/lixenwraith/textray/terminal"
)

func testConfig() *Config {
	return &Config{
		Address:        "127.0.0.1:0",
		MaxSessions:    4,
		WriteTimeout:   time.Second,
		StopGrace:      time.Second,
		HandshakeTime:  2 * time.Second,
		ReadBufferSize: 1024,
		RejectMessage:  "full\r\n",
	}
}

func startTransport(t *testing.T, cfg *Config, h Handler) *Transport {
	t.Helper()
	tr := NewTransport(cfg, h, nil)
	if err := tr.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { tr.Stop() })
	return tr
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func recvInfo(t *testing.T, ch <-chan ConnInfo) ConnInfo {
	t.Helper()
	select {
	case info := <-ch:
		return info
	case <-time.After(2 * time.Second):
		t.Fatal("Handler was not called")
	}
	return ConnInfo{}
}

func TestRegistryLimit(t *testing.T) {
	r := NewRegistry(2)
	var stats Stats
	for _, id := range []string{"a", "b"} {
		if err := r.Add(newPeer(id, KindTelnet, "", nopConn{}, &stats)); err != nil {
			t.Fatalf("Add %s failed: %v", id, err)
		}
	}
	if err := r.Add(newPeer("c", KindTelnet, "", nopConn{}, &stats)); err != ErrFull {
		t.Errorf("Expected ErrFull, got %v", err)
	}

	r.Remove("a")
	if err := r.Add(newPeer("b", KindTelnet, "", nopConn{}, &stats)); err == nil {
		t.Error("Expected duplicate id to be rejected")
	}
	if got := r.Count(); got != 1 {
		t.Errorf("Expected 1 peer, got %d", got)
	}
	if _, ok := r.Get("b"); !ok {
		t.Error("Expected peer b to be registered")
	}

	unlimited := NewRegistry(0)
	for i := 0; i < 100; i++ {
		if err := unlimited.Add(newPeer(fmt.Sprint(i), KindTelnet, "", nopConn{}, &stats)); err != nil {
			t.Fatalf("Unlimited registry rejected peer %d: %v", i, err)
		}
	}
}

type nopConn struct{}

func (nopConn) Read([]byte) (int, error)    { return 0, io.EOF }
func (nopConn) Write(p []byte) (int, error) { return len(p), nil }
func (nopConn) Close() error                { return nil }

func TestPeerCountsBytes(t *testing.T) {
	var stats Stats
	p := newPeer("x", KindTelnet, "", nopConn{}, &stats)
	p.Write([]byte("hello"))
	if got := p.BytesOut.Load(); got != 5 {
		t.Errorf("Expected 5 bytes out, got %d", got)
	}
	if got := stats.BytesOut.Load(); got != 5 {
		t.Errorf("Expected 5 bytes out in stats, got %d", got)
	}
	if err := p.SetWriteDeadline(time.Now()); err != nil {
		t.Errorf("Expected no-op deadline, got %v", err)
	}
	p.Close()
	if ConnState(p.State.Load()) != StateDisconnecting {
		t.Error("Expected disconnecting state after Close")
	}
}

func TestParseControl(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ok   bool
		cols int
		rows int
	}{
		{"resize", `{"type":"resize","cols":100,"rows":30}`, true, 100, 30},
		{"padded", "  {\"type\":\"resize\",\"cols\":2,\"rows\":3}\n", true, 2, 3},
		{"plain text", "hello", false, 0, 0},
		{"unknown type", `{"type":"paste","cols":1,"rows":1}`, false, 0, 0},
		{"zero size", `{"type":"resize","cols":0,"rows":30}`, false, 0, 0},
		{"bad json", `{"type":`, false, 0, 0},
		{"empty", "", false, 0, 0},
		{"oversized", `{"type":"resize","cols":1,"rows":1,"pad":"` + strings.Repeat("x", maxControlSize) + `"}`, false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := ParseControl([]byte(tt.in))
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && (m.Cols != tt.cols || m.Rows != tt.rows) {
				t.Errorf("Expected %dx%d, got %dx%d", tt.cols, tt.rows, m.Cols, m.Rows)
			}
		})
	}
}

func TestOfferLatestKeepsNewest(t *testing.T) {
	ch := make(chan terminal.Size, 1)
	offerLatest(ch, terminal.Size{Width: 10, Height: 10})
	offerLatest(ch, terminal.Size{Width: 20, Height: 20})
	if got := <-ch; got.Width != 20 {
		t.Errorf("Expected newest size, got %+v", got)
	}
}

func TestTelnetSessionsAndLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSessions = 1

	started := make(chan ConnInfo, 1)
	release := make(chan struct{})
	tr := startTransport(t, cfg, HandlerFunc(func(ctx context.Context, conn *Peer, info ConnInfo) {
		started <- info
		<-release
		conn.Write([]byte("bye"))
	}))

	c1, err := net.Dial("tcp", tr.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer c1.Close()

	info := recvInfo(t, started)
	if info.Kind != KindTelnet {
		t.Errorf("Expected telnet kind, got %v", info.Kind)
	}
	if info.ID == "" {
		t.Error("Expected a session ID")
	}
	if info.Resize != nil {
		t.Error("Expected no resize channel for telnet")
	}

	// Second client is over the limit
	c2, err := net.Dial("tcp", tr.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer c2.Close()
	c2.SetReadDeadline(time.Now().Add(2 * time.Second))
	msg, _ := io.ReadAll(c2)
	if string(msg) != "full\r\n" {
		t.Errorf("Expected reject message, got %q", msg)
	}

	close(release)
	c1.SetReadDeadline(time.Now().Add(2 * time.Second))
	out, _ := io.ReadAll(c1)
	if string(out) != "bye" {
		t.Errorf("Expected handler output, got %q", out)
	}

	waitFor(t, "session cleanup", func() bool { return tr.Stats().Active == 0 })
	s := tr.Stats()
	if s.Accepted != 1 || s.Rejected != 1 || s.Closed != 1 {
		t.Errorf("Expected 1 accepted, 1 rejected, 1 closed, got %+v", s)
	}
	if s.BytesOut < 3 {
		t.Errorf("Expected bytes out to be counted, got %d", s.BytesOut)
	}
}

func TestStopCancelsSessions(t *testing.T) {
	started := make(chan ConnInfo, 1)
	cancelled := make(chan struct{})
	tr := NewTransport(testConfig(), HandlerFunc(func(ctx context.Context, conn *Peer, info ConnInfo) {
		started <- info
		<-ctx.Done()
		close(cancelled)
	}), nil)
	if err := tr.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	c, err := net.Dial("tcp", tr.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()
	recvInfo(t, started)

	if err := tr.Stop(); err != nil {
		t.Errorf("Stop returned %v", err)
	}
	select {
	case <-cancelled:
	default:
		t.Error("Expected handler context to be cancelled before Stop returned")
	}
	if tr.IsRunning() {
		t.Error("Expected transport to be stopped")
	}
	if tr.Registry().Count() != 0 {
		t.Error("Expected registry to be empty after Stop")
	}

	if _, err := net.DialTimeout("tcp", c.RemoteAddr().String(), 200*time.Millisecond); err == nil {
		t.Error("Expected listener to be closed")
	}
}

func TestStopForceClosesStuckSessions(t *testing.T) {
	cfg := testConfig()
	cfg.StopGrace = 50 * time.Millisecond

	started := make(chan ConnInfo, 1)
	tr := NewTransport(cfg, HandlerFunc(func(ctx context.Context, conn *Peer, info ConnInfo) {
		started <- info
		// Ignores ctx; only a closed connection ends the read
		io.Copy(io.Discard, conn)
	}), nil)
	if err := tr.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	c, err := net.Dial("tcp", tr.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()
	recvInfo(t, started)

	done := make(chan struct{})
	go func() {
		tr.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not force-close the stuck session")
	}
}

func TestWebSocketSession(t *testing.T) {
	cfg := testConfig()
	cfg.Address = ""
	cfg.WebSocket = WebSocketConfig{Enabled: true, Address: "127.0.0.1:0", Path: "/ws"}
	cfg.Metrics = status.NewRegistry()
	cfg.Metrics.Counter(status.Frames).Store(7)

	started := make(chan ConnInfo, 1)
	tr := startTransport(t, cfg, HandlerFunc(func(ctx context.Context, conn *Peer, info ConnInfo) {
		started <- info
		buf := make([]byte, 64)
		for i := 0; i < 2; i++ {
			n, err := conn.Read(buf)
			if err != nil {
				return
			}
			conn.Write(buf[:n])
		}
		go io.Copy(io.Discard, conn)
		size, ok := <-info.Resize
		if !ok {
			return
		}
		fmt.Fprintf(conn, "%dx%d", size.Width, size.Height)
	}))
	if tr.Addr() != nil {
		t.Error("Expected telnet listener to be disabled")
	}
	addr := tr.WebSocketAddr().String()

	ws, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws?cols=100&rows=30&term=vt100", nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer ws.Close()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))

	info := recvInfo(t, started)
	if info.Kind != KindWebSocket {
		t.Errorf("Expected websocket kind, got %v", info.Kind)
	}
	if info.TermType != "vt100" {
		t.Errorf("Expected term vt100, got %q", info.TermType)
	}
	if info.Size != (terminal.Size{Width: 100, Height: 30}) {
		t.Errorf("Expected 100x30, got %+v", info.Size)
	}

	resp, err := http.Get("http://" + addr + "/stats")
	if err != nil {
		t.Fatalf("Stats request failed: %v", err)
	}
	var snap Snapshot
	err = json.NewDecoder(resp.Body).Decode(&snap)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("Stats decode failed: %v", err)
	}
	if snap.Active != 1 || len(snap.Sessions) != 1 || snap.Sessions[0].Kind != "websocket" {
		t.Errorf("Expected one live websocket session, got %+v", snap)
	}
	if snap.Metrics == nil || snap.Metrics.Counters[status.Frames] != 7 {
		t.Errorf("Expected shared metrics in stats, got %+v", snap.Metrics)
	}

	expectMessage := func(want string) {
		t.Helper()
		mt, data, err := ws.ReadMessage()
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if mt != websocket.BinaryMessage {
			t.Errorf("Expected binary frame, got type %d", mt)
		}
		if string(data) != want {
			t.Errorf("Expected %q, got %q", want, data)
		}
	}

	ws.WriteMessage(websocket.BinaryMessage, []byte("hi"))
	expectMessage("hi")

	// Text that is not a control message is input
	ws.WriteMessage(websocket.TextMessage, []byte("plain"))
	expectMessage("plain")

	ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"resize","cols":120,"rows":40}`))
	expectMessage("120x40")

	_, _, err = ws.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("Expected normal close, got %v", err)
	}
}

func TestWebSocketDefaultsAndHealth(t *testing.T) {
	cfg := testConfig()
	cfg.Address = ""
	cfg.WebSocket = WebSocketConfig{Enabled: true, Address: "127.0.0.1:0", Path: "/term", Origins: []string{"https://example.com"}}

	started := make(chan ConnInfo, 1)
	tr := startTransport(t, cfg, HandlerFunc(func(ctx context.Context, conn *Peer, info ConnInfo) {
		started <- info
	}))
	addr := tr.WebSocketAddr().String()

	resp, err := http.Get("http://" + addr + "/healthz")
	if err != nil {
		t.Fatalf("Health request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "ok\n" {
		t.Errorf("Expected 200 ok, got %d %q", resp.StatusCode, body)
	}

	header := http.Header{"Origin": []string{"https://evil.example"}}
	if _, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/term", header); err == nil {
		t.Error("Expected foreign origin to be refused")
	}

	header.Set("Origin", "https://example.com")
	ws, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/term", header)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer ws.Close()

	info := recvInfo(t, started)
	if info.TermType != defaultWebTermType {
		t.Errorf("Expected default term type, got %q", info.TermType)
	}
	if info.Size != (terminal.Size{}) {
		t.Errorf("Expected unknown size, got %+v", info.Size)
	}
}

func TestSSHSession(t *testing.T) {
	cfg := testConfig()
	cfg.Address = ""
	cfg.SSH = SSHConfig{
		Enabled:     true,
		Address:     "127.0.0.1:0",
		HostKeyPath: filepath.Join(t.TempDir(), "host_key"),
		Password:    "secret",
	}

	tr := startTransport(t, cfg, HandlerFunc(func(ctx context.Context, conn *Peer, info ConnInfo) {
		fmt.Fprintf(conn, "%s %s %dx%d\r\n", info.User, info.TermType, info.Size.Width, info.Size.Height)
		size, ok := <-info.Resize
		if !ok {
			return
		}
		fmt.Fprintf(conn, "%dx%d", size.Width, size.Height)
	}))
	addr := tr.SSHAddr().String()

	bad := &ssh.ClientConfig{
		User:            "player",
		Auth:            []ssh.AuthMethod{ssh.Password("wrong")},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         2 * time.Second,
	}
	if c, err := ssh.Dial("tcp", addr, bad); err == nil {
		c.Close()
		t.Error("Expected wrong password to be refused")
	}

	good := &ssh.ClientConfig{
		User:            "player",
		Auth:            []ssh.AuthMethod{ssh.Password("secret")},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         2 * time.Second,
	}
	client, err := ssh.Dial("tcp", addr, good)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	sess, err := client.NewSession()
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	defer sess.Close()
	stdout, err := sess.StdoutPipe()
	if err != nil {
		t.Fatalf("StdoutPipe failed: %v", err)
	}
	if err := sess.RequestPty("xterm", 24, 80, ssh.TerminalModes{}); err != nil {
		t.Fatalf("RequestPty failed: %v", err)
	}
	if err := sess.Shell(); err != nil {
		t.Fatalf("Shell failed: %v", err)
	}

	r := bufio.NewReader(stdout)
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if line != "player xterm 80x24\r\n" {
		t.Errorf("Expected session info line, got %q", line)
	}

	if err := sess.WindowChange(40, 120); err != nil {
		t.Fatalf("WindowChange failed: %v", err)
	}
	rest, _ := io.ReadAll(r)
	if string(rest) != "120x40" {
		t.Errorf("Expected resized dimensions, got %q", rest)
	}
}

func TestSSHWriteDeadlineWithStalledClient(t *testing.T) {
	cfg := testConfig()
	cfg.Address = ""
	cfg.SSH = SSHConfig{
		Enabled:     true,
		Address:     "127.0.0.1:0",
		HostKeyPath: filepath.Join(t.TempDir(), "host_key"),
	}

	result := make(chan error, 1)
	tr := startTransport(t, cfg, HandlerFunc(func(ctx context.Context, conn *Peer, info ConnInfo) {
		chunk := make([]byte, 32*1024)
		for {
			conn.SetWriteDeadline(time.Now().Add(300 * time.Millisecond))
			if _, err := conn.Write(chunk); err != nil {
				result <- err
				return
			}
		}
	}))

	client, err := ssh.Dial("tcp", tr.SSHAddr().String(), &ssh.ClientConfig{
		User:            "player",
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         2 * time.Second,
	})
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	sess, err := client.NewSession()
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	defer sess.Close()
	// Output is never read, so the channel window fills
	if _, err := sess.StdoutPipe(); err != nil {
		t.Fatalf("StdoutPipe failed: %v", err)
	}
	if err := sess.Shell(); err != nil {
		t.Fatalf("Shell failed: %v", err)
	}

	select {
	case err := <-result:
		if !errors.Is(err, os.ErrDeadlineExceeded) {
			t.Errorf("Expected deadline exceeded, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Expected write to a stalled client to time out")
	}
}

func TestHostKeyPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")

	first, err := LoadOrCreateHostKey(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if first.PublicKey().Type() != ssh.KeyAlgoED25519 {
		t.Errorf("Expected ed25519 key, got %s", first.PublicKey().Type())
	}
	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Key file missing: %v", err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Errorf("Expected mode 0600, got %o", st.Mode().Perm())
	}

	second, err := LoadOrCreateHostKey(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(first.PublicKey().Marshal()) != string(second.PublicKey().Marshal()) {
		t.Error("Expected the stored key to be reused")
	}

	bad := filepath.Join(t.TempDir(), "bad")
	os.WriteFile(bad, []byte("not a key"), 0o600)
	if _, err := LoadOrCreateHostKey(bad); err == nil {
		t.Error("Expected unparsable key to fail")
	}
}

func TestStartFailureReleasesListeners(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer busy.Close()

	cfg := testConfig()
	cfg.WebSocket = WebSocketConfig{Enabled: true, Address: busy.Addr().String(), Path: "/ws"}
	tr := NewTransport(cfg, HandlerFunc(func(context.Context, *Peer, ConnInfo) {}), nil)
	if err := tr.Start(); err == nil {
		tr.Stop()
		t.Fatal("Expected Start to fail on a busy address")
	}
	if tr.IsRunning() || tr.Addr() != nil {
		t.Error("Expected no listeners after failed Start")
	}
}
