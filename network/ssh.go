package network

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/subtle"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"github.com/lixenwraith/textray/terminal"
)

const sshServerVersion = "SSH-2.0-textray"

// Payload of a pty-req channel request (RFC 4254 6.2)
type ptyRequest struct {
	Term   string
	Cols   uint32
	Rows   uint32
	Width  uint32
	Height uint32
	Modes  string
}

// Payload of a window-change channel request (RFC 4254 6.7)
type windowChange struct {
	Cols   uint32
	Rows   uint32
	Width  uint32
	Height uint32
}

type exitStatus struct {
	Status uint32
}

// LoadOrCreateHostKey reads a PEM private key from path, generating and
// writing an ed25519 key when the file does not exist
func LoadOrCreateHostKey(path string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		signer, err := ssh.ParsePrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("parse host key %s: %w", path, err)
		}
		return signer, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read host key: %w", err)
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate host key: %w", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("encode host key: %w", err)
	}
	block := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	if err := os.WriteFile(path, block, 0o600); err != nil {
		return nil, fmt.Errorf("write host key: %w", err)
	}
	return ssh.NewSignerFromKey(priv)
}

// sshServerConfig builds the server configuration from the host key and password
func sshServerConfig(cfg SSHConfig) (*ssh.ServerConfig, error) {
	signer, err := LoadOrCreateHostKey(cfg.HostKeyPath)
	if err != nil {
		return nil, err
	}

	sc := &ssh.ServerConfig{ServerVersion: sshServerVersion}
	if cfg.Password == "" {
		sc.NoClientAuth = true
		sc.PasswordCallback = func(ssh.ConnMetadata, []byte) (*ssh.Permissions, error) {
			return nil, nil
		}
	} else {
		want := []byte(cfg.Password)
		sc.PasswordCallback = func(_ ssh.ConnMetadata, got []byte) (*ssh.Permissions, error) {
			if subtle.ConstantTimeCompare(got, want) == 1 {
				return nil, nil
			}
			return nil, errors.New("password rejected")
		}
	}
	sc.AddHostKey(signer)
	return sc, nil
}

func (t *Transport) listenSSH() error {
	sc, err := sshServerConfig(t.config.SSH)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", t.config.SSH.Address)
	if err != nil {
		return err
	}
	t.sshConfig = sc
	t.sshListener = ln
	t.log.Info("ssh listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// handleSSH runs the handshake and channel loop on a tracked goroutine
func (t *Transport) handleSSH(nc net.Conn) {
	t.mu.Lock()
	if t.stopping {
		t.mu.Unlock()
		nc.Close()
		return
	}
	t.conns.Add(1)
	t.raw[nc] = struct{}{}
	t.mu.Unlock()

	go func() {
		defer t.conns.Done()
		defer func() {
			t.mu.Lock()
			delete(t.raw, nc)
			t.mu.Unlock()
			nc.Close()
		}()
		t.serveSSH(nc)
	}()
}

func (t *Transport) serveSSH(nc net.Conn) {
	remote := nc.RemoteAddr().String()

	nc.SetDeadline(time.Now().Add(t.config.HandshakeTime))
	sconn, chans, reqs, err := ssh.NewServerConn(nc, t.sshConfig)
	if err != nil {
		t.log.Debug("ssh handshake failed", zap.String("remote", remote), zap.Error(err))
		return
	}
	nc.SetDeadline(time.Time{})
	defer sconn.Close()

	go ssh.DiscardRequests(reqs)

	var wg sync.WaitGroup
	for newCh := range chans {
		if newCh.ChannelType() != "session" {
			newCh.Reject(ssh.UnknownChannelType, "only session channels are supported")
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			t.serveChannel(sconn, nc, newCh)
		}()
	}
	wg.Wait()
}

// serveChannel answers channel requests; the first shell request starts a session
func (t *Transport) serveChannel(sconn *ssh.ServerConn, nc net.Conn, newCh ssh.NewChannel) {
	ch, requests, err := newCh.Accept()
	if err != nil {
		t.log.Debug("ssh channel accept failed", zap.Error(err))
		return
	}

	resize := make(chan terminal.Size, 1)
	info := ConnInfo{
		Kind:   KindSSH,
		Remote: sconn.RemoteAddr().String(),
		User:   sconn.User(),
		Resize: resize,
	}
	started := false

	for req := range requests {
		ok := false
		switch req.Type {
		case "pty-req":
			var p ptyRequest
			if err := ssh.Unmarshal(req.Payload, &p); err == nil {
				info.TermType = p.Term
				info.Size = terminal.Size{Width: int(p.Cols), Height: int(p.Rows)}
				ok = true
			}
		case "window-change":
			var wc windowChange
			if err := ssh.Unmarshal(req.Payload, &wc); err == nil {
				size := terminal.Size{Width: int(wc.Cols), Height: int(wc.Rows)}
				if started {
					offerLatest(resize, size)
				} else {
					info.Size = size
				}
				ok = true
			}
		case "env":
			ok = true
		case "shell":
			if !started {
				started = true
				ok = true
				t.dispatch(&sshConn{Channel: ch, raw: nc}, info, func() {
					sconn.Close()
				})
			}
		}
		if req.WantReply {
			req.Reply(ok, nil)
		}
	}
	close(resize)

	if !started {
		ch.Close()
	}
}

// offerLatest replaces any unread size so the reader sees only the newest
func offerLatest(ch chan terminal.Size, size terminal.Size) {
	select {
	case ch <- size:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- size:
	default:
	}
}

// sshConn adapts a session channel to the stream a Handler reads and writes
// A channel write blocked on the client's window never reaches TCP, so write deadlines are enforced with a timer that drops the connection
type sshConn struct {
	ssh.Channel
	raw       net.Conn
	closeOnce sync.Once
	closeErr  error

	mu       sync.Mutex
	deadline time.Time
}

// SetWriteDeadline bounds subsequent writes; zero clears it
func (c *sshConn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	c.deadline = t
	c.mu.Unlock()
	return nil
}

// Write sends on the channel; past the deadline the whole SSH connection is closed and os.ErrDeadlineExceeded returned
func (c *sshConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	deadline := c.deadline
	c.mu.Unlock()
	if deadline.IsZero() {
		return c.Channel.Write(p)
	}

	wait := time.Until(deadline)
	if wait <= 0 {
		return 0, os.ErrDeadlineExceeded
	}
	var expired atomic.Bool
	timer := time.AfterFunc(wait, func() {
		expired.Store(true)
		c.raw.Close()
	})
	n, err := c.Channel.Write(p)
	if !timer.Stop() && expired.Load() {
		return n, os.ErrDeadlineExceeded
	}
	return n, err
}

// Close reports exit status 0 and closes the channel
func (c *sshConn) Close() error {
	c.closeOnce.Do(func() {
		c.Channel.SendRequest("exit-status", false, ssh.Marshal(exitStatus{}))
		c.closeErr = c.Channel.Close()
	})
	return c.closeErr
}
