package network

import (
	"errors"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// ErrFull is returned by Registry.Add when the session limit is reached
var ErrFull = errors.New("session limit reached")

// ConnState represents connection lifecycle state
type ConnState uint8

const (
	StateConnected ConnState = iota
	StateDisconnecting
)

// Peer is one live terminal connection, whatever transport carried it
// It counts traffic and exposes write deadlines when the transport supports them
type Peer struct {
	ID       string
	Kind     Kind
	Addr     string
	Started  time.Time
	State    atomic.Uint32 // ConnState
	LastSeen atomic.Int64  // UnixNano
	BytesIn  atomic.Uint64
	BytesOut atomic.Uint64

	conn  io.ReadWriteCloser
	stats *Stats

	closeOnce sync.Once
	closeErr  error
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// newPeer wraps an established stream
func newPeer(id string, kind Kind, addr string, conn io.ReadWriteCloser, stats *Stats) *Peer {
	p := &Peer{
		ID:      id,
		Kind:    kind,
		Addr:    addr,
		Started: time.Now(),
		conn:    conn,
		stats:   stats,
	}
	p.State.Store(uint32(StateConnected))
	p.LastSeen.Store(p.Started.UnixNano())
	return p
}

// Read implements io.Reader
func (p *Peer) Read(b []byte) (int, error) {
	n, err := p.conn.Read(b)
	if n > 0 {
		p.BytesIn.Add(uint64(n))
		p.LastSeen.Store(time.Now().UnixNano())
		if p.stats != nil {
			p.stats.BytesIn.Add(uint64(n))
		}
	}
	return n, err
}

// Write implements io.Writer
func (p *Peer) Write(b []byte) (int, error) {
	n, err := p.conn.Write(b)
	if n > 0 {
		p.BytesOut.Add(uint64(n))
		if p.stats != nil {
			p.stats.BytesOut.Add(uint64(n))
		}
	}
	return n, err
}

// SetWriteDeadline forwards to the transport, a no-op when it has no deadlines
func (p *Peer) SetWriteDeadline(t time.Time) error {
	if d, ok := p.conn.(writeDeadliner); ok {
		return d.SetWriteDeadline(t)
	}
	return nil
}

// Close shuts the transport once; later calls return the first result
func (p *Peer) Close() error {
	p.closeOnce.Do(func() {
		p.State.Store(uint32(StateDisconnecting))
		p.closeErr = p.conn.Close()
	})
	return p.closeErr
}

// Info returns a JSON-friendly snapshot
func (p *Peer) Info() PeerInfo {
	return PeerInfo{
		ID:       p.ID,
		Kind:     p.Kind.String(),
		Addr:     p.Addr,
		Started:  p.Started,
		LastSeen: time.Unix(0, p.LastSeen.Load()),
		BytesIn:  p.BytesIn.Load(),
		BytesOut: p.BytesOut.Load(),
	}
}

// PeerInfo describes a live session for the stats endpoint
type PeerInfo struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	Addr     string    `json:"addr"`
	Started  time.Time `json:"started"`
	LastSeen time.Time `json:"last_seen"`
	BytesIn  uint64    `json:"bytes_in"`
	BytesOut uint64    `json:"bytes_out"`
}

// Registry tracks live sessions by ID and enforces the session limit
type Registry struct {
	mu    sync.RWMutex
	peers map[string]*Peer
	max   int
}

// NewRegistry creates a registry; max 0 means unlimited
func NewRegistry(max int) *Registry {
	return &Registry{
		peers: make(map[string]*Peer),
		max:   max,
	}
}

// Add registers a peer, failing with ErrFull at capacity
func (r *Registry) Add(p *Peer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.max > 0 && len(r.peers) >= r.max {
		return ErrFull
	}
	if _, dup := r.peers[p.ID]; dup {
		return errors.New("duplicate session id")
	}
	r.peers[p.ID] = p
	return nil
}

// Remove forgets a peer
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.peers, id)
	r.mu.Unlock()
}

// Get retrieves a peer by ID
func (r *Registry) Get(id string) (*Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.peers[id]
	return p, ok
}

// Count returns the number of live sessions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// List returns snapshots ordered by start time
func (r *Registry) List() []PeerInfo {
	r.mu.RLock()
	out := make([]PeerInfo, 0, len(r.peers))
	for _, p := range r.peers {
		out = append(out, p.Info())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Started.Equal(out[j].Started) {
			return out[i].ID < out[j].ID
		}
		return out[i].Started.Before(out[j].Started)
	})
	return out
}

// CloseAll closes every peer's transport; entries are removed by their owners
func (r *Registry) CloseAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.peers {
		p.Close()
	}
}
