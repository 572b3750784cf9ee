package network

import (
	"sync/atomic"

	"github.com/lixenwraith/textray/status"
)

// Stats counts transport activity, safe for concurrent use
type Stats struct {
	Accepted atomic.Uint64
	Rejected atomic.Uint64
	Active   atomic.Int64
	Closed   atomic.Uint64
	BytesIn  atomic.Uint64
	BytesOut atomic.Uint64
}

// Snapshot is a point-in-time copy of Stats
type Snapshot struct {
	Accepted uint64           `json:"accepted"`
	Rejected uint64           `json:"rejected"`
	Active   int64            `json:"active"`
	Closed   uint64           `json:"closed"`
	BytesIn  uint64           `json:"bytes_in"`
	BytesOut uint64           `json:"bytes_out"`
	Sessions []PeerInfo       `json:"sessions,omitempty"`
	Metrics  *status.Snapshot `json:"metrics,omitempty"`
}

// Snapshot reads every counter
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Accepted: s.Accepted.Load(),
		Rejected: s.Rejected.Load(),
		Active:   s.Active.Load(),
		Closed:   s.Closed.Load(),
		BytesIn:  s.BytesIn.Load(),
		BytesOut: s.BytesOut.Load(),
	}
}
