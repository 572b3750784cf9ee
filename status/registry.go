// Package status keeps process-wide metrics that sessions update and the stats endpoint reads.
package status

import "sync/atomic"

// Metric names written by sessions
const (
	Frames              = "frames"               // Frames transmitted
	FrameBytes          = "frame_bytes"          // Bytes of frame output, before IAC escaping
	IdleTicks           = "idle_ticks"           // Ticks that produced no output
	Resizes             = "resizes"              // Accepted size changes
	MovesDropped        = "moves_dropped"        // Pose inputs lost to a full queue
	NegotiationTimeouts = "negotiation_timeouts" // Telnet negotiations that did not settle
	FrameSizeAvg        = "frame_bytes_avg"      // Smoothed bytes per transmitted frame
)

// Registry groups counters and gauges
type Registry struct {
	Counters *MetricMap[atomic.Int64]
	Gauges   *MetricMap[AtomicFloat]
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		Counters: NewMetricMap[atomic.Int64](),
		Gauges:   NewMetricMap[AtomicFloat](),
	}
}

// Counter returns the named counter
func (r *Registry) Counter(name string) *atomic.Int64 { return r.Counters.Get(name) }

// Gauge returns the named gauge
func (r *Registry) Gauge(name string) *AtomicFloat { return r.Gauges.Get(name) }

// Snapshot is a JSON-friendly copy of every metric
type Snapshot struct {
	Counters map[string]int64   `json:"counters"`
	Gauges   map[string]float64 `json:"gauges"`
}

// Snapshot reads every metric
func (r *Registry) Snapshot() Snapshot {
	s := Snapshot{
		Counters: make(map[string]int64, r.Counters.Count()),
		Gauges:   make(map[string]float64, r.Gauges.Count()),
	}
	r.Counters.Range(func(k string, v *atomic.Int64) { s.Counters[k] = v.Load() })
	r.Gauges.Range(func(k string, v *AtomicFloat) { s.Gauges[k] = v.Get() })
	return s
}

// TotalCount returns the number of registered metrics
func (r *Registry) TotalCount() int {
	return r.Counters.Count() + r.Gauges.Count()
}
