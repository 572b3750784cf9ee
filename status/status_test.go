package status

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestAtomicFloat(t *testing.T) {
	var f AtomicFloat
	if f.Get() != 0 {
		t.Errorf("Expected zero value 0, got %v", f.Get())
	}
	f.Set(1.5)
	if got := f.Add(2); got != 3.5 {
		t.Errorf("Expected 3.5, got %v", got)
	}
}

func TestSmooth(t *testing.T) {
	var f AtomicFloat
	if got := f.Smooth(100, 0.5); got != 100 {
		t.Errorf("Expected first sample to seed the average, got %v", got)
	}
	if got := f.Smooth(200, 0.5); got != 150 {
		t.Errorf("Expected 150, got %v", got)
	}
}

func TestConcurrentCounters(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := r.Counter(Frames)
			g := r.Gauge("load")
			for j := 0; j < 1000; j++ {
				c.Add(1)
				g.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := r.Counter(Frames).Load(); got != 8000 {
		t.Errorf("Expected 8000 frames, got %d", got)
	}
	if got := r.Gauge("load").Get(); got != 8000 {
		t.Errorf("Expected gauge 8000, got %v", got)
	}
}

func TestSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Counter(Resizes).Store(3)
	r.Gauge(FrameSizeAvg).Set(42)

	s := r.Snapshot()
	if s.Counters[Resizes] != 3 {
		t.Errorf("Expected 3 resizes, got %d", s.Counters[Resizes])
	}
	if s.Gauges[FrameSizeAvg] != 42 {
		t.Errorf("Expected gauge 42, got %v", s.Gauges[FrameSizeAvg])
	}
	if r.TotalCount() != 2 {
		t.Errorf("Expected 2 metrics, got %d", r.TotalCount())
	}
}

func TestMetricMapRangeOrder(t *testing.T) {
	m := NewMetricMap[atomic.Int64]()
	for _, k := range []string{"c", "a", "b"} {
		m.Get(k)
	}
	var keys []string
	m.Range(func(k string, _ *atomic.Int64) { keys = append(keys, k) })
	if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Errorf("Expected sorted keys, got %v", keys)
	}
	if m.Get("a") != m.Get("a") {
		t.Error("Expected the same pointer for repeated lookups")
	}
}
