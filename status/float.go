package status

import (
	"math"
	"sync/atomic"
)

// AtomicFloat is a float64 gauge stored as bits; the zero value reads 0
type AtomicFloat struct {
	bits atomic.Uint64
}

// Set stores val
func (f *AtomicFloat) Set(val float64) {
	f.bits.Store(math.Float64bits(val))
}

// Get loads the current value
func (f *AtomicFloat) Get() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Add adds delta and returns the new value
func (f *AtomicFloat) Add(delta float64) float64 {
	return f.update(func(old float64) float64 { return old + delta })
}

// Smooth folds sample into an exponential moving average with weight alpha
// The first sample on a zero gauge is taken as is
func (f *AtomicFloat) Smooth(sample, alpha float64) float64 {
	return f.update(func(old float64) float64 {
		if old == 0 {
			return sample
		}
		return old + alpha*(sample-old)
	})
}

func (f *AtomicFloat) update(fn func(float64) float64) float64 {
	for {
		old := f.bits.Load()
		next := fn(math.Float64frombits(old))
		if f.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return next
		}
	}
}
