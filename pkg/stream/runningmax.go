package stream

import (
	"math"
	"sync/atomic"
)

// RunningMax is a monotonic maximum shared by concurrent tile builds.
// The zero value holds 0.
type RunningMax struct {
	bits atomic.Uint64
}

// Observe raises the maximum to v if v is larger.
func (r *RunningMax) Observe(v float64) {
	for {
		old := r.bits.Load()
		if v <= math.Float64frombits(old) {
			return
		}
		if r.bits.CompareAndSwap(old, math.Float64bits(v)) {
			return
		}
	}
}

// Load returns the current maximum.
func (r *RunningMax) Load() float64 {
	return math.Float64frombits(r.bits.Load())
}
