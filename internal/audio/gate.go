// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"sync/atomic"

	"tonecoach/internal/analysis"
)

// DefaultGateThreshold is roughly 0.1% of full scale.
const DefaultGateThreshold = 0.001

// Gate is a peak noise gate. Process runs on the capture callback; Open and
// Peak may be read from any goroutine.
type Gate struct {
	threshold atomic.Uint32 // float32 bits
	peak      atomic.Uint32 // float32 bits of the last chunk's peak
	open      atomic.Bool
}

var _ analysis.SampleProcessor = (*Gate)(nil)

// NewGate returns a gate at threshold, clamped to [0, 1].
func NewGate(threshold float64) *Gate {
	g := &Gate{}
	g.SetThreshold(threshold)
	return g
}

// SetThreshold adjusts the gate threshold.
// The value is in the range of 0.0-1.0 where 0=always open, 1=always closed.
func (g *Gate) SetThreshold(threshold float64) {
	threshold = max(0, min(1, threshold))
	g.threshold.Store(math.Float32bits(float32(threshold)))
}

// Threshold returns the current threshold.
func (g *Gate) Threshold() float64 {
	return float64(math.Float32frombits(g.threshold.Load()))
}

// Process measures the chunk peak and opens the gate when it exceeds the
// threshold. It does not allocate.
func (g *Gate) Process(samples []float32) {
	p := peak(samples)
	g.peak.Store(math.Float32bits(p))
	g.open.Store(p > math.Float32frombits(g.threshold.Load()))
}

// Open reports whether the last chunk passed the gate.
func (g *Gate) Open() bool {
	return g.open.Load()
}

// Peak returns the absolute peak of the last chunk.
func (g *Gate) Peak() float64 {
	return float64(math.Float32frombits(g.peak.Load()))
}

func peak(samples []float32) float32 {
	var m float32
	for _, s := range samples {
		// Clearing the sign bit is abs without a branch.
		a := math.Float32frombits(math.Float32bits(s) &^ (1 << 31))
		m = max(m, a)
	}
	return m
}
