// SPDX-License-Identifier: MIT
package pitch

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Sample is one pitch estimate: the start time of its analysis window in
// seconds and the detected fundamental in Hz.
type Sample struct {
	Time      float64 `json:"time"`
	Frequency float64 `json:"frequency"`
}

// Contour is an ordered sequence of pitch samples. Frequencies are always
// positive; silent or aperiodic windows are simply absent.
type Contour []Sample

// Frequencies returns the frequency column.
func (c Contour) Frequencies() []float64 {
	out := make([]float64, len(c))
	for i, s := range c {
		out[i] = s.Frequency
	}
	return out
}

// Duration is the time between the first and last sample.
func (c Contour) Duration() float64 {
	if len(c) < 2 {
		return 0
	}
	return c[len(c)-1].Time - c[0].Time
}

// Mean returns the average frequency, or 0 for an empty contour.
func (c Contour) Mean() float64 {
	if len(c) == 0 {
		return 0
	}
	return stat.Mean(c.Frequencies(), nil)
}

// Range returns the lowest and highest frequency, or zeros when empty.
func (c Contour) Range() (lo, hi float64) {
	if len(c) == 0 {
		return 0, 0
	}
	f := c.Frequencies()
	return floats.Min(f), floats.Max(f)
}
