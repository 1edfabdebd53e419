// SPDX-License-Identifier: MIT
package tone

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Classifier maps a frequency sequence to a tone. Implementations must be
// pure functions of their input.
type Classifier interface {
	Classify(freqs []float64) Tone
}

// Thresholds of the segment heuristic, in Hz.
const (
	FlatRange  = 20.0 // Contours spanning less than this are Middle.
	SlopeDelta = 15.0 // Minimum end-start change for Rising or Falling.
	minSamples = 3
)

// Result is a segment classification with the segment means it was derived
// from.
type Result struct {
	Tone   Tone    `json:"tone"`
	Start  float64 `json:"start"`
	Middle float64 `json:"middle"`
	End    float64 `json:"end"`
}

// SegmentClassifier compares the means of the first, middle and last third of
// a contour.
type SegmentClassifier struct{}

// Classify implements Classifier.
func (SegmentClassifier) Classify(freqs []float64) Tone {
	return SegmentClassifier{}.Analyze(freqs).Tone
}

// Analyze classifies freqs and reports the segment means. Fewer than three
// samples give Middle with zero means.
func (SegmentClassifier) Analyze(freqs []float64) Result {
	if len(freqs) < minSamples {
		return Result{Tone: Middle}
	}

	thirds := Split(freqs, 3)
	r := Result{
		Start:  stat.Mean(thirds[0], nil),
		Middle: stat.Mean(thirds[1], nil),
		End:    stat.Mean(thirds[2], nil),
	}
	slope := r.End - r.Start

	switch {
	case floats.Max(freqs)-floats.Min(freqs) < FlatRange:
		r.Tone = Middle
	case slope > SlopeDelta && r.End > r.Middle:
		r.Tone = Rising
	case slope < -SlopeDelta && r.End < r.Middle:
		r.Tone = Falling
	case r.Middle > r.Start && r.Middle > r.End:
		r.Tone = High
	case r.Middle < r.Start && r.Middle < r.End:
		r.Tone = Low
	default:
		r.Tone = Middle
	}
	return r
}

// Split partitions freqs into n consecutive runs of len/n samples, the last
// run absorbing the remainder. Runs may be empty when len < n.
func Split(freqs []float64, n int) [][]float64 {
	size := len(freqs) / n
	parts := make([][]float64, n)
	for i := range n {
		end := (i + 1) * size
		if i == n-1 {
			end = len(freqs)
		}
		parts[i] = freqs[i*size : end]
	}
	return parts
}

// NewClassifier returns the classifier registered under name.
func NewClassifier(name string) (Classifier, error) {
	switch strings.ToLower(name) {
	case "", "segment":
		return SegmentClassifier{}, nil
	case "dtw":
		return NewDTWClassifier(), nil
	default:
		return nil, fmt.Errorf("unknown classifier %q", name)
	}
}
