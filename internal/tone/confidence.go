// SPDX-License-Identifier: MIT
package tone

import "gonum.org/v1/gonum/stat"

const (
	confidenceSegments = 5
	consistencyWeight  = 0.7
	stabilityWeight    = 0.3
	neutralConfidence  = 0.5
)

// Confidence scores how well freqs supports tone t, in [0, 1]. It blends the
// fraction of five sub-segments that c classifies as t with the stability of
// the pitch (one minus its coefficient of variation). Fewer than three
// samples return 0.5.
func Confidence(freqs []float64, t Tone, c Classifier) float64 {
	if len(freqs) < minSamples {
		return neutralConfidence
	}

	matches := 0
	for _, seg := range Split(freqs, confidenceSegments) {
		if c.Classify(seg) == t {
			matches++
		}
	}
	consistency := float64(matches) / confidenceSegments

	return min(1, consistencyWeight*consistency+stabilityWeight*(1-variation(freqs)))
}

// variation is the coefficient of variation clamped to [0, 1].
func variation(freqs []float64) float64 {
	mean := stat.Mean(freqs, nil)
	if mean <= 0 {
		return 1
	}
	cv := stat.PopStdDev(freqs, nil) / mean
	return max(0, min(1, cv))
}
