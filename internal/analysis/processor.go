// SPDX-License-Identifier: MIT

// Package analysis provides the live spectrum shown while a learner records.
// It runs inside the capture callback, so processors reuse their buffers and
// hand out copies to readers.
package analysis

// SampleProcessor consumes captured mono samples. Process is called from the
// real-time capture callback and must not block.
type SampleProcessor interface {
	Process(samples []float32)
}

// SpectrumProvider exposes the latest magnitude spectrum. This decouples
// consumers such as BandMeter from the FFT implementation.
type SpectrumProvider interface {
	Magnitudes() []float64                // Copy of the latest smoothed linear magnitudes.
	FrequencyForBin(binIndex int) float64 // Centre frequency (Hz) of a bin.
	FFTSize() int
	SampleRate() float64
}
