// SPDX-License-Identifier: MIT

// Package utils holds signal generators and transport doubles shared by
// the package tests.
package utils

import (
	"math"
	"sync"
)

// MockTransport records every payload instead of transmitting it.
type MockTransport struct {
	mu     sync.Mutex
	sent   []any
	closed bool

	// Err, when set, is returned from Send.
	Err error
}

// Send stores v for later inspection.
func (m *MockTransport) Send(v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, v)
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Sent returns a copy of everything sent so far.
func (m *MockTransport) Sent() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]any, len(m.sent))
	copy(out, m.sent)
	return out
}

// Closed reports whether Close was called.
func (m *MockTransport) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// GenerateSineWave returns size samples of a sine at frequency Hz.
func GenerateSineWave(size int, sampleRate, frequency, amplitude float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = amplitude * math.Sin(2*math.Pi*frequency*t)
	}
	return buffer
}

// GenerateGlide returns a phase-continuous linear sweep from startHz to
// endHz over size samples.
func GenerateGlide(size int, sampleRate, startHz, endHz, amplitude float64) []float64 {
	buffer := make([]float64, size)
	phase := 0.0
	for i := range buffer {
		progress := float64(i) / float64(max(size-1, 1))
		freq := startHz + (endHz-startHz)*progress
		buffer[i] = amplitude * math.Sin(phase)
		phase += 2 * math.Pi * freq / sampleRate
	}
	return buffer
}

// GenerateVoicedWave is a 0.5/0.3/0.2 mix of the fundamental and its first
// two harmonics, a rough stand-in for a sung vowel.
func GenerateVoicedWave(size int, sampleRate, fundamental float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*fundamental*tm)*0.5 +
			math.Sin(2*math.Pi*2*fundamental*tm)*0.3 +
			math.Sin(2*math.Pi*3*fundamental*tm)*0.2
	}
	return buffer
}

// ToFloat32 narrows samples to the capture stream's sample type.
func ToFloat32(samples []float64) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s)
	}
	return out
}

// FindPeakBin returns the index of the largest value in
// magnitudes[startBin:endBin+1], clamping the range to the slice.
func FindPeakBin[T float32 | float64](magnitudes []T, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	if startBin < 0 {
		startBin = 0
	}
	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}
	return peakBin
}
