// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"tonecoach/internal/log"
	"tonecoach/pkg/bitint"
)

// WindowFunc selects the window applied before the FFT.
type WindowFunc int

const (
	BartlettHann WindowFunc = iota
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

var windowNames = map[WindowFunc]string{
	BartlettHann:    "BartlettHann",
	Blackman:        "Blackman",
	BlackmanNuttall: "BlackmanNuttall",
	Hann:            "Hann",
	Hamming:         "Hamming",
	Lanczos:         "Lanczos",
	Nuttall:         "Nuttall",
}

func (w WindowFunc) String() string {
	if name, ok := windowNames[w]; ok {
		return name
	}
	return fmt.Sprintf("WindowFunc(%d)", int(w))
}

// SpectrumOptions configures a Spectrum.
type SpectrumOptions struct {
	FFTSize     int
	SampleRate  float64
	Window      WindowFunc
	Smoothing   float64 // Weight of the previous frame, in [0, 1).
	MinDecibels float64 // Floor for reported magnitudes.
	MaxDecibels float64
}

// DefaultSpectrumOptions mirrors a browser AnalyserNode with a 2048-point
// FFT and a Blackman window.
func DefaultSpectrumOptions(sampleRate float64) SpectrumOptions {
	return SpectrumOptions{
		FFTSize:     2048,
		SampleRate:  sampleRate,
		Window:      Blackman,
		Smoothing:   0.8,
		MinDecibels: -100,
		MaxDecibels: -30,
	}
}

// Pre-allocated buffers for the callback path.
type workspace struct {
	ring      []float64 // Most recent FFTSize samples, circular.
	pos       int       // Next write position in ring.
	filled    int       // Samples written, saturating at FFTSize.
	input     []float64
	fftOutput []complex128
	smoothed  []float64
	window    []float64
	mu        sync.RWMutex
}

// Spectrum keeps a rolling FFT over the most recent samples. Process is
// called by the capture callback; readers take copies under a read lock.
type Spectrum struct {
	fft  *fourier.FFT
	opts SpectrumOptions
	ws   workspace
}

var (
	_ SampleProcessor  = (*Spectrum)(nil)
	_ SpectrumProvider = (*Spectrum)(nil)
)

// NewSpectrum validates opts and pre-allocates all buffers.
func NewSpectrum(opts SpectrumOptions) (*Spectrum, error) {
	if !bitint.IsPowerOfTwo(opts.FFTSize) {
		return nil, fmt.Errorf("fft size must be a power of 2, got %d", opts.FFTSize)
	}
	if opts.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", opts.SampleRate)
	}
	if opts.Smoothing < 0 || opts.Smoothing >= 1 {
		return nil, fmt.Errorf("smoothing must be in [0, 1), got %f", opts.Smoothing)
	}
	if opts.MinDecibels >= opts.MaxDecibels {
		return nil, fmt.Errorf("min decibels %.1f must be below max %.1f", opts.MinDecibels, opts.MaxDecibels)
	}

	coeffs := make([]float64, opts.FFTSize)
	applyWindow(coeffs, opts.Window)

	log.Debugf("Analysis: spectrum size=%d rate=%.0f window=%v", opts.FFTSize, opts.SampleRate, opts.Window)

	return &Spectrum{
		fft:  fourier.NewFFT(opts.FFTSize),
		opts: opts,
		ws: workspace{
			ring:      make([]float64, opts.FFTSize),
			input:     make([]float64, opts.FFTSize),
			fftOutput: make([]complex128, opts.FFTSize/2+1),
			smoothed:  make([]float64, opts.FFTSize/2),
			window:    coeffs,
		},
	}, nil
}

// Process appends samples to the rolling buffer and, once a full frame is
// available, recomputes the smoothed spectrum. It does not allocate.
func (s *Spectrum) Process(samples []float32) {
	ws := &s.ws
	ws.mu.Lock()
	defer ws.mu.Unlock()

	n := len(ws.ring)
	for _, v := range samples {
		ws.ring[ws.pos] = float64(v)
		ws.pos = (ws.pos + 1) % n
	}
	ws.filled = min(n, ws.filled+len(samples))
	if ws.filled < n {
		return
	}

	// Oldest sample sits at pos.
	for i := range n {
		ws.input[i] = ws.ring[(ws.pos+i)%n] * ws.window[i]
	}
	s.fft.Coefficients(ws.fftOutput, ws.input)

	tau := s.opts.Smoothing
	scale := 1 / float64(n)
	for i := range ws.smoothed {
		mag := cmplx.Abs(ws.fftOutput[i]) * scale
		ws.smoothed[i] = tau*ws.smoothed[i] + (1-tau)*mag
	}
}

// Ready reports whether a full frame has been analysed.
func (s *Spectrum) Ready() bool {
	s.ws.mu.RLock()
	defer s.ws.mu.RUnlock()
	return s.ws.filled == len(s.ws.ring)
}

// Magnitudes returns a copy of the smoothed linear magnitudes, FFTSize/2 bins.
func (s *Spectrum) Magnitudes() []float64 {
	s.ws.mu.RLock()
	defer s.ws.mu.RUnlock()
	out := make([]float64, len(s.ws.smoothed))
	copy(out, s.ws.smoothed)
	return out
}

// FloatFrequencyData returns the smoothed spectrum in decibels, floored at
// MinDecibels.
func (s *Spectrum) FloatFrequencyData() []float32 {
	s.ws.mu.RLock()
	defer s.ws.mu.RUnlock()
	out := make([]float32, len(s.ws.smoothed))
	for i, m := range s.ws.smoothed {
		db := s.opts.MinDecibels
		if m > 0 {
			db = max(db, 20*math.Log10(m))
		}
		out[i] = float32(db)
	}
	return out
}

// TimeDomainData returns the most recent frame as unsigned bytes centred on
// 128, the way AnalyserNode.getByteTimeDomainData does.
func (s *Spectrum) TimeDomainData() []uint8 {
	s.ws.mu.RLock()
	defer s.ws.mu.RUnlock()
	n := len(s.ws.ring)
	out := make([]uint8, n)
	for i := range n {
		v := 128 + s.ws.ring[(s.ws.pos+i)%n]*128
		out[i] = uint8(max(0, min(255, v)))
	}
	return out
}

// FrequencyForBin returns the centre frequency (Hz) of binIndex, or 0 when
// it is out of range.
func (s *Spectrum) FrequencyForBin(binIndex int) float64 {
	if binIndex < 0 || binIndex >= s.opts.FFTSize/2 {
		return 0
	}
	return float64(binIndex) * s.opts.SampleRate / float64(s.opts.FFTSize)
}

// FFTSize returns the configured FFT size.
func (s *Spectrum) FFTSize() int {
	return s.opts.FFTSize
}

// SampleRate returns the configured sample rate.
func (s *Spectrum) SampleRate() float64 {
	return s.opts.SampleRate
}

// ParseWindowFunc converts a case-insensitive name to a WindowFunc. Unknown
// names return Hann and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// applyWindow fills coeffs with the selected window.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		log.Warnf("Analysis: unknown window function %d, defaulting to Hann", windowType)
		window.Hann(coeffs)
	}
}
