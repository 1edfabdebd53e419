// SPDX-License-Identifier: MIT

// Package pitch estimates a fundamental-frequency contour from mono PCM with
// a windowed time-domain autocorrelation.
package pitch

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"tonecoach/internal/log"
)

// Options tune the extractor. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	WindowSize           int     // Samples per analysis window.
	HopSize              int     // Samples between window starts.
	SilenceThreshold     float64 // Windows with RMS below this are skipped.
	CorrelationThreshold float64 // Minimum correlation for a lag to count.
}

// DefaultOptions returns a 2048-sample window with 75% overlap.
func DefaultOptions() Options {
	return Options{
		WindowSize:           2048,
		HopSize:              512,
		SilenceThreshold:     0.01,
		CorrelationThreshold: 0.9,
	}
}

// Extractor turns sample buffers into pitch contours. It holds no mutable
// state and is safe for concurrent use.
type Extractor struct {
	opts Options
}

// NewExtractor validates opts and returns an Extractor.
func NewExtractor(opts Options) (*Extractor, error) {
	if opts.WindowSize < 4 {
		return nil, fmt.Errorf("pitch: window size %d too small", opts.WindowSize)
	}
	if opts.HopSize <= 0 || opts.HopSize > opts.WindowSize {
		return nil, fmt.Errorf("pitch: hop size %d outside [1, %d]", opts.HopSize, opts.WindowSize)
	}
	if opts.CorrelationThreshold <= 0 || opts.CorrelationThreshold >= 1 {
		return nil, fmt.Errorf("pitch: correlation threshold %g outside (0, 1)", opts.CorrelationThreshold)
	}
	if opts.SilenceThreshold < 0 {
		return nil, fmt.Errorf("pitch: negative silence threshold %g", opts.SilenceThreshold)
	}
	return &Extractor{opts: opts}, nil
}

// Extract slides the analysis window over samples and returns one Sample per
// voiced window. Buffers shorter than one window yield an empty contour.
func (e *Extractor) Extract(samples []float64, sampleRate int) Contour {
	if sampleRate <= 0 {
		return nil
	}

	var (
		contour Contour
		skipped int
	)
	for start := 0; start+e.opts.WindowSize <= len(samples); start += e.opts.HopSize {
		window := samples[start : start+e.opts.WindowSize]

		if rms(window) < e.opts.SilenceThreshold {
			skipped++
			continue
		}

		lag, ok := e.bestLag(window)
		if !ok {
			skipped++
			continue
		}

		contour = append(contour, Sample{
			Time:      float64(start) / float64(sampleRate),
			Frequency: float64(sampleRate) / float64(lag),
		})
	}

	log.Debugf("Pitch: %d voiced windows, %d skipped", len(contour), skipped)
	return contour
}

// bestLag searches lags 1..WindowSize/2 for the first periodic peak. A lag is
// a candidate when its correlation clears the threshold and is still rising;
// the search stops once the correlation falls after a candidate, so the
// fundamental period wins over its multiples.
func (e *Extractor) bestLag(window []float64) (int, bool) {
	maxLag := len(window) / 2

	var (
		bestLag  int
		bestCorr float64
		found    bool
		last     = 1.0
	)
	for lag := 1; lag <= maxLag; lag++ {
		c := correlation(window, lag, maxLag)
		if c > e.opts.CorrelationThreshold && c > last {
			found = true
			if c > bestCorr {
				bestCorr = c
				bestLag = lag
			}
		} else if found {
			break
		}
		last = c
	}
	return bestLag, found
}

// correlation is 1 minus the mean absolute difference between the first n
// samples of window and the same span shifted by lag.
func correlation(window []float64, lag, n int) float64 {
	var sum float64
	for i := range n {
		sum += math.Abs(window[i] - window[i+lag])
	}
	return 1 - sum/float64(n)
}

func rms(window []float64) float64 {
	return math.Sqrt(floats.Dot(window, window) / float64(len(window)))
}
