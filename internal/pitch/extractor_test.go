// SPDX-License-Identifier: MIT
package pitch

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"tonecoach/pkg/utils"
)

const sampleRate = 44100

func newTestExtractor(t testing.TB) *Extractor {
	t.Helper()
	e, err := NewExtractor(DefaultOptions())
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	return e
}

func TestNewExtractor_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"tiny window", func(o *Options) { o.WindowSize = 2 }},
		{"zero hop", func(o *Options) { o.HopSize = 0 }},
		{"hop over window", func(o *Options) { o.HopSize = o.WindowSize + 1 }},
		{"threshold one", func(o *Options) { o.CorrelationThreshold = 1 }},
		{"negative silence", func(o *Options) { o.SilenceThreshold = -0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			if _, err := NewExtractor(opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestExtract_Silence(t *testing.T) {
	e := newTestExtractor(t)
	if got := e.Extract(make([]float64, sampleRate), sampleRate); len(got) != 0 {
		t.Errorf("silence produced %d samples", len(got))
	}
}

func TestExtract_QuietSignalBelowThreshold(t *testing.T) {
	e := newTestExtractor(t)
	// RMS of a 0.01-peak sine is about 0.007.
	quiet := utils.GenerateSineWave(sampleRate, sampleRate, 220, 0.01)
	if got := e.Extract(quiet, sampleRate); len(got) != 0 {
		t.Errorf("sub-threshold signal produced %d samples", len(got))
	}
}

func TestExtract_ShorterThanWindow(t *testing.T) {
	e := newTestExtractor(t)
	short := utils.GenerateSineWave(2047, sampleRate, 220, 0.5)
	if got := e.Extract(short, sampleRate); len(got) != 0 {
		t.Errorf("short buffer produced %d samples", len(got))
	}
}

func TestExtract_InvalidSampleRate(t *testing.T) {
	e := newTestExtractor(t)
	if got := e.Extract(utils.GenerateSineWave(4096, sampleRate, 220, 0.5), 0); got != nil {
		t.Errorf("zero sample rate produced %v", got)
	}
}

func TestExtract_SineAccuracy(t *testing.T) {
	tests := []struct {
		freq      float64
		amplitude float64
	}{
		{110, 0.5},
		{150, 0.5},
		{220, 0.5},
		{220, 0.05},
		{330, 0.8},
	}

	e := newTestExtractor(t)
	for _, tt := range tests {
		samples := utils.GenerateSineWave(sampleRate, sampleRate, tt.freq, tt.amplitude)
		contour := e.Extract(samples, sampleRate)
		if len(contour) == 0 {
			t.Fatalf("%.0f Hz: empty contour", tt.freq)
		}
		for _, s := range contour {
			if math.Abs(s.Frequency-tt.freq)/tt.freq > 0.10 {
				t.Errorf("%.0f Hz @ %.2f: detected %.2f Hz at t=%.3f", tt.freq, tt.amplitude, s.Frequency, s.Time)
				break
			}
		}
	}
}

func TestExtract_HarmonicRichVoice(t *testing.T) {
	e := newTestExtractor(t)
	contour := e.Extract(utils.GenerateVoicedWave(sampleRate/2, sampleRate, 220), sampleRate)
	if len(contour) == 0 {
		t.Fatal("empty contour")
	}
	if mean := contour.Mean(); math.Abs(mean-220)/220 > 0.10 {
		t.Errorf("mean = %.2f Hz, want about 220", mean)
	}
}

func TestExtract_Timestamps(t *testing.T) {
	e := newTestExtractor(t)
	// 0.5 s of a steady tone: windows start every 512 samples.
	contour := e.Extract(utils.GenerateSineWave(sampleRate/2, sampleRate, 150, 0.5), sampleRate)
	if len(contour) != 40 {
		t.Fatalf("len = %d, want 40", len(contour))
	}
	for i, s := range contour {
		want := float64(i*512) / sampleRate
		if math.Abs(s.Time-want) > 1e-12 {
			t.Fatalf("sample %d time = %v, want %v", i, s.Time, want)
		}
		if s.Frequency <= 0 {
			t.Fatalf("sample %d has non-positive frequency %v", i, s.Frequency)
		}
	}
	if d := contour.Duration(); math.Abs(d-19968.0/sampleRate) > 1e-12 {
		t.Errorf("duration = %v", d)
	}
}

func TestExtract_SkipsGapsInSpeech(t *testing.T) {
	e := newTestExtractor(t)
	tone := utils.GenerateSineWave(sampleRate/4, sampleRate, 200, 0.5)
	gap := make([]float64, sampleRate/4)
	samples := slices.Concat(tone, gap, tone)

	contour := e.Extract(samples, sampleRate)
	if len(contour) == 0 {
		t.Fatal("empty contour")
	}
	for i := 1; i < len(contour); i++ {
		if contour[i].Time <= contour[i-1].Time {
			t.Fatalf("timestamps not increasing at %d", i)
		}
	}
	full := (len(samples)-2048)/512 + 1
	if len(contour) >= full {
		t.Errorf("expected silent windows to be skipped: %d of %d kept", len(contour), full)
	}
}

func TestExtract_Noise(t *testing.T) {
	e := newTestExtractor(t)
	rng := rand.New(rand.NewPCG(1, 2))
	noise := make([]float64, sampleRate/2)
	for i := range noise {
		noise[i] = rng.Float64() - 0.5
	}
	if got := e.Extract(noise, sampleRate); len(got) != 0 {
		t.Errorf("white noise produced %d samples", len(got))
	}
}

func TestExtract_RisingGlide(t *testing.T) {
	e := newTestExtractor(t)
	glide := utils.GenerateGlide(sampleRate*6/10, sampleRate, 120, 250, 0.3)
	contour := e.Extract(glide, sampleRate)
	if len(contour) < 3 {
		t.Fatalf("len = %d", len(contour))
	}
	if first, last := contour[0].Frequency, contour[len(contour)-1].Frequency; last <= first {
		t.Errorf("glide not rising: first=%.1f last=%.1f", first, last)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	e := newTestExtractor(t)
	samples := utils.GenerateVoicedWave(sampleRate/2, sampleRate, 180)
	a := e.Extract(samples, sampleRate)
	b := e.Extract(samples, sampleRate)
	if !slices.Equal(a, b) {
		t.Error("same input produced different contours")
	}
}

func TestContourHelpers(t *testing.T) {
	c := Contour{{0, 100}, {0.1, 140}, {0.3, 120}}
	if lo, hi := c.Range(); lo != 100 || hi != 140 {
		t.Errorf("Range() = %v, %v", lo, hi)
	}
	if m := c.Mean(); m != 120 {
		t.Errorf("Mean() = %v", m)
	}
	if d := c.Duration(); d != 0.3 {
		t.Errorf("Duration() = %v", d)
	}

	var empty Contour
	if lo, hi := empty.Range(); lo != 0 || hi != 0 {
		t.Error("empty Range should be zero")
	}
	if empty.Mean() != 0 || empty.Duration() != 0 {
		t.Error("empty Mean/Duration should be zero")
	}
}

func BenchmarkExtract(b *testing.B) {
	e := newTestExtractor(b)
	samples := utils.GenerateSineWave(sampleRate/2, sampleRate, 150, 0.5)

	b.ReportAllocs()
	for b.Loop() {
		e.Extract(samples, sampleRate)
	}
}
