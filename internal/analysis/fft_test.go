// SPDX-License-Identifier: MIT
package analysis

import (
	"sync"
	"testing"

	"tonecoach/pkg/utils"
)

const (
	testSampleRate = 44100.0
	testFFTSize    = 2048
	testChunk      = 512
)

func newTestSpectrum(t testing.TB, mutate func(*SpectrumOptions)) *Spectrum {
	t.Helper()
	opts := DefaultSpectrumOptions(testSampleRate)
	if mutate != nil {
		mutate(&opts)
	}
	s, err := NewSpectrum(opts)
	if err != nil {
		t.Fatalf("NewSpectrum: %v", err)
	}
	return s
}

func feed(s *Spectrum, samples []float32) {
	for i := 0; i < len(samples); i += testChunk {
		s.Process(samples[i:min(i+testChunk, len(samples))])
	}
}

func TestNewSpectrum_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SpectrumOptions)
	}{
		{"fft not pow2", func(o *SpectrumOptions) { o.FFTSize = 1000 }},
		{"zero rate", func(o *SpectrumOptions) { o.SampleRate = 0 }},
		{"smoothing one", func(o *SpectrumOptions) { o.Smoothing = 1 }},
		{"decibel order", func(o *SpectrumOptions) { o.MinDecibels = -20 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultSpectrumOptions(testSampleRate)
			tt.mutate(&opts)
			if _, err := NewSpectrum(opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSpectrum_Ready(t *testing.T) {
	s := newTestSpectrum(t, nil)
	if s.Ready() {
		t.Fatal("ready before any samples")
	}
	feed(s, make([]float32, testFFTSize-1))
	if s.Ready() {
		t.Fatal("ready before a full frame")
	}
	s.Process([]float32{0})
	if !s.Ready() {
		t.Fatal("not ready after a full frame")
	}
}

func TestSpectrum_PeakBin(t *testing.T) {
	const bin = 20
	freq := float64(bin) * testSampleRate / testFFTSize

	s := newTestSpectrum(t, nil)
	feed(s, utils.ToFloat32(utils.GenerateSineWave(4*testFFTSize, testSampleRate, freq, 0.5)))

	mags := s.Magnitudes()
	if len(mags) != testFFTSize/2 {
		t.Fatalf("len = %d, want %d", len(mags), testFFTSize/2)
	}
	if got := utils.FindPeakBin(mags, 0, len(mags)-1); got != bin {
		t.Errorf("peak bin = %d, want %d", got, bin)
	}
	db := s.FloatFrequencyData()
	if got := utils.FindPeakBin(db, 0, len(db)-1); got != bin {
		t.Errorf("dB peak bin = %d, want %d", got, bin)
	}
	if f := s.FrequencyForBin(bin); f != freq {
		t.Errorf("FrequencyForBin(%d) = %v, want %v", bin, f, freq)
	}
}

func TestSpectrum_Silence(t *testing.T) {
	s := newTestSpectrum(t, nil)
	feed(s, make([]float32, testFFTSize))

	for i, v := range s.FloatFrequencyData() {
		if v != -100 {
			t.Fatalf("bin %d = %v dB, want floor -100", i, v)
		}
	}
	td := s.TimeDomainData()
	if len(td) != testFFTSize {
		t.Fatalf("time domain len = %d", len(td))
	}
	for i, v := range td {
		if v != 128 {
			t.Fatalf("time domain %d = %d, want 128", i, v)
		}
	}
}

func TestSpectrum_TimeDomainClamps(t *testing.T) {
	s := newTestSpectrum(t, nil)
	loud := make([]float32, testFFTSize)
	for i := range loud {
		loud[i] = 2
		if i%2 == 1 {
			loud[i] = -2
		}
	}
	feed(s, loud)
	td := s.TimeDomainData()
	if td[0] != 255 || td[1] != 0 {
		t.Errorf("clipped samples = %d, %d; want 255, 0", td[0], td[1])
	}
}

func TestSpectrum_Smoothing(t *testing.T) {
	sine := utils.ToFloat32(utils.GenerateSineWave(testFFTSize, testSampleRate, 440, 0.5))

	raw := newTestSpectrum(t, func(o *SpectrumOptions) { o.Smoothing = 0 })
	smooth := newTestSpectrum(t, nil)
	raw.Process(sine)
	smooth.Process(sine)

	peak := utils.FindPeakBin(raw.Magnitudes(), 0, testFFTSize/2-1)
	r, m := raw.Magnitudes()[peak], smooth.Magnitudes()[peak]
	if diff := m - 0.2*r; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("first smoothed frame = %v, want 0.2 * %v", m, r)
	}
}

func TestSpectrum_ProcessDoesNotAllocate(t *testing.T) {
	s := newTestSpectrum(t, nil)
	chunk := utils.ToFloat32(utils.GenerateSineWave(testChunk, testSampleRate, 220, 0.5))
	feed(s, make([]float32, testFFTSize))

	allocs := testing.AllocsPerRun(50, func() {
		s.Process(chunk)
	})
	if allocs > 0 {
		t.Errorf("Process allocated %.1f times per call", allocs)
	}
}

func TestSpectrum_ConcurrentReaders(t *testing.T) {
	s := newTestSpectrum(t, nil)
	chunk := utils.ToFloat32(utils.GenerateSineWave(testChunk, testSampleRate, 220, 0.5))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range 200 {
			s.Process(chunk)
		}
	}()
	go func() {
		defer wg.Done()
		for range 200 {
			_ = s.FloatFrequencyData()
			_ = s.TimeDomainData()
		}
	}()
	wg.Wait()
}

func TestParseWindowFunc(t *testing.T) {
	tests := []struct {
		name    string
		want    WindowFunc
		wantErr bool
	}{
		{"Blackman", Blackman, false},
		{"hanning", Hann, false},
		{"HAMMING", Hamming, false},
		{"nuttall", Nuttall, false},
		{"triangle", Hann, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWindowFunc(tt.name)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseWindowFunc(%q) = %v, %v", tt.name, got, err)
			}
		})
	}
}

func BenchmarkSpectrumProcess(b *testing.B) {
	s := newTestSpectrum(b, nil)
	chunk := utils.ToFloat32(utils.GenerateSineWave(testChunk, testSampleRate, 220, 0.5))
	feed(s, make([]float32, testFFTSize))

	b.ReportAllocs()
	for b.Loop() {
		s.Process(chunk)
	}
}
