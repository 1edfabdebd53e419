// SPDX-License-Identifier: MIT
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"

	"tonecoach/pkg/utils"
)

func TestBuffer_Mono(t *testing.T) {
	buf := NewBuffer([]float32{0.5, -0.5, 1, 0, -1, -1}, 44100, 2)

	got, err := buf.Mono()
	if err != nil {
		t.Fatalf("Mono: %v", err)
	}
	want := []float64{0, 0.5, -1}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d = %v, want %v", i, got[i], want[i])
		}
	}
	if buf.Frames() != 3 {
		t.Errorf("Frames = %d", buf.Frames())
	}
}

func TestBuffer_MonoEmpty(t *testing.T) {
	got, err := NewBuffer(nil, 44100, 1).Mono()
	if err != nil || len(got) != 0 {
		t.Errorf("empty buffer = %v, %v; want no samples and no error", got, err)
	}
}

func TestBuffer_MonoDecodeFailures(t *testing.T) {
	nan := float32(math.NaN())
	tests := []struct {
		name string
		buf  *Buffer
	}{
		{"nil", nil},
		{"no format", &Buffer{Data: []float32{0}}},
		{"zero rate", NewBuffer([]float32{0}, 0, 1)},
		{"zero channels", NewBuffer([]float32{0}, 44100, 0)},
		{"ragged frames", NewBuffer([]float32{0, 0, 0}, 44100, 2)},
		{"nan", NewBuffer([]float32{0, nan}, 44100, 1)},
		{"inf", NewBuffer([]float32{float32(math.Inf(-1))}, 44100, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.buf.Mono(); !errors.Is(err, ErrDecodeFailed) {
				t.Errorf("Mono() error = %v, want ErrDecodeFailed", err)
			}
		})
	}
}

func TestBuffer_Duration(t *testing.T) {
	buf := NewBuffer(make([]float32, 22050*2), 44100, 2)
	if d := buf.Duration(); d != 250*time.Millisecond {
		t.Errorf("Duration = %v, want 250ms", d)
	}
	if d := (&Buffer{}).Duration(); d != 0 {
		t.Errorf("formatless Duration = %v", d)
	}
}

func TestWAV_RoundTrip(t *testing.T) {
	sine := utils.ToFloat32(utils.GenerateSineWave(4410, 44100, 220, 0.5))

	for _, depth := range []int{8, 16, 24, 32} {
		t.Run(fmt.Sprintf("%dbit", depth), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sine.wav")
			if err := SaveWAV(path, NewBuffer(sine, 44100, 1), depth); err != nil {
				t.Fatalf("SaveWAV(%d): %v", depth, err)
			}

			got, err := LoadWAV(path)
			if err != nil {
				t.Fatalf("LoadWAV: %v", err)
			}
			if got.SampleRate() != 44100 || got.Format.NumChannels != 1 {
				t.Fatalf("format = %+v", got.Format)
			}
			if len(got.Data) != len(sine) {
				t.Fatalf("len = %d, want %d", len(got.Data), len(sine))
			}

			tol := 2.0/float64(goaudio.IntMaxSignedValue(depth)) + 1e-6
			for i := range sine {
				if diff := math.Abs(float64(got.Data[i] - sine[i])); diff > tol {
					t.Fatalf("%d-bit sample %d = %v, want %v", depth, i, got.Data[i], sine[i])
				}
			}
		})
	}
}

func TestWAV_Clipping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loud.wav")
	if err := SaveWAV(path, NewBuffer([]float32{2, -2, 0.25}, 8000, 1), 16); err != nil {
		t.Fatalf("SaveWAV: %v", err)
	}
	got, err := LoadWAV(path)
	if err != nil {
		t.Fatalf("LoadWAV: %v", err)
	}
	if got.Data[0] != 1 || got.Data[1] != -1 {
		t.Errorf("clipped samples = %v, %v; want 1, -1", got.Data[0], got.Data[1])
	}
}

func TestReadWAV_Invalid(t *testing.T) {
	_, err := ReadWAV(bytes.NewReader([]byte("definitely not a riff file")))
	if !errors.Is(err, ErrDecodeFailed) {
		t.Errorf("ReadWAV(garbage) = %v, want ErrDecodeFailed", err)
	}
}

func TestWriteWAV_Errors(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "x.wav"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := NewBuffer([]float32{0}, 44100, 1).WriteWAV(f, 12); err == nil {
		t.Error("expected error for 12-bit output")
	}
	if err := (&Buffer{}).WriteWAV(f, 16); err == nil {
		t.Error("expected error for missing format")
	}
}
