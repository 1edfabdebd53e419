// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE_FORMAT_PCM tag.
const wavFormatPCM = 1

// ReadWAV decodes an integer PCM WAV stream into a Buffer. Every failure
// wraps ErrDecodeFailed.
func ReadWAV(r io.ReadSeeker) (*Buffer, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid WAV stream", ErrDecodeFailed)
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	depth := int(dec.BitDepth)
	scale := float32(goaudio.IntMaxSignedValue(depth))
	if scale == 0 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrDecodeFailed, depth)
	}

	data := make([]float32, len(pcm.Data))
	for i, v := range pcm.Data {
		if depth == 8 {
			// 8-bit WAV is unsigned.
			v -= 128
		}
		data[i] = float32(v) / scale
	}
	return NewBuffer(data, pcm.Format.SampleRate, pcm.Format.NumChannels), nil
}

// LoadWAV opens and decodes the WAV file at path.
func LoadWAV(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadWAV(f)
}

// WriteWAV encodes the buffer as integer PCM at bitDepth (8, 16, 24 or 32).
// Samples outside [-1, 1] are clipped.
func (b *Buffer) WriteWAV(w io.WriteSeeker, bitDepth int) error {
	if b == nil || b.Format == nil {
		return fmt.Errorf("write wav: missing format")
	}
	fullScale := goaudio.IntMaxSignedValue(bitDepth)
	if fullScale == 0 {
		return fmt.Errorf("write wav: unsupported bit depth %d", bitDepth)
	}

	ints := &goaudio.IntBuffer{
		Format:         b.Format,
		Data:           make([]int, len(b.Data)),
		SourceBitDepth: bitDepth,
	}
	for i, v := range b.Data {
		s := int(float64(min(1, max(-1, v))) * float64(fullScale))
		if bitDepth == 8 {
			s += 128
		}
		ints.Data[i] = s
	}

	enc := wav.NewEncoder(w, b.Format.SampleRate, bitDepth, b.Format.NumChannels, wavFormatPCM)
	if err := enc.Write(ints); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	return enc.Close()
}

// SaveWAV writes buf to path, creating parent directories as needed.
func SaveWAV(path string, buf *Buffer, bitDepth int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := buf.WriteWAV(f, bitDepth); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
