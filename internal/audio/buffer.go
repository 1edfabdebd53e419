// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"time"

	goaudio "github.com/go-audio/audio"
)

// Buffer is a finalized recording: interleaved float32 PCM in [-1, 1] and
// its format. It is not modified after creation.
type Buffer struct {
	Format *goaudio.Format
	Data   []float32
}

// NewBuffer wraps interleaved samples. data is used without copying.
func NewBuffer(data []float32, sampleRate, channels int) *Buffer {
	return &Buffer{
		Format: &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:   data,
	}
}

// SampleRate returns the sample rate in Hz, or 0 without a format.
func (b *Buffer) SampleRate() int {
	if b == nil || b.Format == nil {
		return 0
	}
	return b.Format.SampleRate
}

// Frames returns the number of sample frames.
func (b *Buffer) Frames() int {
	if b == nil || b.Format == nil || b.Format.NumChannels <= 0 {
		return 0
	}
	return len(b.Data) / b.Format.NumChannels
}

// Duration returns the playback length of the buffer.
func (b *Buffer) Duration() time.Duration {
	sr := b.SampleRate()
	if sr <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(sr)
}

// Mono validates the buffer and averages its channels into float64
// samples. Any malformed input is reported as ErrDecodeFailed.
func (b *Buffer) Mono() ([]float64, error) {
	switch {
	case b == nil || b.Format == nil:
		return nil, fmt.Errorf("%w: missing format", ErrDecodeFailed)
	case b.Format.SampleRate <= 0:
		return nil, fmt.Errorf("%w: sample rate %d", ErrDecodeFailed, b.Format.SampleRate)
	case b.Format.NumChannels <= 0:
		return nil, fmt.Errorf("%w: channel count %d", ErrDecodeFailed, b.Format.NumChannels)
	case len(b.Data)%b.Format.NumChannels != 0:
		return nil, fmt.Errorf("%w: %d samples do not fill %d-channel frames",
			ErrDecodeFailed, len(b.Data), b.Format.NumChannels)
	}

	ch := b.Format.NumChannels
	out := make([]float64, len(b.Data)/ch)
	for i := range out {
		var sum float64
		for _, v := range b.Data[i*ch : (i+1)*ch] {
			f := float64(v)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, fmt.Errorf("%w: non-finite sample at frame %d", ErrDecodeFailed, i)
			}
			sum += f
		}
		out[i] = sum / float64(ch)
	}
	return out, nil
}
