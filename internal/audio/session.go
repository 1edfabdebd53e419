// SPDX-License-Identifier: MIT
package audio

import (
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"tonecoach/internal/analysis"
)

// State is the lifecycle position of a Session.
type State int32

const (
	Idle State = iota
	Recording
	Stopped
	Released
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Stopped:
		return "stopped"
	case Released:
		return "released"
	default:
		return "unknown"
	}
}

// LiveSnapshot is a copy of the live analysis at one instant.
type LiveSnapshot struct {
	SessionID  uuid.UUID            `json:"session_id"`
	Elapsed    time.Duration        `json:"elapsed"`
	Frequency  []float32            `json:"frequency"`   // dB per bin
	TimeDomain []uint8              `json:"time_domain"` // centred on 128
	Level      float64              `json:"level"`       // chunk peak
	Voiced     bool                 `json:"voiced"`
	Bands      []analysis.BandLevel `json:"bands"`
}

// Session is one capture attempt. The capture stream owns the callback side;
// everything else goes through Capture.
type Session struct {
	ID         uuid.UUID
	SampleRate int
	Channels   int
	StartedAt  time.Time

	mu        sync.Mutex
	state     State
	chunks    [][]float32
	samples   int
	maxFrames int
	stream    stream
	mono      []float32 // down-mix scratch for the live processors

	spectrum   *analysis.Spectrum
	bands      *analysis.BandMeter
	gate       *Gate
	processors []analysis.SampleProcessor
}

func newSession(opts Options) (*Session, error) {
	spectrum, err := analysis.NewSpectrum(opts.Spectrum)
	if err != nil {
		return nil, err
	}
	gate := NewGate(opts.GateThreshold)

	s := &Session{
		ID:         uuid.New(),
		SampleRate: int(opts.SampleRate),
		Channels:   opts.Channels,
		spectrum:   spectrum,
		bands:      analysis.NewBandMeter(spectrum, nil),
		gate:       gate,
		processors: []analysis.SampleProcessor{gate, spectrum},
	}
	if opts.MaxDuration > 0 {
		s.maxFrames = int(opts.MaxDuration.Seconds() * opts.SampleRate)
	}
	if opts.Channels > 1 {
		s.mono = make([]float32, opts.FramesPerBuffer)
	}
	return s, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Frames returns the number of frames captured so far.
func (s *Session) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.samples / max(1, s.Channels)
}

// process is the stream callback. The host reuses in, so it is copied.
// Chunks arriving outside Recording, or past the duration cap, are dropped.
func (s *Session) process(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	s.mu.Lock()
	if s.state != Recording {
		s.mu.Unlock()
		return
	}
	n := len(in)
	if s.maxFrames > 0 {
		n = min(n, s.maxFrames*s.Channels-s.samples)
	}
	if n <= 0 {
		s.mu.Unlock()
		return
	}
	chunk := make([]float32, n)
	copy(chunk, in[:n])
	s.chunks = append(s.chunks, chunk)
	s.samples += n
	s.mu.Unlock()

	live := chunk
	if s.Channels > 1 {
		live = s.downmix(chunk)
	}
	for _, p := range s.processors {
		p.Process(live)
	}
}

// downmix keeps the first channel. Only the callback goroutine uses mono.
func (s *Session) downmix(chunk []float32) []float32 {
	frames := len(chunk) / s.Channels
	if cap(s.mono) < frames {
		s.mono = make([]float32, frames)
	}
	out := s.mono[:frames]
	for i := range out {
		out[i] = chunk[i*s.Channels]
	}
	return out
}

// LiveSnapshot returns copies of the current live analysis. It reports
// false unless the session is recording and a full analysis window has been
// seen.
func (s *Session) LiveSnapshot() (*LiveSnapshot, bool) {
	s.mu.Lock()
	recording := s.state == Recording
	started := s.StartedAt
	s.mu.Unlock()

	if !recording || !s.spectrum.Ready() {
		return nil, false
	}
	return &LiveSnapshot{
		SessionID:  s.ID,
		Elapsed:    time.Since(started),
		Frequency:  s.spectrum.FloatFrequencyData(),
		TimeDomain: s.spectrum.TimeDomainData(),
		Level:      s.gate.Peak(),
		Voiced:     s.gate.Open(),
		Bands:      s.bands.Measure(),
	}, true
}

// begin moves an idle session to Recording with its stream attached.
func (s *Session) begin(st stream) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stream = st
	s.state = Recording
	s.StartedAt = time.Now()
}

// end leaves Recording and detaches the stream. It reports false if the
// session was not recording.
func (s *Session) end() (stream, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Recording {
		return nil, false
	}
	st := s.stream
	s.stream = nil
	s.state = Stopped
	return st, true
}

// buffer concatenates the captured chunks.
func (s *Session) buffer() *Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := make([]float32, 0, s.samples)
	for _, c := range s.chunks {
		data = append(data, c...)
	}
	return NewBuffer(data, s.SampleRate, s.Channels)
}

// release drops the chunks. The session cannot be restarted.
func (s *Session) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	s.samples = 0
	s.state = Released
}
