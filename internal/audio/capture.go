// SPDX-License-Identifier: MIT

/*
Package audio captures microphone input through PortAudio and turns it into
finalized recordings.

A Capture owns at most one recording Session. The stream callback copies each
chunk into the session and feeds the live processors (noise gate, rolling
spectrum) so the UI can poll LiveSnapshot while the learner speaks. Stop
concatenates the chunks into an immutable Buffer.
*/
package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"tonecoach/internal/analysis"
	"tonecoach/internal/config"
	"tonecoach/internal/log"
)

// Options configures a Capture.
type Options struct {
	DeviceID        int
	SampleRate      float64
	Channels        int
	FramesPerBuffer int
	LowLatency      bool

	// Requested host processing. PortAudio cannot apply these.
	EchoCancellation bool
	NoiseSuppression bool
	AutoGainControl  bool

	// MaxDuration caps a recording; zero means unlimited.
	MaxDuration time.Duration

	GateThreshold float64
	Spectrum      analysis.SpectrumOptions
}

// DefaultOptions records mono 44.1 kHz from the default input.
func DefaultOptions() Options {
	return Options{
		DeviceID:         config.DefaultDeviceID,
		SampleRate:       config.DefaultSampleRate,
		Channels:         config.DefaultChannels,
		FramesPerBuffer:  config.DefaultFramesPerBuffer,
		EchoCancellation: true,
		NoiseSuppression: true,
		AutoGainControl:  true,
		GateThreshold:    DefaultGateThreshold,
		Spectrum:         analysis.DefaultSpectrumOptions(config.DefaultSampleRate),
	}
}

// OptionsFromConfig maps the audio and live sections of cfg.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	window, err := analysis.ParseWindowFunc(cfg.Live.FFTWindow)
	if err != nil {
		return Options{}, err
	}
	return Options{
		DeviceID:         cfg.Audio.InputDevice,
		SampleRate:       cfg.Audio.SampleRate,
		Channels:         cfg.Audio.InputChannels,
		FramesPerBuffer:  cfg.Audio.FramesPerBuffer,
		LowLatency:       cfg.Audio.LowLatency,
		EchoCancellation: cfg.Audio.EchoCancellation,
		NoiseSuppression: cfg.Audio.NoiseSuppression,
		AutoGainControl:  cfg.Audio.AutoGainControl,
		MaxDuration:      cfg.Audio.MaxDuration,
		GateThreshold:    DefaultGateThreshold,
		Spectrum: analysis.SpectrumOptions{
			FFTSize:     cfg.Live.FFTSize,
			SampleRate:  cfg.Audio.SampleRate,
			Window:      window,
			Smoothing:   cfg.Live.Smoothing,
			MinDecibels: cfg.Live.MinDecibels,
			MaxDecibels: cfg.Live.MaxDecibels,
		},
	}, nil
}

// stream is the part of *portaudio.Stream a session drives.
type stream interface {
	Start() error
	Stop() error
	Close() error
}

// openInputStream opens a callback stream on the configured input device.
var openInputStream = func(opts Options, callback func(in []float32)) (stream, error) {
	device, err := InputDevice(opts.DeviceID)
	if err != nil {
		return nil, err
	}

	latency := device.DefaultHighInputLatency
	if opts.LowLatency {
		latency = device.DefaultLowInputLatency
	}
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: opts.Channels,
			Device:   device,
			Latency:  latency,
		},
		FramesPerBuffer: opts.FramesPerBuffer,
		SampleRate:      opts.SampleRate,
	}

	s, err := portaudio.OpenStream(params, callback)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Capture hands out recording sessions, one at a time.
type Capture struct {
	opts Options

	mu     sync.Mutex
	active *Session
}

// NewCapture validates opts.
func NewCapture(opts Options) (*Capture, error) {
	if opts.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", opts.SampleRate)
	}
	if opts.Channels < 1 {
		return nil, fmt.Errorf("channels must be at least 1, got %d", opts.Channels)
	}
	if opts.FramesPerBuffer < 1 {
		return nil, fmt.Errorf("frames per buffer must be at least 1, got %d", opts.FramesPerBuffer)
	}
	if opts.Spectrum.SampleRate != opts.SampleRate {
		opts.Spectrum.SampleRate = opts.SampleRate
	}

	for _, p := range []struct {
		name      string
		requested bool
	}{
		{"echo cancellation", opts.EchoCancellation},
		{"noise suppression", opts.NoiseSuppression},
		{"auto gain control", opts.AutoGainControl},
	} {
		if p.requested {
			log.Debugf("Capture: %s requested but not supported by the host API", p.name)
		}
	}

	return &Capture{opts: opts}, nil
}

// Start opens the input stream and begins a new session. A session that is
// still recording is stopped and released first; its audio is discarded.
func (c *Capture) Start() (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev := c.active; prev != nil {
		log.Warnf("Capture: session %s still active, discarding it", prev.ID)
		c.shutdown(prev)
		prev.release()
		c.active = nil
	}

	sess, err := newSession(c.opts)
	if err != nil {
		return nil, err
	}

	st, err := openInputStream(c.opts, sess.process)
	if err != nil {
		return nil, mapError("open input stream", err)
	}
	sess.begin(st)

	if err := st.Start(); err != nil {
		sess.end()
		sess.release()
		if cerr := st.Close(); cerr != nil {
			log.Warnf("Capture: closing failed stream: %v", cerr)
		}
		return nil, mapError("start input stream", err)
	}

	c.active = sess
	log.Infof("Capture: session %s recording at %.0f Hz, %d channel(s)", sess.ID, c.opts.SampleRate, c.opts.Channels)
	return sess, nil
}

// Stop ends a recording session and returns its audio. Sessions that are
// not recording yield ErrNotRecording.
func (c *Capture) Stop(s *Session) (*Buffer, error) {
	if s == nil {
		return nil, ErrNotRecording
	}

	c.mu.Lock()
	stopped := c.shutdown(s)
	if c.active == s {
		c.active = nil
	}
	c.mu.Unlock()

	if !stopped {
		return nil, ErrNotRecording
	}

	buf := s.buffer()
	log.Infof("Capture: session %s stopped after %v", s.ID, buf.Duration())
	return buf, nil
}

// Release frees a session's audio. Releasing a recording session stops it.
func (c *Capture) Release(s *Session) {
	if s == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shutdown(s)
	if c.active == s {
		c.active = nil
	}
	s.release()
}

// Active returns the recording session, if any.
func (c *Capture) Active() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Close stops and releases the active session.
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	c.shutdown(c.active)
	c.active.release()
	c.active = nil
	return nil
}

// shutdown leaves Recording and closes the stream. Stream errors are logged
// because the captured audio is still usable.
func (c *Capture) shutdown(s *Session) bool {
	st, ok := s.end()
	if !ok {
		return false
	}
	if st != nil {
		if err := st.Stop(); err != nil {
			log.Warnf("Capture: stopping stream: %v", err)
		}
		if err := st.Close(); err != nil {
			log.Warnf("Capture: closing stream: %v", err)
		}
	}
	return true
}
