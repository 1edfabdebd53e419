// SPDX-License-Identifier: MIT

// Package engine is the public face of tonecoach: capture an attempt, then
// analyse or grade it.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"tonecoach/internal/audio"
	"tonecoach/internal/config"
	"tonecoach/internal/feedback"
	"tonecoach/internal/log"
	"tonecoach/internal/pitch"
	"tonecoach/internal/scoring"
	"tonecoach/internal/tone"
)

// Attempt is one graded evaluation, as reported to observers.
type Attempt struct {
	ID       uuid.UUID
	At       time.Time
	Target   string
	Expected tone.Tone
	Score    scoring.Score
	Analysis scoring.Analysis
}

// Observer is told about every completed evaluation. Implementations must
// not block for long; they run on the evaluating goroutine.
type Observer interface {
	ObserveAttempt(Attempt)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Attempt)

// ObserveAttempt calls f.
func (f ObserverFunc) ObserveAttempt(a Attempt) { f(a) }

// Options configures an Engine.
type Options struct {
	Capture    audio.Options
	Pitch      pitch.Options
	Classifier string
	Language   string
	Catalogue  string // Optional TOML file replacing the built-in messages.
}

// DefaultOptions uses the built-in defaults of every component.
func DefaultOptions() Options {
	return Options{
		Capture:    audio.DefaultOptions(),
		Pitch:      pitch.DefaultOptions(),
		Classifier: config.DefaultClassifier,
		Language:   config.DefaultLanguage,
	}
}

// OptionsFromConfig maps a loaded configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	capture, err := audio.OptionsFromConfig(cfg)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Capture: capture,
		Pitch: pitch.Options{
			WindowSize:           cfg.Analysis.WindowSize,
			HopSize:              cfg.Analysis.HopSize,
			SilenceThreshold:     cfg.Analysis.SilenceThreshold,
			CorrelationThreshold: cfg.Analysis.CorrelationThreshold,
		},
		Classifier: cfg.Analysis.Classifier,
		Language:   cfg.Feedback.Language,
		Catalogue:  cfg.Feedback.Catalogue,
	}, nil
}

// Engine ties capture to analysis. Evaluation holds no per-call state, so
// concurrent evaluations do not interfere.
type Engine struct {
	capture   *audio.Capture
	extractor *pitch.Extractor
	scorer    *scoring.Scorer

	mu        sync.RWMutex
	observers []Observer
}

// New builds an engine. The capture device is not opened until
// StartCapture.
func New(opts Options) (*Engine, error) {
	capture, err := audio.NewCapture(opts.Capture)
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}
	extractor, err := pitch.NewExtractor(opts.Pitch)
	if err != nil {
		return nil, err
	}
	classifier, err := tone.NewClassifier(opts.Classifier)
	if err != nil {
		return nil, err
	}
	messages, err := feedback.Load(opts.Language, opts.Catalogue)
	if err != nil {
		return nil, err
	}

	log.Debugf("Engine: classifier=%s language=%s window=%d hop=%d",
		opts.Classifier, messages.Language(), opts.Pitch.WindowSize, opts.Pitch.HopSize)

	return &Engine{
		capture:   capture,
		extractor: extractor,
		scorer:    scoring.NewScorer(classifier, messages),
	}, nil
}

// Observe registers o for every later evaluation.
func (e *Engine) Observe(o Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, o)
}

// StartCapture begins a recording session, stopping any session still
// recording.
func (e *Engine) StartCapture() (*audio.Session, error) {
	return e.capture.Start()
}

// LiveSnapshot returns the live spectrum of a recording session. It never
// blocks on the capture callback.
func (e *Engine) LiveSnapshot(s *audio.Session) (*audio.LiveSnapshot, bool) {
	if s == nil {
		return nil, false
	}
	return s.LiveSnapshot()
}

// StopCapture ends the session and returns its audio.
func (e *Engine) StopCapture(s *audio.Session) (*audio.Buffer, error) {
	return e.capture.Stop(s)
}

// ReleaseCapture frees a session's audio.
func (e *Engine) ReleaseCapture(s *audio.Session) {
	e.capture.Release(s)
}

// Close releases any active session.
func (e *Engine) Close() error {
	return e.capture.Close()
}

// AnalyzePitch extracts and classifies the pitch contour of buf. Malformed
// buffers return an error wrapping audio.ErrDecodeFailed.
func (e *Engine) AnalyzePitch(buf *audio.Buffer) (scoring.Analysis, error) {
	contour, err := e.contour(buf)
	if err != nil {
		return scoring.Analysis{}, err
	}
	return e.scorer.Analyze(contour), nil
}

// EvaluatePronunciation grades buf against the expected tone. It never
// fails: any problem yields a zero score with a single failure message.
// targetText is carried through to observers.
func (e *Engine) EvaluatePronunciation(buf *audio.Buffer, targetText string, expected tone.Tone) scoring.Score {
	score, _ := e.Evaluate(buf, targetText, expected)
	return score
}

// Evaluate is EvaluatePronunciation that also returns the analysis. The
// analysis is zero when the attempt failed.
func (e *Engine) Evaluate(buf *audio.Buffer, targetText string, expected tone.Tone) (scoring.Score, scoring.Analysis) {
	score, analysis, ok := e.evaluate(buf, expected)
	if ok {
		e.notify(Attempt{
			ID:       uuid.New(),
			At:       time.Now(),
			Target:   targetText,
			Expected: expected,
			Score:    score,
			Analysis: analysis,
		})
	}
	return score, analysis
}

// EvaluateAsync runs EvaluatePronunciation on its own goroutine. The channel
// receives exactly one score and is then closed. ctx only bounds how long
// the caller waits; the evaluation itself runs to completion.
func (e *Engine) EvaluateAsync(ctx context.Context, buf *audio.Buffer, targetText string, expected tone.Tone) <-chan scoring.Score {
	out := make(chan scoring.Score, 1)
	go func() {
		defer close(out)
		if ctx.Err() != nil {
			out <- e.scorer.Failed()
			return
		}
		out <- e.EvaluatePronunciation(buf, targetText, expected)
	}()
	return out
}

func (e *Engine) evaluate(buf *audio.Buffer, expected tone.Tone) (score scoring.Score, analysis scoring.Analysis, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Engine: evaluation panicked: %v", r)
			score, analysis, ok = e.scorer.Failed(), scoring.Analysis{}, false
		}
	}()

	contour, err := e.contour(buf)
	if err != nil {
		log.Warnf("Engine: %v", err)
		return e.scorer.Failed(), scoring.Analysis{}, false
	}
	score, analysis = e.scorer.Evaluate(contour, expected)
	return score, analysis, true
}

func (e *Engine) contour(buf *audio.Buffer) (pitch.Contour, error) {
	samples, err := buf.Mono()
	if err != nil {
		return nil, err
	}
	return e.extractor.Extract(samples, buf.SampleRate()), nil
}

func (e *Engine) notify(a Attempt) {
	e.mu.RLock()
	observers := e.observers
	e.mu.RUnlock()
	for _, o := range observers {
		observe(o, a)
	}
}

// observe isolates o so a failing observer cannot break evaluation or the
// observers after it.
func observe(o Observer, a Attempt) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Engine: observer panicked on attempt %s: %v", a.ID, r)
		}
	}()
	o.ObserveAttempt(a)
}
