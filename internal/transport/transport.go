// SPDX-License-Identifier: MIT

// Package transport fans live capture snapshots and finished scores out to
// visualisers: WebSocket clients, a UDP listener, or the log.
package transport

import (
	"tonecoach/internal/audio"
	"tonecoach/internal/scoring"
	"tonecoach/internal/tone"
)

// Transport defines a generic interface for sending processed data or events.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// Event types carried in Event.Type.
const (
	EventSnapshot = "snapshot"
	EventScore    = "score"
)

// Event is the envelope every transport receives.
type Event struct {
	Type     string              `json:"type"`
	Seq      uint32              `json:"seq"`
	Snapshot *audio.LiveSnapshot `json:"snapshot,omitempty"`
	Score    *ScoreEvent         `json:"score,omitempty"`
}

// ScoreEvent reports one finished evaluation.
type ScoreEvent struct {
	Target   string        `json:"target"`
	Expected tone.Tone     `json:"expected"`
	Detected tone.Tone     `json:"detected"`
	Score    scoring.Score `json:"score"`
	Contour  []float64     `json:"contour,omitempty"`
}

// SnapshotSource is polled by the Publisher; *audio.Session implements it.
type SnapshotSource interface {
	LiveSnapshot() (*audio.LiveSnapshot, bool)
}

var _ SnapshotSource = (*audio.Session)(nil)

// Fanout sends every event to all of its transports and keeps going past
// individual failures.
type Fanout []Transport

// Send implements Transport. It returns the first error seen.
func (f Fanout) Send(data any) error {
	var first error
	for _, t := range f {
		if err := t.Send(data); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close closes every transport and returns the first error seen.
func (f Fanout) Close() error {
	var first error
	for _, t := range f {
		if err := t.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var _ Transport = Fanout(nil)
