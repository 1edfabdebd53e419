// SPDX-License-Identifier: MIT
package transport

import (
	"time"

	"tonecoach/internal/log"
)

// LoggingTransport writes a one-line summary of every event to the log.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	log.Debugf("Transport: using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs a summary of data. Snapshots go to debug, scores to info.
func (lt *LoggingTransport) Send(data any) error {
	ev, ok := data.(Event)
	if !ok {
		log.Debugf("LoggingTransport: %T", data)
		return nil
	}
	switch {
	case ev.Snapshot != nil:
		s := ev.Snapshot
		log.Debugf("LoggingTransport: #%d snapshot t=%v level=%.3f voiced=%v bins=%d",
			ev.Seq, s.Elapsed.Round(time.Millisecond), s.Level, s.Voiced, len(s.Frequency))
	case ev.Score != nil:
		s := ev.Score
		log.Infof("LoggingTransport: #%d score %q expected=%v detected=%v overall=%d",
			ev.Seq, s.Target, s.Expected, s.Detected, s.Score.Overall)
	}
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
