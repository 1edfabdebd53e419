// SPDX-License-Identifier: MIT
package cmd

import (
	"errors"
	"fmt"

	"tonecoach/internal/config"
	"tonecoach/internal/engine"
	"tonecoach/internal/history"
	"tonecoach/internal/log"
	"tonecoach/internal/scoring"
	"tonecoach/internal/tone"
	"tonecoach/internal/transport"
	"tonecoach/internal/transport/udp"
)

// session bundles an engine with the optional history store and publisher
// configured for it.
type session struct {
	engine    *engine.Engine
	store     *history.Store
	publisher *transport.Publisher
}

func openSession(cfg *config.Config) (*session, error) {
	opts, err := engine.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	eng, err := engine.New(opts)
	if err != nil {
		return nil, err
	}
	s := &session{engine: eng}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			s.close()
			return nil, err
		}
		s.store = store
		eng.Observe(store)
	}

	out, err := buildTransport(cfg.Transport)
	if err != nil {
		s.close()
		return nil, err
	}
	if out != nil {
		pub, err := transport.NewPublisher(cfg.Transport.SnapshotInterval, out)
		if err != nil {
			out.Close()
			s.close()
			return nil, err
		}
		s.publisher = pub
	}
	return s, nil
}

// buildTransport returns nil when no transport is enabled.
func buildTransport(tc config.TransportConfig) (transport.Transport, error) {
	var out transport.Fanout

	if tc.WebSocketEnabled {
		ws := transport.NewWebSocketTransport()
		if err := ws.ListenAndServe(tc.WebSocketAddress); err != nil {
			ws.Close()
			return nil, err
		}
		log.Infof("Visualiser feed on ws://%s/ws", ws.Addr())
		out = append(out, ws)
	}
	if tc.UDPEnabled {
		u, err := udp.NewTransport(tc.UDPTargetAddress)
		if err != nil {
			out.Close()
			return nil, err
		}
		out = append(out, u)
	}
	if tc.LogEnabled {
		out = append(out, transport.NewLoggingTransport())
	}

	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (s *session) publishScore(target string, expected tone.Tone, score scoring.Score, analysis scoring.Analysis) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishScore(transport.ScoreEvent{
		Target:   target,
		Expected: expected,
		Detected: analysis.Tone,
		Score:    score,
		Contour:  analysis.Contour.Frequencies(),
	})
	if err != nil {
		log.Warnf("Failed to publish score: %v", err)
	}
}

func (s *session) close() error {
	var errs []error
	if s.publisher != nil {
		errs = append(errs, s.publisher.Close())
	}
	if s.engine != nil {
		errs = append(errs, s.engine.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
