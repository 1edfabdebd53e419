// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"sync"
	"time"

	"tonecoach/internal/log"
)

// DefaultSnapshotInterval polls at roughly 20 Hz.
const DefaultSnapshotInterval = 50 * time.Millisecond

// Publisher polls a SnapshotSource on a ticker and sends every available
// snapshot to its transport. Polling never blocks the capture callback.
type Publisher struct {
	out      Transport
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex

	seq uint32
}

// NewPublisher returns a stopped publisher. Non-positive intervals fall back
// to DefaultSnapshotInterval.
func NewPublisher(interval time.Duration, out Transport) (*Publisher, error) {
	if out == nil {
		return nil, fmt.Errorf("publisher: transport cannot be nil")
	}
	if interval <= 0 {
		log.Warnf("Publisher: invalid interval %v, defaulting to %v", interval, DefaultSnapshotInterval)
		interval = DefaultSnapshotInterval
	}
	return &Publisher{out: out, interval: interval}, nil
}

// Start begins polling src. Calling Start on a running publisher is a no-op.
func (p *Publisher) Start(src SnapshotSource) {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		log.Warnf("Publisher: Start called but already running")
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}
	ticker, done := p.ticker, p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		log.Debugf("Publisher: polling every %v", p.interval)
		for {
			select {
			case <-ticker.C:
				p.publish(src)
			case <-done:
				return
			}
		}
	}()
}

// Stop halts polling and waits for the goroutine to exit. It is safe to
// call more than once.
func (p *Publisher) Stop() {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()
	p.wg.Wait()
}

// PublishScore sends a score event outside the polling loop.
func (p *Publisher) PublishScore(score ScoreEvent) error {
	return p.out.Send(Event{Type: EventScore, Seq: p.nextSeq(), Score: &score})
}

// Close stops polling and closes the transport.
func (p *Publisher) Close() error {
	p.Stop()
	return p.out.Close()
}

func (p *Publisher) publish(src SnapshotSource) {
	snap, ok := src.LiveSnapshot()
	if !ok {
		return
	}
	if err := p.out.Send(Event{Type: EventSnapshot, Seq: p.nextSeq(), Snapshot: snap}); err != nil {
		log.Debugf("Publisher: send failed: %v", err)
	}
}

func (p *Publisher) nextSeq() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	return p.seq
}
