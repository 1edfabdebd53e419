// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"tonecoach/internal/audio"
	"tonecoach/internal/scoring"
	"tonecoach/internal/tone"
	"tonecoach/pkg/utils"
)

type fakeSource struct {
	ready atomic.Bool
	polls atomic.Int32
	id    uuid.UUID
}

func (f *fakeSource) LiveSnapshot() (*audio.LiveSnapshot, bool) {
	f.polls.Add(1)
	if !f.ready.Load() {
		return nil, false
	}
	return &audio.LiveSnapshot{SessionID: f.id, Frequency: []float32{-50}, TimeDomain: []uint8{128}}, true
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPublisher_PublishesSnapshots(t *testing.T) {
	out := &utils.MockTransport{}
	p, err := NewPublisher(time.Millisecond, out)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}

	src := &fakeSource{id: uuid.New()}
	src.ready.Store(true)
	p.Start(src)
	waitFor(t, func() bool { return len(out.Sent()) >= 3 })
	p.Stop()

	sent := out.Sent()
	var last uint32
	for i, v := range sent {
		ev, ok := v.(Event)
		if !ok || ev.Type != EventSnapshot || ev.Snapshot == nil {
			t.Fatalf("event %d = %#v", i, v)
		}
		if ev.Snapshot.SessionID != src.id {
			t.Errorf("event %d from wrong session", i)
		}
		if ev.Seq <= last {
			t.Errorf("sequence not increasing: %d after %d", ev.Seq, last)
		}
		last = ev.Seq
	}

	// Nothing is sent once stopped.
	n := len(out.Sent())
	time.Sleep(10 * time.Millisecond)
	if len(out.Sent()) != n {
		t.Error("publisher kept sending after Stop")
	}
}

func TestPublisher_SkipsUnavailableSnapshots(t *testing.T) {
	out := &utils.MockTransport{}
	p, _ := NewPublisher(time.Millisecond, out)

	src := &fakeSource{}
	p.Start(src)
	waitFor(t, func() bool { return src.polls.Load() >= 5 })
	p.Stop()

	if len(out.Sent()) != 0 {
		t.Errorf("sent %d events for a source with no snapshot", len(out.Sent()))
	}
}

func TestPublisher_SendErrorsDoNotStopPolling(t *testing.T) {
	out := &utils.MockTransport{Err: errors.New("offline")}
	p, _ := NewPublisher(time.Millisecond, out)

	src := &fakeSource{}
	src.ready.Store(true)
	p.Start(src)
	waitFor(t, func() bool { return src.polls.Load() >= 5 })
	p.Stop()
}

func TestPublisher_PublishScoreAndClose(t *testing.T) {
	out := &utils.MockTransport{}
	p, _ := NewPublisher(0, out)
	if p.interval != DefaultSnapshotInterval {
		t.Errorf("interval = %v, want default", p.interval)
	}

	score := ScoreEvent{
		Target:   "ขา",
		Expected: tone.Rising,
		Detected: tone.Rising,
		Score:    scoring.Score{Overall: 90, Feedback: []string{"ok"}},
	}
	if err := p.PublishScore(score); err != nil {
		t.Fatalf("PublishScore: %v", err)
	}
	sent := out.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d events", len(sent))
	}
	if ev := sent[0].(Event); ev.Type != EventScore || ev.Score.Score.Overall != 90 {
		t.Errorf("event = %+v", ev)
	}

	p.Stop() // never started
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !out.Closed() {
		t.Error("Close should close the transport")
	}
}

func TestPublisher_StartTwice(t *testing.T) {
	p, _ := NewPublisher(time.Millisecond, &utils.MockTransport{})
	src := &fakeSource{}
	p.Start(src)
	p.Start(src)
	p.Stop()
	p.Stop()
}

func TestNewPublisher_NilTransport(t *testing.T) {
	if _, err := NewPublisher(time.Second, nil); err == nil {
		t.Error("expected error for nil transport")
	}
}

func TestFanout(t *testing.T) {
	a := &utils.MockTransport{}
	b := &utils.MockTransport{Err: errors.New("down")}
	c := &utils.MockTransport{}
	f := Fanout{a, b, c}

	if err := f.Send("x"); err == nil || err.Error() != "down" {
		t.Errorf("Send = %v, want first error", err)
	}
	if len(a.Sent()) != 1 || len(c.Sent()) != 1 {
		t.Error("a failing transport must not block the others")
	}
	if err := f.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}
	if !a.Closed() || !b.Closed() || !c.Closed() {
		t.Error("every transport should be closed")
	}
}

func TestLoggingTransport(t *testing.T) {
	lt := NewLoggingTransport()
	events := []any{
		Event{Type: EventSnapshot, Seq: 1, Snapshot: &audio.LiveSnapshot{}},
		Event{Type: EventScore, Seq: 2, Score: &ScoreEvent{}},
		"raw",
	}
	for _, ev := range events {
		if err := lt.Send(ev); err != nil {
			t.Errorf("Send(%v) = %v", ev, err)
		}
	}
	if err := lt.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}
}
