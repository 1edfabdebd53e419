// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"tonecoach/internal/audio"
	"tonecoach/internal/log"
	"tonecoach/internal/transport"
)

/*
Snapshot packet, big endian:

	+----------------+----------+-------+--------------+-------+-------------+
	| seq            | ts       | n     | magnitudes   | m     | time domain |
	| uint32         | int64 ns | uint16| n x float32  | uint16| m x uint8   |
	+----------------+----------+-------+--------------+-------+-------------+

Magnitudes are the live spectrum in dB; the time domain is centred on 128.
*/

// headerSize covers seq, ts and the magnitude count.
const headerSize = 4 + 8 + 2

// Packet is a decoded snapshot datagram.
type Packet struct {
	Seq        uint32
	Timestamp  time.Time
	Magnitudes []float32
	TimeDomain []uint8
}

// AppendPacket encodes a snapshot onto buf.
func AppendPacket(buf *bytes.Buffer, seq uint32, ts time.Time, snap *audio.LiveSnapshot) error {
	if len(snap.Frequency) > math.MaxUint16 || len(snap.TimeDomain) > math.MaxUint16 {
		return fmt.Errorf("snapshot too large for a datagram: %d bins, %d samples",
			len(snap.Frequency), len(snap.TimeDomain))
	}
	fields := []any{
		seq,
		ts.UnixNano(),
		uint16(len(snap.Frequency)),
		snap.Frequency,
		uint16(len(snap.TimeDomain)),
		snap.TimeDomain,
	}
	for _, f := range fields {
		if err := binary.Write(buf, binary.BigEndian, f); err != nil {
			return err
		}
	}
	return nil
}

// DecodePacket parses a datagram produced by AppendPacket.
func DecodePacket(data []byte) (Packet, error) {
	if len(data) < headerSize {
		return Packet{}, fmt.Errorf("packet too short: %d bytes", len(data))
	}
	r := bytes.NewReader(data)
	var (
		p  Packet
		ts int64
		n  uint16
	)
	if err := binary.Read(r, binary.BigEndian, &p.Seq); err != nil {
		return Packet{}, err
	}
	if err := binary.Read(r, binary.BigEndian, &ts); err != nil {
		return Packet{}, err
	}
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return Packet{}, err
	}
	p.Timestamp = time.Unix(0, ts)
	p.Magnitudes = make([]float32, n)
	if err := binary.Read(r, binary.BigEndian, p.Magnitudes); err != nil {
		return Packet{}, fmt.Errorf("magnitudes: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return Packet{}, fmt.Errorf("time domain count: %w", err)
	}
	p.TimeDomain = make([]uint8, n)
	if _, err := io.ReadFull(r, p.TimeDomain); err != nil {
		return Packet{}, fmt.Errorf("time domain: %w", err)
	}
	if r.Len() != 0 {
		return Packet{}, fmt.Errorf("%d trailing bytes", r.Len())
	}
	return p, nil
}

// Transport sends snapshot events as datagrams and ignores everything else.
type Transport struct {
	sender *Sender
	now    func() time.Time

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewTransport dials targetAddress.
func NewTransport(targetAddress string) (*Transport, error) {
	s, err := NewSender(targetAddress)
	if err != nil {
		return nil, err
	}
	return &Transport{sender: s, now: time.Now}, nil
}

// Send implements transport.Transport.
func (t *Transport) Send(data any) error {
	ev, ok := data.(transport.Event)
	if !ok || ev.Snapshot == nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Reset()
	if err := AppendPacket(&t.buf, ev.Seq, t.now(), ev.Snapshot); err != nil {
		log.Errorf("UDP Transport: packing snapshot %d: %v", ev.Seq, err)
		return err
	}
	if err := t.sender.Write(t.buf.Bytes()); err != nil {
		return err
	}
	log.Debugf("UDP Transport: sent packet %d (%d bytes)", ev.Seq, t.buf.Len())
	return nil
}

// Close closes the socket.
func (t *Transport) Close() error {
	return t.sender.Close()
}

var _ transport.Transport = (*Transport)(nil)
