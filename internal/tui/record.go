// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"tonecoach/internal/audio"
)

const (
	meterWidth   = 40
	meterFloorDB = -60.0
)

var recordKeys = struct {
	stop, cancel key.Binding
}{
	stop:   key.NewBinding(key.WithKeys("enter", " ")),
	cancel: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c")),
}

type tickMsg time.Time

// RecordModel shows a level meter and band levels while a session records.
// It quits when the user stops, cancels, or the time limit passes.
type RecordModel struct {
	target   string
	snapshot func() (*audio.LiveSnapshot, bool)
	limit    time.Duration
	interval time.Duration

	last      *audio.LiveSnapshot
	cancelled bool
	finished  bool
}

// NewRecordModel polls snapshot every interval. limit <= 0 records until
// the user stops.
func NewRecordModel(target string, snapshot func() (*audio.LiveSnapshot, bool), limit, interval time.Duration) RecordModel {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return RecordModel{target: target, snapshot: snapshot, limit: limit, interval: interval}
}

// Cancelled reports whether the user abandoned the attempt.
func (m RecordModel) Cancelled() bool {
	return m.cancelled
}

func (m RecordModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init implements tea.Model.
func (m RecordModel) Init() tea.Cmd {
	return m.tick()
}

// Update implements tea.Model.
func (m RecordModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, recordKeys.cancel):
			m.cancelled = true
			m.finished = true
			return m, tea.Quit
		case key.Matches(msg, recordKeys.stop):
			m.finished = true
			return m, tea.Quit
		}

	case tickMsg:
		if snap, ok := m.snapshot(); ok {
			m.last = snap
			if m.limit > 0 && snap.Elapsed >= m.limit {
				m.finished = true
				return m, tea.Quit
			}
		}
		return m, m.tick()
	}
	return m, nil
}

// View implements tea.Model.
func (m RecordModel) View() string {
	if m.finished {
		return ""
	}

	var sb strings.Builder
	title := "Recording"
	if m.target != "" {
		title += ": " + m.target
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")

	if m.last == nil {
		sb.WriteString(dimStyle.Render("Waiting for audio..."))
	} else {
		voiced := dimStyle.Render("silent")
		if m.last.Voiced {
			voiced = goodStyle.Render("voiced")
		}
		fmt.Fprintf(&sb, "%5.1fs  %s  %s\n\n", m.last.Elapsed.Seconds(), Meter(m.last.Level, meterWidth), voiced)
		for _, b := range m.last.Bands {
			fmt.Fprintf(&sb, "%-10s %s %6.1f dB\n", b.Name, Meter(dbToLevel(b.Decibel), meterWidth/2), b.Decibel)
		}
	}

	sb.WriteString("\n")
	sb.WriteString(infoStyle.Render("Enter: Stop and score • q: Cancel"))
	return sb.String()
}

// Meter draws level in [0, 1] as a bar of the given width.
func Meter(level float64, width int) string {
	level = math.Max(0, math.Min(1, level))
	filled := int(math.Round(level * float64(width)))
	return highlightStyle.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", width-filled))
}

func dbToLevel(db float64) float64 {
	return (db - meterFloorDB) / -meterFloorDB
}

// RunRecorder shows the recording view until it finishes. It reports
// whether the user cancelled.
func RunRecorder(target string, snapshot func() (*audio.LiveSnapshot, bool), limit, interval time.Duration) (cancelled bool, err error) {
	final, err := tea.NewProgram(NewRecordModel(target, snapshot, limit, interval)).Run()
	if err != nil {
		return false, err
	}
	return final.(RecordModel).Cancelled(), nil
}
