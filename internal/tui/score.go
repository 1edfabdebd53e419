// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"tonecoach/internal/history"
	"tonecoach/internal/scoring"
	"tonecoach/internal/tone"
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders values scaled between their minimum and maximum. A flat
// series renders at the middle height.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	out := make([]rune, len(values))
	top := len(sparkRunes) - 1
	for i, v := range values {
		level := top / 2
		if hi > lo {
			level = int(math.Round((v - lo) / (hi - lo) * float64(top)))
		}
		out[i] = sparkRunes[level]
	}
	return string(out)
}

// RenderScore formats one evaluated attempt for the terminal.
func RenderScore(target string, expected tone.Tone, score scoring.Score, analysis scoring.Analysis) string {
	var sb strings.Builder

	heading := "Attempt"
	if target != "" {
		heading = target
	}
	sb.WriteString(titleStyle.Render(heading))
	sb.WriteString("\n\n")

	row := func(label string, pct int) {
		fmt.Fprintf(&sb, "%-14s %s\n", label, gradeStyle(pct).Render(fmt.Sprintf("%3d%%", pct)))
	}
	row("Overall", score.Overall)
	row("Tone accuracy", score.ToneAccuracy)
	row("Clarity", score.Clarity)
	row("Timing", score.Timing)
	sb.WriteString("\n")

	detected := analysis.Tone.String()
	if expected != tone.None {
		detected = fmt.Sprintf("%s (expected %s)", analysis.Tone, expected)
	}
	fmt.Fprintf(&sb, "%-14s %s, confidence %.2f\n", "Detected", detected, analysis.Confidence)
	if len(analysis.Contour) > 0 {
		fmt.Fprintf(&sb, "%-14s %s\n", "Contour", highlightStyle.Render(Sparkline(analysis.Contour.Frequencies())))
		fmt.Fprintf(&sb, "%-14s %.1f Hz (%.1f-%.1f), %.2fs\n", "Pitch",
			analysis.AverageFrequency, analysis.PitchRange.Min, analysis.PitchRange.Max, analysis.Duration)
	} else {
		fmt.Fprintf(&sb, "%-14s %s\n", "Contour", dimStyle.Render("no voiced audio"))
	}

	if len(score.Feedback) > 0 {
		sb.WriteString("\n")
		for _, msg := range score.Feedback {
			sb.WriteString("• " + msg + "\n")
		}
	}
	return panelStyle.Render(strings.TrimRight(sb.String(), "\n"))
}

func staticTable(cols []table.Column, rows []table.Row) string {
	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithHeight(len(rows)+2), // header and its border
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	s.Selected = lipgloss.NewStyle()
	t.SetStyles(s)
	return t.View()
}

// RenderHistory lays out stored attempts, newest first.
func RenderHistory(entries []history.Entry) string {
	if len(entries) == 0 {
		return dimStyle.Render("No attempts recorded.")
	}
	cols := []table.Column{
		{Title: "When", Width: 16},
		{Title: "Target", Width: 14},
		{Title: "Expected", Width: 8},
		{Title: "Detected", Width: 8},
		{Title: "Score", Width: 5},
	}
	rows := make([]table.Row, len(entries))
	for i, e := range entries {
		rows[i] = table.Row{
			e.At.Local().Format("2006-01-02 15:04"),
			e.Target,
			e.Expected.String(),
			e.Detected.String(),
			strconv.Itoa(e.Overall),
		}
	}
	return staticTable(cols, rows)
}

// RenderSummaries lays out per-target aggregates.
func RenderSummaries(summaries []history.TargetSummary) string {
	if len(summaries) == 0 {
		return dimStyle.Render("No attempts recorded.")
	}
	cols := []table.Column{
		{Title: "Target", Width: 14},
		{Title: "Attempts", Width: 8},
		{Title: "Best", Width: 5},
		{Title: "Average", Width: 7},
		{Title: "Last", Width: 16},
	}
	rows := make([]table.Row, len(summaries))
	for i, s := range summaries {
		rows[i] = table.Row{
			s.Target,
			strconv.Itoa(s.Attempts),
			strconv.Itoa(s.Best),
			fmt.Sprintf("%.1f", s.Average),
			s.Last.Local().Format("2006-01-02 15:04"),
		}
	}
	return staticTable(cols, rows)
}
