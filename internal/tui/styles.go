// SPDX-License-Identifier: MIT

// Package tui holds the terminal views: the input device picker, the live
// recording meter, and score and history rendering.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D7D7D"))

	goodStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#25A065")).Bold(true)
	fairStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0A526")).Bold(true)
	poorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D9534F")).Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#25A065")).
			Padding(0, 1)
)

// gradeStyle colours a percentage.
func gradeStyle(pct int) lipgloss.Style {
	switch {
	case pct >= 80:
		return goodStyle
	case pct >= 60:
		return fairStyle
	default:
		return poorStyle
	}
}
