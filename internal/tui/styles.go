// Package tui provides a bubbletea + lipgloss terminal UI for watching runs.
package tui

import (
	"log/slog"

	"github.com/charmbracelet/lipgloss"
)

// defaultAccentColor is the default accent color (indigo).
const defaultAccentColor = "#7D56F4"

var (
	colorWhite  = lipgloss.Color("#FAFAFA")
	colorGray   = lipgloss.Color("#888888")
	colorBlue   = lipgloss.Color("#5B9BD5")
	colorGreen  = lipgloss.Color("#6BCB77")
	colorYellow = lipgloss.Color("#FFD93D")
	colorRed    = lipgloss.Color("#FF6B6B")
	colorOrange = lipgloss.Color("#FFA54F")
)

// Styles used across the TUI. Accent-dependent styles live on Theme.
var (
	timestampStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	debugStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	infoStyle = lipgloss.NewStyle().
			Foreground(colorWhite)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	runningStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	unstableStyle = lipgloss.NewStyle().
			Foreground(colorOrange).
			Bold(true)
)

// levelStyle returns the lipgloss style for a log level.
func levelStyle(level slog.Level) lipgloss.Style {
	switch {
	case level >= slog.LevelError:
		return errorStyle
	case level >= slog.LevelWarn:
		return warnStyle
	case level >= slog.LevelInfo:
		return infoStyle
	default:
		return debugStyle
	}
}

// levelIcon returns the prefix shown before a log message.
func levelIcon(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "✗"
	case level >= slog.LevelWarn:
		return "!"
	case level >= slog.LevelInfo:
		return "·"
	default:
		return " "
	}
}

// resultStyle returns the style for a run result reported by Jenkins.
func resultStyle(result string) lipgloss.Style {
	switch result {
	case "SUCCESS":
		return successStyle
	case "FAILURE":
		return errorStyle
	case "UNSTABLE":
		return unstableStyle
	case "ABORTED", "NOT_BUILT":
		return debugStyle
	default:
		return successStyle
	}
}
