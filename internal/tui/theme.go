package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/LISSConsulting/usain/internal/indicator"
	"github.com/LISSConsulting/usain/internal/run"
)

// Theme holds accent-color-derived styles. Non-accent styles are
// package-level in styles.go.
type Theme struct {
	accentStyle     lipgloss.Style // header background
	borderFocused   lipgloss.Style // selected card, log panel
	borderUnfocused lipgloss.Style // other cards
}

// NewTheme creates a Theme from a hex accent color string (e.g. "#7D56F4").
// If accentColor is empty, the default accent color is used.
func NewTheme(accentColor string) Theme {
	color := defaultAccentColor
	if accentColor != "" {
		color = accentColor
	}
	c := lipgloss.Color(color)
	return Theme{
		accentStyle: lipgloss.NewStyle().
			Background(c).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true),
		borderFocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c),
		borderUnfocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorGray),
	}
}

// AccentHeaderStyle returns the style for the header bar.
func (t Theme) AccentHeaderStyle() lipgloss.Style {
	return t.accentStyle
}

// PanelBorderStyle returns the border style for a card or panel depending on
// whether it is selected.
func (t Theme) PanelBorderStyle(selected bool) lipgloss.Style {
	if selected {
		return t.borderFocused
	}
	return t.borderUnfocused
}

// RenderIndicator is the indicator.Renderer used in the TUI: a state symbol,
// the run and, once finished, the coloured result.
func (t Theme) RenderIndicator(r run.Run, s indicator.DisplayState) string {
	if !s.Finished() {
		return runningStyle.Render("● RUNNING ") + " " + r.String()
	}
	line := successStyle.Render("✓ FINISHED") + " " + r.String()
	if s.Result != "" {
		line += "  " + resultStyle(s.Result).Render(s.Result)
	}
	return line
}

// RenderLogLine renders a LogLine as a single terminal line no wider than
// width.
func (t Theme) RenderLogLine(line LogLine, width int) string {
	ts := timestampStyle.Render(fmt.Sprintf("[%s]", line.Time.Format("15:04:05")))
	text := singleLine(line.Message)
	maxText := width - 14
	if maxText < 20 {
		maxText = 20
	}
	if runes := []rune(text); len(runes) > maxText {
		text = string(runes[:maxText-1]) + "…"
	}
	return fmt.Sprintf("%s %s %s", ts, levelIcon(line.Level), levelStyle(line.Level).Render(text))
}

// singleLine collapses newlines and tabs so a message fits on one row.
func singleLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\t", " ")
}
