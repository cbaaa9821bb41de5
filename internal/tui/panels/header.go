// Package panels renders the panels of the usain TUI from plain props, so
// they can be tested without a running program.
package panels

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// HeaderProps holds all data needed to render the header bar.
// String fields for state avoid importing the parent tui package.
type HeaderProps struct {
	ProjectName string
	GatewayURL  string
	Spinner     string // current spinner frame; empty once nothing is running
	StateSymbol string // e.g. "●", "○", "✗"
	StateLabel  string // e.g. "LIVE", "CLOSED"
	Watching    int
	Finished    int
	Elapsed     time.Duration
	Clock       time.Time
}

// HostOf returns the host[:port] of a URL for compact display, or the input
// unchanged when it does not parse.
func HostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}

// FormatElapsed renders a duration as a compact string: "5s", "2m30s", "1h15m".
func FormatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// RenderHeader renders the one-row header bar. accentStyle is applied to the
// full width.
func RenderHeader(props HeaderProps, width int, accentStyle lipgloss.Style) string {
	name := "usain"
	if props.ProjectName != "" {
		name = props.ProjectName
	}

	parts := []string{"⚡ " + name}
	if props.GatewayURL != "" {
		parts = append(parts, "gateway: "+HostOf(props.GatewayURL))
	}

	state := props.StateLabel
	if props.StateSymbol != "" && props.StateLabel != "" {
		state = props.StateSymbol + " " + props.StateLabel
	}
	if state != "" {
		parts = append(parts, state)
	}

	runs := fmt.Sprintf("finished: %d/%d", props.Finished, props.Watching)
	if props.Spinner != "" && props.Finished < props.Watching {
		runs = props.Spinner + " " + runs
	}
	parts = append(parts, runs)

	if props.Elapsed > 0 {
		parts = append(parts, "elapsed: "+FormatElapsed(props.Elapsed))
	}
	if !props.Clock.IsZero() {
		parts = append(parts, props.Clock.Format("15:04"))
	}

	content := Truncate(strings.Join(parts, "  │  "), width)
	return accentStyle.Width(width).Render(content)
}

// Truncate shortens s to at most width cells, ending with "…" when cut.
// Styled input is cut without breaking escape sequences.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width-1).Render(s) + "…"
}
