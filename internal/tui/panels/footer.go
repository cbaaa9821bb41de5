package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

// FooterProps holds all data needed to render the footer bar.
type FooterProps struct {
	Selected     string // label of the selected run, "" when none
	Following    bool
	ScrollOffset int
	NewBelow     int
}

// RenderFooter renders the footer bar. Left side: selected run. Right side:
// scroll state and key hints.
func RenderFooter(props FooterProps, width int) string {
	selected := props.Selected
	if selected == "" {
		selected = "—"
	}
	left := "selected: " + selected

	var scroll string
	switch {
	case props.ScrollOffset > 0 && props.NewBelow > 0:
		scroll = fmt.Sprintf("↓%d new  ↑%d  ", props.NewBelow, props.ScrollOffset)
	case props.ScrollOffset > 0:
		scroll = fmt.Sprintf("↑%d  ", props.ScrollOffset)
	}
	follow := "f:follow"
	if props.Following {
		follow = "f:unfollow"
	}
	right := scroll + "j/k:select  x:unwatch  " + follow + "  ctrl+u/d:scroll  q:quit"

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}

	return footerStyle.Width(width).Render(Truncate(left+strings.Repeat(" ", gap)+right, width))
}
