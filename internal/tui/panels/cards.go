package panels

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// CardsProps holds the pre-rendered indicator bodies and the selection.
type CardsProps struct {
	Bodies   []string // one rendered indicator per card
	Selected int
	Visible  int // number of cards that fit
}

// Window returns the [start, end) range of cards to show so that the
// selected card is always visible.
func Window(total, selected, visible int) (start, end int) {
	if visible <= 0 || total == 0 {
		return 0, 0
	}
	if total <= visible {
		return 0, total
	}
	start = selected - visible + 1
	if start < 0 {
		start = 0
	}
	end = start + visible
	if end > total {
		end = total
		start = end - visible
	}
	return start, end
}

// RenderCards renders a column of bordered cards, each width cells wide
// including its border. The selected card uses selectedStyle.
func RenderCards(props CardsProps, width int, selectedStyle, otherStyle lipgloss.Style) string {
	innerW := width - 2
	if innerW < 1 {
		innerW = 1
	}
	if len(props.Bodies) == 0 {
		return otherStyle.Width(innerW).Render(footerStyle.Render("no runs watched"))
	}

	start, end := Window(len(props.Bodies), props.Selected, props.Visible)
	cards := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		style := otherStyle
		if i == props.Selected {
			style = selectedStyle
		}
		cards = append(cards, style.Width(innerW).Render(Truncate(props.Bodies[i], innerW)))
	}
	return strings.Join(cards, "\n")
}
